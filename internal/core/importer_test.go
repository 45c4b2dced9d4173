package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/timesheet/internal/database"
	"github.com/JonMunkholm/timesheet/internal/database/mocks"
)

func newTestImporter(store database.Store, batchSize int) *Importer {
	return NewImporter(store, ImporterConfig{BatchSize: batchSize, Now: fixedNow}, testLogger())
}

func csvFile(rows ...string) []byte {
	return []byte(fileHeader + strings.Join(rows, "\n") + "\n")
}

// =============================================================================
// ImportFile
// =============================================================================

func TestImportFile_SkipsInvalidHours(t *testing.T) {
	store := mocks.NewStore()
	im := newTestImporter(store, 0)

	data := csvFile(
		"41,October,Development,Backend,ECOLAB,Project_Magic_Bullet,Work,8.0,2024-10-07",
		"41,October,Development,Backend,ECOLAB,Project_Magic_Bullet,Work,-1.0,2024-10-07",
	)
	result, err := im.ImportFile(context.Background(), "week41.csv", data)
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}

	if len(result.Entries) != 1 {
		t.Fatalf("Entries = %d, want 1", len(result.Entries))
	}
	if result.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", result.Skipped)
	}
	if len(result.ValidationErrors) != 0 {
		t.Errorf("ValidationErrors = %+v, want none", result.ValidationErrors)
	}
	if result.TotalRows != 2 {
		t.Errorf("TotalRows = %d, want 2", result.TotalRows)
	}
	if result.ImportID == "" {
		t.Error("ImportID is empty")
	}

	e := result.Entries[0]
	if deref(e.Customer) != "ECOLAB" || deref(e.Project) != "Project_Magic_Bullet" || e.Hours != 8 {
		t.Errorf("entry = %+v", e)
	}
	if got := strings.Join(result.CreatedCustomers, ","); got != "ECOLAB" {
		t.Errorf("CreatedCustomers = %q, want ECOLAB", got)
	}
	if got := strings.Join(result.CreatedProjects, ","); got != "Project_Magic_Bullet" {
		t.Errorf("CreatedProjects = %q, want Project_Magic_Bullet", got)
	}
	if len(store.Entries()) != 1 {
		t.Errorf("stored entries = %d, want 1", len(store.Entries()))
	}
}

func TestImportFile_RepeatedNewCustomerCreatedOnce(t *testing.T) {
	store := mocks.NewStore()
	im := newTestImporter(store, 0)

	data := csvFile(
		"41,October,Dev,Dev,New Co,Alpha,,1,2024-10-07",
		"41,October,Dev,Dev, New Co ,Alpha,,2,2024-10-08",
		"41,October,Dev,Dev,New Co,Alpha Beta,,3,2024-10-09",
	)
	result, err := im.ImportFile(context.Background(), "new.csv", data)
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}

	if len(result.Entries) != 3 {
		t.Fatalf("Entries = %d, want 3", len(result.Entries))
	}
	// Defaults plus New Co.
	if store.CustomerCreates != 2 {
		t.Errorf("CustomerCreates = %d, want 2", store.CustomerCreates)
	}
	if len(result.CreatedCustomers) != 1 {
		t.Errorf("CreatedCustomers = %v, want [New Co]", result.CreatedCustomers)
	}
	if got := strings.Join(result.CreatedProjects, ","); got != "Alpha,Alpha_Beta" {
		t.Errorf("CreatedProjects = %q", got)
	}
}

func TestImportFile_FileErrors(t *testing.T) {
	tests := []struct {
		name        string
		fileName    string
		data        []byte
		wantErr     error
		wantContain []string
	}{
		{
			name:        "missing hours column",
			fileName:    "bad.csv",
			data:        []byte("Week Number,Month,Category,Subcategory,Customer,Project,Task Description,Date\n41,October,a,b,c,d,e,2024-10-07\n"),
			wantErr:     ErrMissingColumns,
			wantContain: []string{"Missing required columns", "Hours"},
		},
		{
			name:     "unsupported extension",
			fileName: "report.pdf",
			data:     []byte("anything"),
			wantErr:  ErrUnsupportedFormat,
		},
		{
			name:     "legacy xls",
			fileName: "old.xls",
			data:     []byte("anything"),
			wantErr:  ErrUnsupportedFormat,
		},
		{
			name:     "empty file",
			fileName: "empty.csv",
			data:     []byte("  \n"),
			wantErr:  ErrEmptyFile,
		},
		{
			name:     "corrupt workbook",
			fileName: "broken.xlsx",
			data:     []byte("definitely not a zip archive"),
			wantErr:  ErrCorruptFile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := mocks.NewStore()
			result, err := newTestImporter(store, 0).ImportFile(context.Background(), tt.fileName, tt.data)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if !IsFileError(err) {
				t.Errorf("IsFileError(%v) = false", err)
			}
			if result != nil {
				t.Errorf("result = %+v, want nil", result)
			}
			for _, s := range tt.wantContain {
				if !strings.Contains(err.Error(), s) {
					t.Errorf("error %q does not contain %q", err.Error(), s)
				}
			}
			if len(store.Customers()) != 0 || len(store.Entries()) != 0 {
				t.Error("file error left data behind")
			}
		})
	}
}

func TestImportFile_DataErrorFailsOnlyItsRow(t *testing.T) {
	store := mocks.NewStore()
	store.FailCustomers = map[string]error{
		"Racy Co": fmt.Errorf("%w: customer %q", database.ErrConflict, "Racy Co"),
	}
	im := newTestImporter(store, 0)

	data := csvFile(
		"41,October,Dev,Dev,Acme,Apollo,,1,2024-10-07",
		"41,October,Dev,Dev,Racy Co,Racy_Project,,2,2024-10-07",
		"41,October,Dev,Dev,Acme,Apollo,,3,2024-10-07",
	)
	result, err := im.ImportFile(context.Background(), "mixed.csv", data)
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}

	if len(result.Entries) != 2 {
		t.Errorf("Entries = %d, want 2", len(result.Entries))
	}
	if len(result.ValidationErrors) != 1 {
		t.Fatalf("ValidationErrors = %d, want 1", len(result.ValidationErrors))
	}
	rec := result.ValidationErrors[0]
	if rec.Type != KindRowFailed || rec.Row != 3 {
		t.Errorf("record = %+v, want row_failed on row 3", rec)
	}
	if rec.Entry["Customer"] != "Racy Co" {
		t.Errorf("record entry = %v", rec.Entry)
	}
	if _, err := store.GetProject(context.Background(), "Racy_Project"); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("failed row's project survived the savepoint rollback: %v", err)
	}
}

func TestImportFile_StorageErrorAbortsImport(t *testing.T) {
	store := mocks.NewStore()
	store.FailCustomers = map[string]error{"Down Co": errors.New("connection reset by peer")}
	im := newTestImporter(store, 0)

	data := csvFile(
		"41,October,Dev,Dev,Acme,Apollo,,1,2024-10-07",
		"41,October,Dev,Dev,Down Co,Apollo,,2,2024-10-07",
	)
	_, err := im.ImportFile(context.Background(), "down.csv", data)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "row 3") {
		t.Errorf("error should name the row: %v", err)
	}
	if n := len(store.Customers()); n != 0 {
		t.Errorf("customers after rollback = %d, want 0", n)
	}
	if n := len(store.Entries()); n != 0 {
		t.Errorf("entries after rollback = %d, want 0", n)
	}
}

func TestImportFile_InsertFailureRollsBack(t *testing.T) {
	store := mocks.NewStore()
	store.CreateEntriesErr = errors.New("connection refused")
	im := newTestImporter(store, 0)

	_, err := im.ImportFile(context.Background(), "x.csv", csvFile("41,October,Dev,Dev,Acme,Apollo,,1,2024-10-07"))
	if err == nil {
		t.Fatal("expected error")
	}
	if n := len(store.Customers()); n != 0 {
		t.Errorf("customers after rollback = %d, want 0", n)
	}
}

func TestImportFile_ChunkedInsert(t *testing.T) {
	store := mocks.NewStore()
	im := newTestImporter(store, 2)

	var rows []string
	for i := 1; i <= 5; i++ {
		rows = append(rows, fmt.Sprintf("41,October,Dev,Dev,Acme,Apollo,,%d,2024-10-07", i))
	}
	result, err := im.ImportFile(context.Background(), "five.csv", csvFile(rows...))
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}
	if len(result.Entries) != 5 {
		t.Fatalf("Entries = %d, want 5", len(result.Entries))
	}
	for i, e := range result.Entries {
		if e.Hours != float64(i+1) {
			t.Errorf("entry %d hours = %v, want file order", i, e.Hours)
		}
	}
}

func TestImportFile_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := mocks.NewStore()
	_, err := newTestImporter(store, 0).ImportFile(ctx, "x.csv", csvFile("41,October,Dev,Dev,Acme,Apollo,,1,2024-10-07"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if len(store.Entries()) != 0 {
		t.Error("canceled import stored entries")
	}
}

func TestImportFile_XLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	header := []any{"Week Number", "Month", "Category", "Subcategory", "Customer", "Project", "Task Description", "Hours", "Date"}
	rows := [][]any{
		{nil, nil, "Dev", "Api", "Acme", "Apollo", "Typed date", 7.5, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{41, "October", "Dev", "Api", "-", "-", "Placeholders", 2, "2024-10-07"},
	}
	if err := f.SetSheetRow("Sheet1", "A1", &header); err != nil {
		t.Fatal(err)
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow("Sheet1", cell, &r); err != nil {
			t.Fatal(err)
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatal(err)
	}

	store := mocks.NewStore()
	result, err := newTestImporter(store, 0).ImportFile(context.Background(), "book.xlsx", buf.Bytes())
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}
	if len(result.Entries) != 2 {
		t.Fatalf("Entries = %d, want 2 (errors: %+v)", len(result.Entries), result.ValidationErrors)
	}

	first := result.Entries[0]
	if first.WeekNumber != 3 || first.Month != "January" || first.Hours != 7.5 {
		t.Errorf("first entry = week %d, %s, %v hours", first.WeekNumber, first.Month, first.Hours)
	}
	second := result.Entries[1]
	if deref(second.Customer) != DefaultCustomerName || deref(second.Project) != DefaultProjectID {
		t.Errorf("second entry refs = %q/%q", deref(second.Customer), deref(second.Project))
	}
}

// =============================================================================
// Batches
// =============================================================================

func TestValidateBatch_UnknownReferences(t *testing.T) {
	store := mocks.NewStore()
	store.SeedCustomer("Acme")
	store.SeedProject("Apollo", "Acme")
	im := newTestImporter(store, 0)

	entries := []TimeEntryInput{
		{Customer: strPtr("Acme"), Project: strPtr("Apollo"), Hours: floatPtr(8), Date: "2024-10-07"},
		{Customer: strPtr("NonExistentCustomer"), Project: strPtr("NonExistentProject"), Hours: floatPtr(8), Date: "2024-10-07"},
	}
	drafts, records, err := im.ValidateBatch(context.Background(), entries)
	if err != nil {
		t.Fatalf("ValidateBatch: %v", err)
	}

	if len(drafts) != 1 {
		t.Errorf("valid = %d, want 1", len(drafts))
	}
	if len(records) != 1 {
		t.Fatalf("errors = %d, want 1", len(records))
	}
	if records[0].Type != KindInvalidProjectCustomer {
		t.Errorf("Type = %q, want %q", records[0].Type, KindInvalidProjectCustomer)
	}
	if !strings.Contains(records[0].Error, "NonExistentCustomer") {
		t.Errorf("Error %q does not name the customer", records[0].Error)
	}
	if records[0].Row != 2 {
		t.Errorf("Row = %d, want 2", records[0].Row)
	}
	if store.CustomerCreates != 0 || store.ProjectCreates != 0 {
		t.Error("validation created references")
	}
}

func TestImportEntries(t *testing.T) {
	store := mocks.NewStore()
	store.SeedCustomer("Acme")
	store.SeedCustomer("Globex")
	store.SeedProject("Apollo", "Acme")
	im := newTestImporter(store, 0)

	entries := []TimeEntryInput{
		{Customer: strPtr("Acme"), Project: strPtr("Apollo"), Hours: floatPtr(8), Date: "2024-10-07"},
		{Customer: strPtr("Globex"), Project: strPtr("Apollo"), Hours: floatPtr(2), Date: "2024-10-07"},
		{Customer: strPtr("Acme"), Project: strPtr("Apollo"), Hours: floatPtr(30), Date: "2024-10-07"},
		{Customer: strPtr("Ghost"), Hours: floatPtr(1), Date: "2024-10-07"},
	}
	result, err := im.ImportEntries(context.Background(), entries)
	if err != nil {
		t.Fatalf("ImportEntries: %v", err)
	}

	if len(result.Entries) != 2 {
		t.Fatalf("Entries = %d, want 2", len(result.Entries))
	}
	mismatched := result.Entries[1]
	if mismatched.Customer != nil || mismatched.Project != nil {
		t.Errorf("mismatched entry kept refs %q/%q", deref(mismatched.Customer), deref(mismatched.Project))
	}

	kinds := map[ErrorKind]int{}
	for _, r := range result.ValidationErrors {
		kinds[r.Type]++
	}
	want := map[ErrorKind]int{KindRelationshipMismatch: 1, KindInvalidHours: 1, KindInvalidCustomer: 1}
	for k, n := range want {
		if kinds[k] != n {
			t.Errorf("%s records = %d, want %d (all: %+v)", k, kinds[k], n, result.ValidationErrors)
		}
	}
	if len(store.Entries()) != 2 {
		t.Errorf("stored = %d, want 2", len(store.Entries()))
	}
}

func TestCheckEntries_StoresNothing(t *testing.T) {
	store := mocks.NewStore()
	store.SeedCustomer("Acme")
	im := newTestImporter(store, 0)

	result, err := im.CheckEntries(context.Background(), []TimeEntryInput{
		{Customer: strPtr("Acme"), Hours: floatPtr(4), Date: "2024-10-07"},
		{Customer: strPtr("Acme"), Hours: floatPtr(4)},
	})
	if err != nil {
		t.Fatalf("CheckEntries: %v", err)
	}
	if result.Valid != 1 || result.TotalRows != 2 {
		t.Errorf("Valid/TotalRows = %d/%d, want 1/2", result.Valid, result.TotalRows)
	}
	if len(result.ValidationErrors) != 1 || result.ValidationErrors[0].Type != KindMissingField {
		t.Errorf("ValidationErrors = %+v", result.ValidationErrors)
	}
	if len(result.Entries) != 0 || len(store.Entries()) != 0 {
		t.Error("CheckEntries stored entries")
	}
}
