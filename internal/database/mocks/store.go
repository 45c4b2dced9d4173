// Package mocks provides an in-memory database.Store for tests.
package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/timesheet/internal/database"
)

// Store is an in-memory database.Store. Unique keys, foreign keys and
// nested transactions (savepoints) behave like the PostgreSQL store.
// Set the *Err fields to inject failures.
type Store struct {
	mu    sync.Mutex
	state *state

	GetErr            error
	CreateCustomerErr error
	CreateProjectErr  error
	CreateEntriesErr  error
	// FailCustomers fails CreateCustomer for specific names.
	FailCustomers map[string]error
	// AfterSummarize runs once SummarizeHours has read its rows, outside
	// the store lock.
	AfterSummarize func()

	CustomerCreates int
	ProjectCreates  int
	Lookups         int
	Commits         int
	Rollbacks       int
}

type state struct {
	nextID    int64
	customers map[string]database.Customer
	managers  map[string]database.ProjectManager
	projects  map[string]database.Project
	entries   []database.TimeEntry
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{state: &state{
		customers: map[string]database.Customer{},
		managers:  map[string]database.ProjectManager{},
		projects:  map[string]database.Project{},
	}}
}

var _ database.Store = (*Store)(nil)

func (s *state) clone() *state {
	c := &state{
		nextID:    s.nextID,
		customers: make(map[string]database.Customer, len(s.customers)),
		managers:  make(map[string]database.ProjectManager, len(s.managers)),
		projects:  make(map[string]database.Project, len(s.projects)),
		entries:   append([]database.TimeEntry(nil), s.entries...),
	}
	for k, v := range s.customers {
		c.customers[k] = v
	}
	for k, v := range s.managers {
		c.managers[k] = v
	}
	for k, v := range s.projects {
		c.projects[k] = v
	}
	return c
}

func (s *state) id() int64 {
	s.nextID++
	return s.nextID
}

// InTx snapshots state and restores it when fn fails.
func (s *Store) InTx(ctx context.Context, fn func(database.Store) error) error {
	s.mu.Lock()
	snap := s.state.clone()
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.state = snap
		s.Rollbacks++
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.Commits++
	s.mu.Unlock()
	return nil
}

// SeedCustomer inserts a customer directly.
func (s *Store) SeedCustomer(name string) {
	_, _ = s.CreateCustomer(context.Background(), database.CreateCustomerParams{Name: name})
	s.mu.Lock()
	s.CustomerCreates--
	s.mu.Unlock()
}

// SeedProject inserts a project directly. customer may be empty.
func (s *Store) SeedProject(projectID, customer string) {
	p := database.CreateProjectParams{ProjectID: projectID, Name: projectID}
	if customer != "" {
		p.Customer = &customer
	}
	_, _ = s.CreateProject(context.Background(), p)
	s.mu.Lock()
	s.ProjectCreates--
	s.mu.Unlock()
}

// Customers returns all customers sorted by name.
func (s *Store) Customers() []database.Customer {
	out, _ := s.ListCustomers(context.Background(), database.ListParams{Limit: 1 << 30})
	return out
}

// Projects returns all projects sorted by id.
func (s *Store) Projects() []database.Project {
	out, _ := s.ListProjects(context.Background(), database.ListProjectsParams{Limit: 1 << 30})
	return out
}

// Entries returns all time entries in insertion order.
func (s *Store) Entries() []database.TimeEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]database.TimeEntry(nil), s.state.entries...)
}

func page[T any](items []T, offset, limit int32) []T {
	if offset < 0 {
		offset = 0
	}
	if int(offset) >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit >= 0 && int(limit) < len(items) {
		items = items[:limit]
	}
	return items
}

// ============================================================================
// Customers
// ============================================================================

func (s *Store) GetCustomer(ctx context.Context, name string) (database.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Lookups++
	if s.GetErr != nil {
		return database.Customer{}, s.GetErr
	}
	c, ok := s.state.customers[name]
	if !ok {
		return database.Customer{}, database.ErrNotFound
	}
	return c, nil
}

func (s *Store) ListCustomers(ctx context.Context, arg database.ListParams) ([]database.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]database.Customer, 0, len(s.state.customers))
	for _, c := range s.state.customers {
		items = append(items, c)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return page(items, arg.Offset, arg.Limit), nil
}

func (s *Store) CreateCustomer(ctx context.Context, arg database.CreateCustomerParams) (database.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateCustomerErr != nil {
		return database.Customer{}, s.CreateCustomerErr
	}
	if err := s.FailCustomers[arg.Name]; err != nil {
		return database.Customer{}, err
	}
	if _, exists := s.state.customers[arg.Name]; exists {
		return database.Customer{}, fmt.Errorf("%w: customer %q", database.ErrConflict, arg.Name)
	}
	status := arg.Status
	if status == "" {
		status = "active"
	}
	c := database.Customer{
		ID:           s.state.id(),
		Name:         arg.Name,
		ContactEmail: arg.ContactEmail,
		Industry:     arg.Industry,
		Status:       status,
		Address:      arg.Address,
		Phone:        arg.Phone,
		CreatedAt:    time.Now().UTC(),
	}
	s.state.customers[arg.Name] = c
	s.CustomerCreates++
	return c, nil
}

func (s *Store) UpdateCustomer(ctx context.Context, arg database.UpdateCustomerParams) (database.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.state.customers[arg.Key]
	if !ok {
		return database.Customer{}, database.ErrNotFound
	}
	if arg.Name != arg.Key {
		if _, taken := s.state.customers[arg.Name]; taken {
			return database.Customer{}, fmt.Errorf("%w: customer %q", database.ErrConflict, arg.Name)
		}
		delete(s.state.customers, arg.Key)
		s.renameCustomer(arg.Key, arg.Name)
	}
	now := time.Now().UTC()
	c.Name, c.ContactEmail, c.Industry, c.Status = arg.Name, arg.ContactEmail, arg.Industry, arg.Status
	c.Address, c.Phone, c.UpdatedAt = arg.Address, arg.Phone, &now
	s.state.customers[c.Name] = c
	return c, nil
}

// renameCustomer mirrors ON UPDATE CASCADE.
func (s *Store) renameCustomer(from, to string) {
	for k, p := range s.state.projects {
		if p.Customer != nil && *p.Customer == from {
			p.Customer = &to
			s.state.projects[k] = p
		}
	}
	for i, e := range s.state.entries {
		if e.Customer != nil && *e.Customer == from {
			s.state.entries[i].Customer = &to
		}
	}
}

func (s *Store) DeleteCustomer(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state.customers[name]; !ok {
		return database.ErrNotFound
	}
	delete(s.state.customers, name)
	// ON DELETE SET NULL
	for k, p := range s.state.projects {
		if p.Customer != nil && *p.Customer == name {
			p.Customer = nil
			s.state.projects[k] = p
		}
	}
	for i, e := range s.state.entries {
		if e.Customer != nil && *e.Customer == name {
			s.state.entries[i].Customer = nil
		}
	}
	return nil
}

// ============================================================================
// Project managers
// ============================================================================

func (s *Store) GetProjectManager(ctx context.Context, name string) (database.ProjectManager, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.GetErr != nil {
		return database.ProjectManager{}, s.GetErr
	}
	pm, ok := s.state.managers[name]
	if !ok {
		return database.ProjectManager{}, database.ErrNotFound
	}
	return pm, nil
}

func (s *Store) ListProjectManagers(ctx context.Context, arg database.ListParams) ([]database.ProjectManager, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]database.ProjectManager, 0, len(s.state.managers))
	for _, pm := range s.state.managers {
		items = append(items, pm)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return page(items, arg.Offset, arg.Limit), nil
}

func (s *Store) emailTaken(email, except string) bool {
	for name, pm := range s.state.managers {
		if pm.Email == email && name != except {
			return true
		}
	}
	return false
}

func (s *Store) CreateProjectManager(ctx context.Context, arg database.CreateProjectManagerParams) (database.ProjectManager, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.state.managers[arg.Name]; exists || s.emailTaken(arg.Email, "") {
		return database.ProjectManager{}, fmt.Errorf("%w: project manager %q", database.ErrConflict, arg.Name)
	}
	pm := database.ProjectManager{ID: s.state.id(), Name: arg.Name, Email: arg.Email, CreatedAt: time.Now().UTC()}
	s.state.managers[arg.Name] = pm
	return pm, nil
}

func (s *Store) UpdateProjectManager(ctx context.Context, arg database.UpdateProjectManagerParams) (database.ProjectManager, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pm, ok := s.state.managers[arg.Key]
	if !ok {
		return database.ProjectManager{}, database.ErrNotFound
	}
	if s.emailTaken(arg.Email, arg.Key) {
		return database.ProjectManager{}, fmt.Errorf("%w: email %q", database.ErrConflict, arg.Email)
	}
	if arg.Name != arg.Key {
		if _, taken := s.state.managers[arg.Name]; taken {
			return database.ProjectManager{}, fmt.Errorf("%w: project manager %q", database.ErrConflict, arg.Name)
		}
		delete(s.state.managers, arg.Key)
		for k, p := range s.state.projects {
			if p.ProjectManager != nil && *p.ProjectManager == arg.Key {
				name := arg.Name
				p.ProjectManager = &name
				s.state.projects[k] = p
			}
		}
	}
	now := time.Now().UTC()
	pm.Name, pm.Email, pm.UpdatedAt = arg.Name, arg.Email, &now
	s.state.managers[pm.Name] = pm
	return pm, nil
}

func (s *Store) DeleteProjectManager(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state.managers[name]; !ok {
		return database.ErrNotFound
	}
	delete(s.state.managers, name)
	for k, p := range s.state.projects {
		if p.ProjectManager != nil && *p.ProjectManager == name {
			p.ProjectManager = nil
			s.state.projects[k] = p
		}
	}
	return nil
}

// ============================================================================
// Projects
// ============================================================================

func (s *Store) GetProject(ctx context.Context, projectID string) (database.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Lookups++
	if s.GetErr != nil {
		return database.Project{}, s.GetErr
	}
	p, ok := s.state.projects[projectID]
	if !ok {
		return database.Project{}, database.ErrNotFound
	}
	return p, nil
}

func (s *Store) ListProjects(ctx context.Context, arg database.ListProjectsParams) ([]database.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]database.Project, 0, len(s.state.projects))
	for _, p := range s.state.projects {
		if arg.Customer != nil && (p.Customer == nil || *p.Customer != *arg.Customer) {
			continue
		}
		if arg.ProjectManager != nil && (p.ProjectManager == nil || *p.ProjectManager != *arg.ProjectManager) {
			continue
		}
		items = append(items, p)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ProjectID < items[j].ProjectID })
	return page(items, arg.Offset, arg.Limit), nil
}

func (s *Store) checkProjectRefs(customer, manager *string) error {
	if customer != nil {
		if _, ok := s.state.customers[*customer]; !ok {
			return fmt.Errorf("%w: customer %q", database.ErrReference, *customer)
		}
	}
	if manager != nil {
		if _, ok := s.state.managers[*manager]; !ok {
			return fmt.Errorf("%w: project manager %q", database.ErrReference, *manager)
		}
	}
	return nil
}

func (s *Store) CreateProject(ctx context.Context, arg database.CreateProjectParams) (database.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateProjectErr != nil {
		return database.Project{}, s.CreateProjectErr
	}
	if _, exists := s.state.projects[arg.ProjectID]; exists {
		return database.Project{}, fmt.Errorf("%w: project %q", database.ErrConflict, arg.ProjectID)
	}
	if err := s.checkProjectRefs(arg.Customer, arg.ProjectManager); err != nil {
		return database.Project{}, err
	}
	status := arg.Status
	if status == "" {
		status = "active"
	}
	p := database.Project{
		ID:             s.state.id(),
		ProjectID:      arg.ProjectID,
		Name:           arg.Name,
		Description:    arg.Description,
		Customer:       arg.Customer,
		ProjectManager: arg.ProjectManager,
		Status:         status,
		CreatedAt:      time.Now().UTC(),
	}
	s.state.projects[arg.ProjectID] = p
	s.ProjectCreates++
	return p, nil
}

func (s *Store) UpdateProject(ctx context.Context, arg database.UpdateProjectParams) (database.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.state.projects[arg.Key]
	if !ok {
		return database.Project{}, database.ErrNotFound
	}
	if err := s.checkProjectRefs(arg.Customer, arg.ProjectManager); err != nil {
		return database.Project{}, err
	}
	if arg.ProjectID != arg.Key {
		if _, taken := s.state.projects[arg.ProjectID]; taken {
			return database.Project{}, fmt.Errorf("%w: project %q", database.ErrConflict, arg.ProjectID)
		}
		delete(s.state.projects, arg.Key)
		for i, e := range s.state.entries {
			if e.Project != nil && *e.Project == arg.Key {
				id := arg.ProjectID
				s.state.entries[i].Project = &id
			}
		}
	}
	now := time.Now().UTC()
	p.ProjectID, p.Name, p.Description = arg.ProjectID, arg.Name, arg.Description
	p.Customer, p.ProjectManager, p.Status, p.UpdatedAt = arg.Customer, arg.ProjectManager, arg.Status, &now
	s.state.projects[p.ProjectID] = p
	return p, nil
}

func (s *Store) DeleteProject(ctx context.Context, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state.projects[projectID]; !ok {
		return database.ErrNotFound
	}
	delete(s.state.projects, projectID)
	for i, e := range s.state.entries {
		if e.Project != nil && *e.Project == projectID {
			s.state.entries[i].Project = nil
		}
	}
	return nil
}

// ============================================================================
// Time entries
// ============================================================================

func (s *Store) GetTimeEntry(ctx context.Context, id int64) (database.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.state.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return database.TimeEntry{}, database.ErrNotFound
}

func inRange(d, start, end pgtype.Date) bool {
	if start.Valid && d.Time.Before(start.Time) {
		return false
	}
	if end.Valid && d.Time.After(end.Time) {
		return false
	}
	return true
}

func (s *Store) ListTimeEntries(ctx context.Context, arg database.ListTimeEntriesParams) ([]database.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := []database.TimeEntry{}
	for _, e := range s.state.entries {
		if arg.Project != nil && (e.Project == nil || *e.Project != *arg.Project) {
			continue
		}
		if arg.Customer != nil && (e.Customer == nil || *e.Customer != *arg.Customer) {
			continue
		}
		if !inRange(e.Date, arg.StartDate, arg.EndDate) {
			continue
		}
		items = append(items, e)
	}
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].Date.Time.Equal(items[j].Date.Time) {
			return items[i].Date.Time.After(items[j].Date.Time)
		}
		return items[i].ID > items[j].ID
	})
	return page(items, arg.Offset, arg.Limit), nil
}

func (s *Store) insertEntry(arg database.CreateTimeEntryParams) (database.TimeEntry, error) {
	if arg.Customer != nil {
		if _, ok := s.state.customers[*arg.Customer]; !ok {
			return database.TimeEntry{}, fmt.Errorf("%w: customer %q", database.ErrReference, *arg.Customer)
		}
	}
	if arg.Project != nil {
		if _, ok := s.state.projects[*arg.Project]; !ok {
			return database.TimeEntry{}, fmt.Errorf("%w: project %q", database.ErrReference, *arg.Project)
		}
	}
	if arg.Hours < 0 || arg.Hours > 24 || arg.WeekNumber < 1 || arg.WeekNumber > 53 || !arg.Date.Valid {
		return database.TimeEntry{}, fmt.Errorf("%w: time entry", database.ErrInvalid)
	}
	e := database.TimeEntry{
		ID:              s.state.id(),
		WeekNumber:      arg.WeekNumber,
		Month:           arg.Month,
		Category:        arg.Category,
		Subcategory:     arg.Subcategory,
		Customer:        arg.Customer,
		Project:         arg.Project,
		TaskDescription: arg.TaskDescription,
		Hours:           arg.Hours,
		Date:            arg.Date,
		CreatedAt:       time.Now().UTC(),
	}
	s.state.entries = append(s.state.entries, e)
	return e, nil
}

func (s *Store) CreateTimeEntry(ctx context.Context, arg database.CreateTimeEntryParams) (database.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateEntriesErr != nil {
		return database.TimeEntry{}, s.CreateEntriesErr
	}
	return s.insertEntry(arg)
}

func (s *Store) CreateTimeEntries(ctx context.Context, args []database.CreateTimeEntryParams) ([]database.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateEntriesErr != nil {
		return nil, s.CreateEntriesErr
	}
	out := make([]database.TimeEntry, 0, len(args))
	for i, arg := range args {
		e, err := s.insertEntry(arg)
		if err != nil {
			return nil, fmt.Errorf("insert entry %d of %d: %w", i+1, len(args), err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *Store) UpdateTimeEntry(ctx context.Context, arg database.UpdateTimeEntryParams) (database.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.state.entries {
		if e.ID != arg.ID {
			continue
		}
		updated, err := s.insertEntry(arg.CreateTimeEntryParams)
		if err != nil {
			return database.TimeEntry{}, err
		}
		// insertEntry appended a copy; fold it back into place.
		s.state.entries = s.state.entries[:len(s.state.entries)-1]
		now := time.Now().UTC()
		updated.ID, updated.CreatedAt, updated.UpdatedAt = e.ID, e.CreatedAt, &now
		s.state.entries[i] = updated
		return updated, nil
	}
	return database.TimeEntry{}, database.ErrNotFound
}

func (s *Store) DeleteTimeEntry(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.state.entries {
		if e.ID == id {
			s.state.entries = append(s.state.entries[:i], s.state.entries[i+1:]...)
			return nil
		}
	}
	return database.ErrNotFound
}

func (s *Store) SummarizeHours(ctx context.Context, start, end pgtype.Date) ([]database.HoursSummaryRow, error) {
	rows := s.summarize(start, end)
	if s.AfterSummarize != nil {
		s.AfterSummarize()
	}
	return rows, nil
}

func (s *Store) summarize(start, end pgtype.Date) []database.HoursSummaryRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	type key struct{ project, customer string }
	deref := func(p *string) string {
		if p == nil {
			return "\x00"
		}
		return *p
	}
	totals := map[key]*database.HoursSummaryRow{}
	var order []key
	for _, e := range s.state.entries {
		if !inRange(e.Date, start, end) {
			continue
		}
		k := key{deref(e.Project), deref(e.Customer)}
		row, ok := totals[k]
		if !ok {
			row = &database.HoursSummaryRow{Project: e.Project, Customer: e.Customer}
			totals[k] = row
			order = append(order, k)
		}
		row.TotalHours += e.Hours
	}
	out := make([]database.HoursSummaryRow, 0, len(order))
	for _, k := range order {
		out = append(out, *totals[k])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalHours > out[j].TotalHours })
	return out
}
