// Package core provides the business logic of the timesheet backend.
//
// It holds everything between the transport layer and storage: reference
// resolution, row materialization, batch imports, CRUD for the four
// entities, and the weekly and monthly reports. It is used by the HTTP
// handlers, the CLI and the drop-directory watcher without modification.
//
// # Reference Policies
//
// A time entry points at a customer and a project by name. How unknown names
// are handled depends on the caller, which picks one [ReferencePolicy]:
//
//   - [AutoCreate]: used by file imports and single-entry creation. Unknown
//     customers and projects are created; absent ones fall back to the
//     "Unassigned" customer and the "General" project.
//   - [ValidateOnly]: used by bulk JSON batches. Nothing is created. Unknown
//     references exclude the entry and a project owned by another customer
//     nulls both references.
//
// # Imports
//
// [Importer.ImportFile] reads CSV or XLSX through the tabular package and
// runs every row through a [Materializer]:
//
//  1. The whole file must carry [RequiredFileColumns] or nothing is stored
//  2. Rows with unusable hours are skipped silently
//  3. Each remaining row resolves its references inside its own savepoint
//  4. Drafts are inserted in chunks of [DefaultBatchSize]
//
// Bulk batches go through [Importer.ImportEntries], which reports bad hours
// as invalid_hours records instead of skipping them. Concurrent imports are
// bounded by an [ImportLimiter].
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - DB001-DB008: Database errors (duplicates, constraints, connections)
//   - VAL001-VAL008: Validation errors (formats, missing columns, fields)
//   - FILE001-FILE006: File errors (size, encoding, format)
//   - IMP001-IMP003: Import errors (cancelled, busy, timeout)
package core
