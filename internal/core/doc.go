// Package core provides the CSV export and import pipelines of the admin.
//
// The package sits between the transports (web handlers, the scentctl CLI)
// and the backend REST client. It knows nothing about HTTP requests or
// terminals, so the same [Service] is driven by both.
//
// # Export
//
// An export counts the entity's records, splits them into batches of
// [Config.BatchSize] and fetches the batches one at a time in ascending
// order, pausing [Config.Delay] between requests:
//
//	plan, _ := svc.Plan(ctx, "perfumes")       // batch descriptors for the picker
//	dl, err := svc.ExportAll(ctx, "perfumes", onProgress)
//	dl, err := svc.ExportSelected(ctx, "perfumes", []int{1, 3}, onProgress)
//
// Rows are rendered with the entity's column list and assembled into one
// BOM-prefixed document. A failed batch aborts the whole export; no partial
// file is ever produced.
//
// The web UI runs exports in the background with [Service.StartExportAll]
// and [Service.StartExportSelected]. Progress is streamed with
// [Service.Subscribe] and the finished file is handed out once by
// [Service.TakeDownload]. A job belongs to the session token that started
// it; other tokens get [ErrJobNotFound].
//
// # Import
//
// [Service.ImportFromReader] reads an upload with a size limit and UTF-8
// sanitization, parses it, maps each data row onto the entity's columns by
// position and posts every surviving record in a single request. Rows with
// an empty required column are skipped.
//
// # Concurrency
//
// [BusyGuard] allows one operation per entity and caps the number of
// concurrent operations overall. A second trigger for a busy entity fails
// with [ErrOperationBusy] and leaves the running job untouched.
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages with [MapError]. Each
// category carries a code for support reference:
//
//   - AUTH001-AUTH002: Session and login errors
//   - API001-API007: Backend errors (validation, conflicts, outages)
//   - EXP001-EXP007: Export errors (nothing to export, batch selection)
//   - IMP001-IMP004: Import errors (empty file, no valid records, size)
//
// Every job, successful or not, is recorded in the history store.
package core
