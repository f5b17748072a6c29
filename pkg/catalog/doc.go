// Package catalog serves the read-only eReserve dataset.
//
// The dataset is one JSON document whose top-level keys hold the
// collections (schools, units, unitOfferings, ...). A Repository decodes the
// document once and is never modified afterwards; a Store swaps in a fresh
// Repository when the document is reloaded, either on demand, from a
// Watcher (local files) or from a cron Scheduler (any source).
//
// Documents can come from the local filesystem or from S3:
//
//	src, err := catalog.NewSource(ctx, "s3://fixtures/ereserve.json", catalog.S3Config{Region: "us-east-1"})
//	store, err := catalog.NewStore(ctx, src)
//	page, err := store.Current().GetAllPaginated(catalog.Readings, 2, 100)
//
// Record ids are compared in canonical string form, so a numeric id 7 is
// found by the path segment "7".
package catalog
