// Package content is the content repository of the site: the only code that
// reads and writes raw store documents.
//
// The store is schema-less and has seen the same logical field persisted with
// different types over time. In particular a service's isActive flag has been
// written as a boolean, a string ("TRUE", "false"), a number, or not at all.
// This package keeps the rest of the application on canonical types:
//
//   - reads decode every document through [github.com/surrealdb/sitecontent/pkg/coerce],
//     so drifted values never surface as errors;
//   - writes store canonical types only, reject invalid SVG icons with a
//     [ValidationError], and stamp updatedAt;
//   - [Services.ListActive] filters on the coerced flag rather than the
//     store's native filter, which misses drifted values;
//   - [Services.Repair] backfills drifted documents in place and is safe to
//     run repeatedly;
//   - [Services.AuditActive] measures how far the native filter is off.
//
// Ordered collections use [Repository]. The company and contact documents are
// [Singleton] values with full-overwrite semantics.
//
// Every call runs under a timeout (DefaultTimeout unless configured). Store
// failures surface once as [StoreUnavailableError]; nothing is retried.
package content
