// Package content persists article records and per-language stage attempts
// in SQLite. One row exists per (article, language); the source-language
// row carries the canonical pipeline stage.
package content
