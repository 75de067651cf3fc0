// Package pipeline drives articles through the publishing stage chain.
//
// The stage graph is a fixed linear chain described by a static transition
// table. For each step the executor fans out across the article's required
// languages, records per-language outcomes, and advances the canonical
// stage only when every language carries the stage's artifact. The engine
// layers single-item and batch scheduling on top of the executor.
package pipeline
