// Package logging wires log/slog with the handlers, attribute helpers, and
// context plumbing shared across the pipeline. Console output targets
// humans tailing a run; JSON output targets log files.
package logging
