// Package wavutil merges synthesized WAV buffers into a single playable
// file by stripping redundant headers and correcting RIFF size fields.
package wavutil
