// Package synthesis turns one article body into one WAV file: split the
// text under the provider byte ceiling, synthesize the chunks in order,
// then merge the buffers into a single continuous stream.
package synthesis
