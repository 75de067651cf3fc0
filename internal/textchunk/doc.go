// Package textchunk splits article bodies into byte-bounded chunks for
// speech synthesis, preferring paragraph and sentence boundaries.
package textchunk
