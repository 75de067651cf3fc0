// Package tts wraps the external speech-synthesis API. One call produces
// one WAV buffer for one bounded chunk of text.
package tts
