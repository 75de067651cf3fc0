// Package hls packages a WAV file into an HLS rendition (playlist plus
// transport-stream segments) by shelling out to ffmpeg.
package hls
