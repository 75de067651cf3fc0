// Command briefcast is the CLI for the article publishing pipeline: it
// queues reviewed articles, drives them through translation, synthesis,
// packaging, and upload, and reports their progress.
package main
