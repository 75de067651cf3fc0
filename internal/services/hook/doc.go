// Package hook generates short social-media hooks for published articles
// via an OpenAI-compatible chat completions API.
package hook
