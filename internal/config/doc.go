// Package config loads, validates, and normalizes briefcast configuration.
// Values come from a TOML file with env-var overrides for secrets.
package config
