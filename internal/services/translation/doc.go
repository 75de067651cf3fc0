// Package translation wraps the external machine-translation API.
package translation
