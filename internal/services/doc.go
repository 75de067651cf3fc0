// Package services provides the shared error taxonomy and context
// annotation used by every external-service adapter in the pipeline.
package services
