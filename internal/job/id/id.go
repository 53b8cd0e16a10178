// Package id provides unique identifier generation for jobs.
package id

import (
	"strings"

	"github.com/oklog/ulid/v2"
)

// Prefix is prepended to every generated job ID.
const Prefix = "job-"

// Generate creates a new unique, lexically sortable job ID.
// Format: job-<lowercase ulid>
// Example: job-01hf3q9x8b6v2k4m7n0p5r1s3t
func Generate() string {
	return Prefix + strings.ToLower(ulid.Make().String())
}
