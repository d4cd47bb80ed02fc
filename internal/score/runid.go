package score

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// RunID identifies one mutation-testing run. IDs generated later sort
// lexically after IDs generated earlier, so the newest run for a module
// can be picked without relying on file modification times.
type RunID string

// NewRunID returns a fresh run identifier: a UTC timestamp plus a short
// random suffix to break ties within the same second.
func NewRunID() RunID {
	ts := time.Now().UTC().Format("20060102T150405Z")
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return RunID(ts + "-" + suffix)
}

func (id RunID) String() string { return string(id) }
