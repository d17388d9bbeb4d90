// Package uid generates the opaque identifiers stored in the document.
// IDs are a short type prefix plus a UUIDv7, so they sort roughly by
// creation time and stay readable in exported backups.
package uid

import (
	"strings"

	"github.com/google/uuid"
)

// New returns prefix_<uuidv7>. An empty prefix yields the bare UUID.
func New(prefix string) string {
	id := uuid.Must(uuid.NewV7()).String()
	if prefix == "" {
		return id
	}
	return prefix + "_" + id
}

// HasPrefix reports whether id was generated with the given prefix.
func HasPrefix(id, prefix string) bool {
	return strings.HasPrefix(id, prefix+"_")
}
