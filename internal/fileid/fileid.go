// Package fileid derives stable source identifiers for catalog files.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
)

const prefix = "catalog:"

// SourceID returns a stable source identifier for the given catalog file path.
// Categories imported from a file carry its SourceID so that re-importing or removing
// the file replaces or removes exactly those categories.
func SourceID(absolutePath string) string {
	normalized := filepath.Clean(absolutePath)
	hash := sha256.Sum256([]byte(normalized))
	return prefix + hex.EncodeToString(hash[:])
}

// IsSourceID reports whether id was produced by SourceID.
func IsSourceID(id string) bool {
	return strings.HasPrefix(id, prefix) && len(id) == len(prefix)+2*sha256.Size
}
