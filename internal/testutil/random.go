package testutil

import (
	"strings"

	"github.com/google/uuid"
)

// RandomSlug returns prefix followed by a short random suffix.
func RandomSlug(prefix string) string {
	return prefix + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
