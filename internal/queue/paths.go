package queue

import (
	"fmt"
	"path/filepath"
	"strings"

	"dugout/internal/textutil"
)

// StagingRoot returns the per-item staging directory rooted at base. The
// segment combines the sanitized clip title with the item ID so concurrent
// items with the same title never collide.
func (i Item) StagingRoot(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return ""
	}
	segment := sanitizeSegment(i.ClipTitle)
	if segment == "" {
		segment = fmt.Sprintf("clip-%d", i.ID)
	} else {
		segment = fmt.Sprintf("%s-%d", segment, i.ID)
	}
	return filepath.Join(base, segment)
}

func sanitizeSegment(value string) string {
	value = textutil.SanitizeFileName(value)
	if value == "" {
		return ""
	}
	value = strings.ReplaceAll(value, " ", "-")
	value = strings.Trim(value, "-_")
	return value
}
