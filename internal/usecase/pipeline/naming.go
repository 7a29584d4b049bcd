package pipeline

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	slugUnsafe   = regexp.MustCompile(`[^a-z0-9]+`)
	slugCollapse = regexp.MustCompile(`_+`)
)

// Slugify makes a short, URL-safe slug from a filename (extension stripped).
func Slugify(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	base = strings.ToLower(strings.TrimSpace(base))
	base = slugUnsafe.ReplaceAllString(base, "_")
	base = strings.Trim(slugCollapse.ReplaceAllString(base, "_"), "_")
	if base == "" {
		base = "conversation"
	}
	if len(base) > 20 {
		base = base[:20]
	}
	return base
}

// FriendlyRunName builds "<slug>_<YYYYMMDD>_<HHMMSS>_<shortid>". The
// timestamp plus random suffix makes collisions across concurrent runs
// practically impossible without locking.
func FriendlyRunName(originalFilename string) string {
	slug := Slugify(originalFilename)
	ts := time.Now().Format("20060102_150405")
	shortid := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return slug + "_" + ts + "_" + shortid
}
