package keys

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"motostats/internal/models"
)

const (
	snapshotPrefix = "snapshots"
	reportPrefix   = "reports"
)

// sanitizeKey replaces spaces and path separators with hyphens and lowercases the string.
func sanitizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "-", "/", "-", "\\", "-").Replace(s)
	if s == "" {
		return "unknown"
	}
	return s
}

// searchName derives a readable key segment from a search url, e.g.
// https://www.otomoto.pl/osobowe/audi/a4?search=1 -> osobowe-audi-a4.
func searchName(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" || u.Path == "/" {
		return "unknown"
	}
	return sanitizeKey(strings.Trim(u.Path, "/"))
}

// Snapshot returns the canonical object key for a scraped snapshot.
func Snapshot(s models.Snapshot) string {
	return fmt.Sprintf("%s/%s/%s.json.zst", snapshotPrefix, searchName(s.URL), s.ID)
}

// Report returns the object key of the report built from the snapshot stored under snapshotKey.
func Report(snapshotKey string) string {
	base := strings.TrimSuffix(path.Base(snapshotKey), ".json.zst")
	dir := strings.TrimPrefix(path.Dir(snapshotKey), snapshotPrefix+"/")
	return fmt.Sprintf("%s/%s/%s.json", reportPrefix, dir, base)
}

// IsSnapshot reports whether key points at a snapshot object.
func IsSnapshot(key string) bool {
	return strings.HasPrefix(key, snapshotPrefix+"/") && strings.HasSuffix(key, ".json.zst")
}
