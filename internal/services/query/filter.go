package query

import (
	"strings"
	"time"

	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/storage"
)

// categoryExtensions expands high-level file type tokens.
var categoryExtensions = map[string][]string{
	"audio":    {".mp3", ".wav", ".flac", ".aac"},
	"image":    {".jpg", ".png", ".gif", ".webp"},
	"video":    {".mp4", ".avi", ".mkv", ".webm"},
	"document": {".pdf", ".docx", ".txt", ".md"},
}

// Build translates list parameters into a catalog filter.
//
// fileTypeTokens is a comma-separated list of categories ("audio", "image",
// "video", "document") and/or literal extensions; tokens are trimmed and
// lower-cased, and literal extensions get a leading dot if they lack one.
// minCreated is truncated to midnight UTC of its calendar day.
func Build(search, fileTypeTokens string, minCreated *time.Time) storage.Filter {
	f := storage.Filter{
		Search:     search,
		Extensions: expandTokens(fileTypeTokens),
	}
	if minCreated != nil {
		day := StartOfDayUTC(*minCreated)
		f.MinCreated = &day
	}
	return f
}

// expandTokens returns nil when there are no tokens at all.
func expandTokens(raw string) []string {
	var exts []string
	seen := make(map[string]bool)
	add := func(ext string) {
		if !seen[ext] {
			seen[ext] = true
			exts = append(exts, ext)
		}
	}

	for _, token := range strings.Split(raw, ",") {
		token = strings.ToLower(strings.TrimSpace(token))
		if token == "" {
			continue
		}
		if category, ok := categoryExtensions[token]; ok {
			for _, ext := range category {
				add(ext)
			}
			continue
		}
		add(NormalizeExtension(token))
	}
	return exts
}

// NormalizeExtension lower-cases ext and makes sure it starts with a dot.
func NormalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// StartOfDayUTC returns 00:00:00 UTC on t's calendar date.
func StartOfDayUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
