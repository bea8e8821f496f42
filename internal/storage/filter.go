package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/models"
	"github.com/lib/pq"
)

// Filter is a catalog predicate. Zero-valued fields impose no constraint and
// all set fields combine with AND.
type Filter struct {
	// Search is a case-insensitive literal substring of name or file path.
	Search string
	// Extensions are lower-case, dot-prefixed. Nil means any extension.
	Extensions []string
	// MinCreated is an inclusive lower bound on TimeCreated.
	MinCreated *time.Time
}

// Matches evaluates the filter in memory.
func (f Filter) Matches(r models.FileRecord) bool {
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(r.Name), needle) &&
			!strings.Contains(strings.ToLower(r.FilePath), needle) {
			return false
		}
	}

	if f.Extensions != nil {
		ext := strings.ToLower(r.FileType)
		found := false
		for _, e := range f.Extensions {
			if e == ext {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if f.MinCreated != nil && r.TimeCreated.Before(*f.MinCreated) {
		return false
	}

	return true
}

// likeEscaper escapes LIKE metacharacters so user input matches literally.
// The backslash goes first so escapes added for the others are not doubled.
var likeEscaper = strings.NewReplacer(
	`\`, `\\`,
	`%`, `\%`,
	`_`, `\_`,
	`[`, `\[`,
)

// EscapeLike escapes s for use inside a LIKE pattern with ESCAPE '\'.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// buildFilterWhere builds the WHERE clause and its arguments for f.
// startArg is the number of the first $-placeholder.
func buildFilterWhere(f Filter, startArg int) (string, []any) {
	var conditions []string
	var args []any
	argNum := startArg

	if f.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			`(name ILIKE $%d ESCAPE '\' OR file_path ILIKE $%d ESCAPE '\')`, argNum, argNum))
		args = append(args, "%"+EscapeLike(f.Search)+"%")
		argNum++
	}

	if f.Extensions != nil {
		conditions = append(conditions, fmt.Sprintf("LOWER(file_type) = ANY($%d)", argNum))
		args = append(args, pq.Array(f.Extensions))
		argNum++
	}

	if f.MinCreated != nil {
		conditions = append(conditions, fmt.Sprintf("time_created >= $%d", argNum))
		args = append(args, f.MinCreated.UTC())
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}
