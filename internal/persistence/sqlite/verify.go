package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// CorruptionError carries the rows SQLite reported for a failed check.
type CorruptionError struct {
	Findings []string
}

func (e *CorruptionError) Error() string {
	return "sqlite: integrity check failed: " + strings.Join(e.Findings, "; ")
}

// Check runs PRAGMA quick_check, or integrity_check when thorough is set.
// A healthy database yields nil; corruption yields a *CorruptionError.
func Check(ctx context.Context, db *sql.DB, thorough bool) error {
	pragma := "PRAGMA quick_check"
	if thorough {
		pragma = "PRAGMA integrity_check"
	}

	rows, err := db.QueryContext(ctx, pragma)
	if err != nil {
		return fmt.Errorf("sqlite: %s: %w", pragma, err)
	}
	defer rows.Close()

	var findings []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return fmt.Errorf("sqlite: scan %s: %w", pragma, err)
		}
		findings = append(findings, line)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlite: %s: %w", pragma, err)
	}

	switch {
	case len(findings) == 1 && strings.EqualFold(findings[0], "ok"):
		return nil
	case len(findings) == 0:
		return &CorruptionError{Findings: []string{"check returned no rows"}}
	default:
		return &CorruptionError{Findings: findings}
	}
}
