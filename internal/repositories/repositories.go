// package repositories provides the SQLite persistence layer for cached library data.
package repositories

import (
	"database/sql"
	"fmt"
	"regexp"

	"github.com/desertthunder/gmusic/internal/shared"
)

var tableName = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Querier is satisfied by both [*sql.DB] and [*sql.Tx].
type Querier interface {
	QueryRow(query string, args ...any) *sql.Row
}

// NextSequence increments and returns the sequence counter of table in one statement.
//
// The table must have a companion <table>_sequence row with id 1. Sequence numbers order
// cached rows by first insertion and are not shown in CLI output.
func NextSequence(q Querier, table string) (int, error) {
	if !tableName.MatchString(table) {
		return 0, fmt.Errorf("%w: table name %q", shared.ErrInvalidArgument, table)
	}

	query := fmt.Sprintf("UPDATE %s_sequence SET value = value + 1 WHERE id = 1 RETURNING value", table)

	var sequence int
	if err := q.QueryRow(query).Scan(&sequence); err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}
	return sequence, nil
}
