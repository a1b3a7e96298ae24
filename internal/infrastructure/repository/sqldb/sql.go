package sqldb

import (
	"database/sql"
	"errors"
	"strings"

	qb "github.com/riskibarqy/facr-ledger/internal/platform/querybuilder"
)

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// writePolicy decides what happens when a row with the same key exists.
type writePolicy int

const (
	// createIfAbsent keeps the stored row; the first writer wins.
	createIfAbsent writePolicy = iota
	// replaceWholesale overwrites every non-key column; the last writer wins.
	replaceWholesale
)

func (p writePolicy) String() string {
	switch p {
	case createIfAbsent:
		return "create-if-absent"
	case replaceWholesale:
		return "replace-wholesale"
	default:
		return "unknown"
	}
}

func writeStatement(table string, model any, policy writePolicy, key ...string) (string, []any, error) {
	switch policy {
	case replaceWholesale:
		return qb.UpsertModel(table, model, key...)
	default:
		suffix := "ON CONFLICT DO NOTHING"
		if len(key) > 0 {
			suffix = "ON CONFLICT (" + strings.Join(key, ", ") + ") DO NOTHING"
		}
		return qb.InsertModel(table, model, suffix)
	}
}
