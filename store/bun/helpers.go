package bunstore

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/xraph/hrflow/id"
)

// isNoRows returns true when err indicates no rows were found.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func optionalID(v id.ID) string {
	if v.IsNil() {
		return ""
	}
	return v.String()
}

func parseOptionalID(raw string, parse func(string) (id.ID, error)) (id.ID, error) {
	if raw == "" {
		return id.Nil, nil
	}
	parsed, err := parse(raw)
	if err != nil {
		return id.Nil, fmt.Errorf("parse id %q: %w", raw, err)
	}
	return parsed, nil
}
