package matching

import (
	"errors"
	"fmt"
	"strings"

	"tabular-reconciliation-backend/internal/table"
)

// Separator joins key components. It is not expected to occur in data.
const Separator = "|"

var (
	// ErrNoColumnsSelected is the pending state before the user picks columns.
	ErrNoColumnsSelected   = errors.New("select columns to match from both files")
	ErrColumnCountMismatch = errors.New("number of columns selected for both files must be the same")
	ErrUnknownColumn       = errors.New("selected column not found")
)

// Key is the composite match key of one row. Excluded keys (a missing
// component under MissingNeverMatch) never take part in matching.
type Key struct {
	Value    string
	Excluded bool
}

// ValidateSelection checks the pair of selections before any work is done.
func ValidateSelection(cols1, cols2 []string) error {
	if len(cols1) == 0 || len(cols2) == 0 {
		return ErrNoColumnsSelected
	}
	if len(cols1) != len(cols2) {
		return fmt.Errorf("%w: file 1 has %d, file 2 has %d", ErrColumnCountMismatch, len(cols1), len(cols2))
	}
	return nil
}

// CheckColumns verifies every selected column exists in the table.
func CheckColumns(t *table.Table, cols []string) error {
	for _, c := range cols {
		if t.ColumnIndex(c) < 0 {
			return fmt.Errorf("%w: %q in %s", ErrUnknownColumn, c, t.Name)
		}
	}
	return nil
}

// BuildKeys derives one key per row, in row order.
func BuildKeys(t *table.Table, cols []string, n Normalizer) ([]Key, error) {
	if len(cols) == 0 {
		return nil, ErrNoColumnsSelected
	}
	if err := CheckColumns(t, cols); err != nil {
		return nil, err
	}

	idx := make([]int, len(cols))
	for i, c := range cols {
		idx[i] = t.ColumnIndex(c)
	}

	keys := make([]Key, len(t.Rows))
	parts := make([]string, len(cols))
	for r, row := range t.Rows {
		excluded := false
		for i, ci := range idx {
			v, missing := n.Normalize(row[ci])
			if missing && n.Missing != MissingPlaceholder {
				excluded = true
			}
			parts[i] = v
		}
		keys[r] = Key{Value: strings.Join(parts, Separator), Excluded: excluded}
	}
	return keys, nil
}
