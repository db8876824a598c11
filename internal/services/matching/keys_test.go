package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabular-reconciliation-backend/internal/table"
)

func strTable(name string, cols []string, rows ...[]string) *table.Table {
	cells := make([][]table.Cell, len(rows))
	for i, r := range rows {
		cells[i] = make([]table.Cell, len(r))
		for j, v := range r {
			if v == "" {
				cells[i][j] = table.Null()
			} else {
				cells[i][j] = table.Str(v)
			}
		}
	}
	return table.New(name, cols, cells)
}

func TestValidateSelection(t *testing.T) {
	assert.ErrorIs(t, ValidateSelection(nil, nil), ErrNoColumnsSelected)
	assert.ErrorIs(t, ValidateSelection([]string{"id"}, nil), ErrNoColumnsSelected)
	assert.ErrorIs(t, ValidateSelection([]string{"id", "name"}, []string{"ref"}), ErrColumnCountMismatch)
	assert.NoError(t, ValidateSelection([]string{"id"}, []string{"ref"}))
}

func TestBuildKeys_CompositeInSelectionOrder(t *testing.T) {
	tbl := strTable("a.csv", []string{"id", "name", "city"},
		[]string{" A1 ", "Bob", "Oslo"},
	)

	keys, err := BuildKeys(tbl, []string{"city", "id"}, DefaultNormalizer())
	require.NoError(t, err)
	assert.Equal(t, []Key{{Value: "oslo|a1"}}, keys)
}

func TestBuildKeys_CaseAndWhitespaceSymmetry(t *testing.T) {
	a := strTable("a", []string{"k"}, []string{"New  York"})
	b := strTable("b", []string{"k"}, []string{" new york\t"})

	ka, err := BuildKeys(a, []string{"k"}, DefaultNormalizer())
	require.NoError(t, err)
	kb, err := BuildKeys(b, []string{"k"}, DefaultNormalizer())
	require.NoError(t, err)
	assert.Equal(t, ka, kb)
}

func TestBuildKeys_MissingPolicies(t *testing.T) {
	tbl := strTable("a", []string{"id", "name"}, []string{"1", ""})

	keys, err := BuildKeys(tbl, []string{"id", "name"}, DefaultNormalizer())
	require.NoError(t, err)
	assert.True(t, keys[0].Excluded)

	n := DefaultNormalizer()
	n.Missing = MissingPlaceholder
	keys, err = BuildKeys(tbl, []string{"id", "name"}, n)
	require.NoError(t, err)
	assert.Equal(t, Key{Value: "1|nan"}, keys[0])
}

func TestBuildKeys_UnknownColumn(t *testing.T) {
	tbl := strTable("a.csv", []string{"id"}, []string{"1"})

	_, err := BuildKeys(tbl, []string{"ref"}, DefaultNormalizer())
	assert.ErrorIs(t, err, ErrUnknownColumn)

	_, err = BuildKeys(tbl, nil, DefaultNormalizer())
	assert.ErrorIs(t, err, ErrNoColumnsSelected)
}
