package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"difly/internal/core"
	"difly/internal/index"
)

func pricingColumns() core.Columns {
	return core.Columns{
		{Name: "id", Ordinal: 1, DeclaredType: "integer"},
		{Name: "discount_pct", Ordinal: 2, DeclaredType: "decimal"},
		{Name: "min_qty", Ordinal: 3, DeclaredType: "integer"},
		{Name: "max_qty", Ordinal: 4, DeclaredType: "integer"},
		{Name: "is_active", Ordinal: 5, DeclaredType: "boolean"},
	}
}

func pricingRow(id int64, discount string, minQty, maxQty int64, active bool) core.Row {
	return core.Row{
		core.NewInteger(id),
		core.NewDecimal(discount),
		core.NewInteger(minQty),
		core.NewInteger(maxQty),
		core.NewBool(active),
	}
}

func buildTable(t *testing.T, name string, cols core.Columns, rows []core.Row) *index.Table {
	t.Helper()
	tbl, err := index.Build(name, cols, core.PrimaryKey{"id"}, rows)
	require.NoError(t, err)
	return tbl
}

// TestDiffPricingRulesScenario mirrors the pricing_rules two-way diff
// scenario: target has PKs 1..7, source has PKs 1..5,7,8,9, with rows 2-4
// changed and row 6 deleted.
func TestDiffPricingRulesScenario(t *testing.T) {
	cols := pricingColumns()

	target := buildTable(t, "pricing_rules", cols, []core.Row{
		pricingRow(1, "0.10", 1, 100, true),
		pricingRow(2, "0.15", 10, 100, true),
		pricingRow(3, "0.20", 1, 200, true),
		pricingRow(4, "0.05", 1, 100, true),
		pricingRow(5, "0.30", 1, 100, true),
		pricingRow(6, "0.40", 1, 100, true),
		pricingRow(7, "0.50", 1, 100, true),
	})

	source := buildTable(t, "pricing_rules", cols, []core.Row{
		pricingRow(1, "0.10", 1, 100, true),
		pricingRow(2, "0.18", 5, 100, true),
		pricingRow(3, "0.20", 1, 500, true),
		pricingRow(4, "0.05", 1, 100, false),
		pricingRow(5, "0.30", 1, 100, true),
		pricingRow(7, "0.50", 1, 100, true),
		pricingRow(8, "0.60", 1, 100, true),
		pricingRow(9, "0.70", 1, 100, true),
	})

	td, err := Diff(source, target)
	require.NoError(t, err)

	stats := Summarize(td)
	assert.Equal(t, 2, stats.Inserts)
	assert.Equal(t, 3, stats.Updates)
	assert.Equal(t, 1, stats.Deletes)
	assert.Equal(t, 3, stats.Unchanged)

	var inserts, deletes []Change
	updatesByID := map[int64]Change{}
	for _, c := range td.Changes {
		switch c.Kind {
		case Insert:
			inserts = append(inserts, c)
		case Delete:
			deletes = append(deletes, c)
		case Update:
			id, _ := c.After[0].AsInteger()
			updatesByID[id] = c
		}
	}

	require.Len(t, deletes, 1)
	deletedID, _ := deletes[0].Before[0].AsInteger()
	assert.Equal(t, int64(6), deletedID)

	require.Len(t, inserts, 2)

	require.Contains(t, updatesByID, int64(2))
	assert.ElementsMatch(t, []string{"discount_pct", "min_qty"}, updatesByID[int64(2)].ChangedColumns)

	require.Contains(t, updatesByID, int64(3))
	assert.ElementsMatch(t, []string{"max_qty"}, updatesByID[int64(3)].ChangedColumns)

	require.Contains(t, updatesByID, int64(4))
	assert.ElementsMatch(t, []string{"is_active"}, updatesByID[int64(4)].ChangedColumns)
}

// TestDiffEmissionOrder checks the fixed Delete < Update < Insert ordering,
// then PK-lexicographic tie-break within a kind.
func TestDiffEmissionOrder(t *testing.T) {
	cols := pricingColumns()

	target := buildTable(t, "t", cols, []core.Row{
		pricingRow(1, "0.1", 1, 1, true),
		pricingRow(2, "0.1", 1, 1, true),
		pricingRow(3, "0.1", 1, 1, true),
	})
	source := buildTable(t, "t", cols, []core.Row{
		pricingRow(2, "0.2", 1, 1, true),
		pricingRow(4, "0.1", 1, 1, true),
		pricingRow(5, "0.1", 1, 1, true),
	})

	td, err := Diff(source, target)
	require.NoError(t, err)
	require.Len(t, td.Changes, 5)

	assert.Equal(t, Delete, td.Changes[0].Kind)
	assert.Equal(t, Delete, td.Changes[1].Kind)
	assert.Equal(t, Update, td.Changes[2].Kind)
	assert.Equal(t, Insert, td.Changes[3].Kind)

	firstDeletePK, _ := td.Changes[0].Before[0].AsInteger()
	secondDeletePK, _ := td.Changes[1].Before[0].AsInteger()
	assert.Equal(t, int64(1), firstDeletePK)
	assert.Equal(t, int64(3), secondDeletePK)
}

// TestDiffIdenticalTablesAreEmpty verifies property: identical source and
// target produce zero changes and an unchanged count equal to row count.
func TestDiffIdenticalTablesAreEmpty(t *testing.T) {
	cols := pricingColumns()
	rows := []core.Row{
		pricingRow(1, "0.1", 1, 1, true),
		pricingRow(2, "0.2", 1, 1, false),
	}
	source := buildTable(t, "t", cols, rows)
	target := buildTable(t, "t", cols, rows)

	td, err := Diff(source, target)
	require.NoError(t, err)
	assert.Empty(t, td.Changes)
	assert.Equal(t, 2, td.Unchanged)
}

// TestDiffNeverReportsPKInChangedColumns asserts invariant 5: an Update's
// changed_columns never contains a PK column, even when callers mistakenly
// include it among comparable columns.
func TestDiffNeverReportsPKInChangedColumns(t *testing.T) {
	cols := pricingColumns()
	target := buildTable(t, "t", cols, []core.Row{pricingRow(1, "0.1", 1, 1, true)})
	source := buildTable(t, "t", cols, []core.Row{pricingRow(1, "0.2", 1, 1, true)})

	td, err := Diff(source, target)
	require.NoError(t, err)
	require.Len(t, td.Changes, 1)
	assert.NotContains(t, td.Changes[0].ChangedColumns, "id")
}

// TestDiffConflictSymmetry verifies invariant 6: swapping source and target
// inverts Insert/Delete and flips before/after on Updates, preserving the
// total change count.
func TestDiffConflictSymmetry(t *testing.T) {
	cols := pricingColumns()
	target := buildTable(t, "t", cols, []core.Row{
		pricingRow(1, "0.1", 1, 1, true),
		pricingRow(2, "0.2", 1, 1, true),
	})
	source := buildTable(t, "t", cols, []core.Row{
		pricingRow(1, "0.3", 1, 1, true),
		pricingRow(3, "0.4", 1, 1, true),
	})

	forward, err := Diff(source, target)
	require.NoError(t, err)
	backward, err := Diff(target, source)
	require.NoError(t, err)

	assert.Equal(t, len(forward.Changes), len(backward.Changes))

	fStats := Summarize(forward)
	bStats := Summarize(backward)
	assert.Equal(t, fStats.Inserts, bStats.Deletes)
	assert.Equal(t, fStats.Deletes, bStats.Inserts)
	assert.Equal(t, fStats.Updates, bStats.Updates)
}

// TestDiffNullTransitionIsUpdate verifies invariant 8: a NULL<->value
// transition on a non-PK column is reported as an Update.
func TestDiffNullTransitionIsUpdate(t *testing.T) {
	cols := core.Columns{
		{Name: "id", Ordinal: 1, DeclaredType: "integer"},
		{Name: "note", Ordinal: 2, DeclaredType: "text"},
	}
	target := buildTable(t, "t", cols, []core.Row{{core.NewInteger(1), core.Null}})
	source := buildTable(t, "t", cols, []core.Row{{core.NewInteger(1), core.NewText("hello")}})

	td, err := Diff(source, target)
	require.NoError(t, err)
	require.Len(t, td.Changes, 1)
	assert.Equal(t, Update, td.Changes[0].Kind)
	assert.Equal(t, []string{"note"}, td.Changes[0].ChangedColumns)
}

// TestDiffEmptyTargetIsAllInserts covers S4: an empty target table means
// every source row emits as Insert, with zero Update/Delete.
func TestDiffEmptyTargetIsAllInserts(t *testing.T) {
	cols := pricingColumns()
	target := buildTable(t, "t", cols, nil)
	source := buildTable(t, "t", cols, []core.Row{
		pricingRow(1, "0.1", 1, 1, true),
		pricingRow(2, "0.2", 1, 1, true),
	})

	td, err := Diff(source, target)
	require.NoError(t, err)
	stats := Summarize(td)
	assert.Equal(t, 2, stats.Inserts)
	assert.Zero(t, stats.Updates)
	assert.Zero(t, stats.Deletes)
}

// TestDiffSchemaMismatchExcludesPhantomColumns checks that a column present
// on only one side is excluded from comparison and surfaced via Mismatch
// rather than causing a spurious Update.
func TestDiffSchemaMismatchExcludesPhantomColumns(t *testing.T) {
	sourceCols := core.Columns{
		{Name: "id", Ordinal: 1, DeclaredType: "integer"},
		{Name: "value", Ordinal: 2, DeclaredType: "text"},
		{Name: "extra", Ordinal: 3, DeclaredType: "text"},
	}
	targetCols := core.Columns{
		{Name: "id", Ordinal: 1, DeclaredType: "integer"},
		{Name: "value", Ordinal: 2, DeclaredType: "text"},
	}

	source := buildTable(t, "t", sourceCols, []core.Row{
		{core.NewInteger(1), core.NewText("a"), core.NewText("phantom")},
	})
	target := buildTable(t, "t", targetCols, []core.Row{
		{core.NewInteger(1), core.NewText("a")},
	})

	td, err := Diff(source, target)
	require.NoError(t, err)
	assert.Empty(t, td.Changes)
	assert.Equal(t, 1, td.Unchanged)
	assert.True(t, td.Mismatch.HasMismatch())
	assert.Equal(t, []string{"extra"}, td.Mismatch.OnlyA)
}
