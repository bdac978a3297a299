package output

import (
	"difly/internal/changeset"
	"difly/internal/sqlemit"
)

// sqlFormatter renders the changeset's two-way TableDiffs as the atomic
// migration transaction from internal/sqlemit, targeting the changeset's
// target dialect per the specification's default orientation. A
// merge-derived changeset carries no TableDiffs, so it renders an empty
// transaction — SQL application of a three-way merge's resolution is out of
// scope, check-conflicts only reports conflicts.
type sqlFormatter struct{}

func (sqlFormatter) Format(cs *changeset.Changeset) (string, error) {
	if cs == nil {
		return sqlemit.Emit("", nil)
	}
	return sqlemit.Emit(cs.Target.Dialect, cs.TableDiffs)
}
