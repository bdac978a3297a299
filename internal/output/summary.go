package output

import (
	"fmt"
	"strings"

	"difly/internal/changeset"
	"difly/internal/diff"
	"difly/internal/merge"
)

type summaryFormatter struct{}

// Format renders a Changeset as a compact summary.
// Example output:
//
//	Changeset Summary
//	=================
//
//	Source:    postgres app
//	Target:    postgres app
//
//	Tables:    3
//	Inserts:  +12
//	Updates:   ~4
//	Deletes:  -1
//	Unchanged: 87
func (summaryFormatter) Format(cs *changeset.Changeset) (string, error) {
	if cs == nil {
		return "No changes detected.\n", nil
	}

	var sb strings.Builder
	sb.WriteString("Changeset Summary\n")
	sb.WriteString("=================\n\n")

	fmt.Fprintf(&sb, "Source:    %s %s\n", cs.Source.Dialect, cs.Source.Database)
	fmt.Fprintf(&sb, "Target:    %s %s\n\n", cs.Target.Dialect, cs.Target.Database)

	fmt.Fprintf(&sb, "Tables:    %d\n", cs.Summary.Tables)
	fmt.Fprintf(&sb, "Inserts:  +%d\n", cs.Summary.Inserts)
	fmt.Fprintf(&sb, "Updates:   ~%d\n", cs.Summary.Updates)
	fmt.Fprintf(&sb, "Deletes:  -%d\n", cs.Summary.Deletes)
	fmt.Fprintf(&sb, "Unchanged: %d\n", cs.Summary.Unchanged)

	if len(cs.TableDiffs) > 0 {
		writeDiffDetails(&sb, cs.TableDiffs)
	}
	if len(cs.TableMerges) > 0 {
		writeMergeDetails(&sb, cs.TableMerges)
	}

	fmt.Fprintf(&sb, "\nElapsed: %s\n", cs.Perf.TotalTime)

	return sb.String(), nil
}

func writeDiffDetails(sb *strings.Builder, diffs []*diff.TableDiff) {
	sb.WriteString("\nDetails:\n")
	for _, td := range diffs {
		stats := diff.Summarize(td)
		fmt.Fprintf(sb, "  %s: +%d ~%d -%d (%d unchanged)\n", td.TableName, stats.Inserts, stats.Updates, stats.Deletes, stats.Unchanged)
		if warning := td.Mismatch.Warning(td.TableName); warning != "" {
			fmt.Fprintf(sb, "    %s\n", warning)
		}
	}
}

func writeMergeDetails(sb *strings.Builder, merges []*merge.TableMerge) {
	sb.WriteString("\nDetails:\n")
	for _, tm := range merges {
		conflicts := 0
		for _, row := range tm.Rows {
			if row.Resolution == merge.Conflict {
				conflicts++
			}
		}
		fmt.Fprintf(sb, "  %s: %d changed rows, %d conflicts, %d unchanged\n", tm.TableName, len(tm.Rows), conflicts, tm.Unchanged)
		if warning := tm.Mismatch.Warning(tm.TableName); warning != "" {
			fmt.Fprintf(sb, "    %s\n", warning)
		}
	}
}
