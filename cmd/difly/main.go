// Package main is the difly CLI: diff, snapshot, and check-conflicts
// subcommands over a layered config file, following the teacher's
// cmd/smf/main.go shape (one cobra root command, one flag-struct and
// *Cmd() constructor per subcommand).
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"difly/internal/changeset"
	"difly/internal/config"
	_ "difly/internal/driver/mariadb"
	_ "difly/internal/driver/postgres"
	_ "difly/internal/driver/sqlite"
	"difly/internal/engine"
	"difly/internal/errs"
	"difly/internal/output"
	"difly/internal/snapshot"
)

type diffFlags struct {
	config string
	format string
	dryRun bool
}

type snapshotFlags struct {
	config string
	out    string
}

type checkConflictsFlags struct {
	config   string
	snapshot string
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "difly",
		Short: "Row-level SQL data diff and merge engine",
	}

	rootCmd.AddCommand(diffCmd())
	rootCmd.AddCommand(snapshotCmd())
	rootCmd.AddCommand(checkConflictsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps a command error to the process exit code from the
// specification's external interfaces. A conflictError always maps to 4,
// ahead of errs.ExitCode's own Kind-based mapping.
func exitCodeFor(err error) int {
	if _, ok := err.(*conflictError); ok {
		return 4
	}
	return errs.ExitCode(err)
}

// conflictError signals that check-conflicts found at least one unresolved
// conflict; the changeset has already been written, this only sets the
// exit code.
type conflictError struct{ cs *changeset.Changeset }

func (e *conflictError) Error() string { return "check-conflicts: unresolved conflicts present" }

func diffCmd() *cobra.Command {
	flags := &diffFlags{}
	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Run a two-way diff between source and target",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runDiff(flags)
		},
	}
	cmd.Flags().StringVar(&flags.config, "config", "", "Path to difly.toml")
	cmd.Flags().StringVar(&flags.format, "format", "", "Output format override: json, sql, or html")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Print a summary to stdout; write no files")
	return cmd
}

func runDiff(flags *diffFlags) error {
	cfg, err := config.Load(flags.config)
	if err != nil {
		return err
	}
	if flags.dryRun {
		cfg.OutputDryRun = true
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng := engine.New(cfg)
	cs, err := eng.RunDiff(ctx)
	if err != nil {
		return err
	}

	if cfg.OutputDryRun {
		return printSummary(cs)
	}

	formats := cfg.OutputFormats
	if flags.format != "" {
		formats = []string{flags.format}
	}
	return writeChangeset(cs, cfg.OutputDir, formats)
}

func snapshotCmd() *cobra.Command {
	flags := &snapshotFlags{}
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Capture a full-table snapshot of the configured target",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runSnapshot(flags)
		},
	}
	cmd.Flags().StringVar(&flags.config, "config", "", "Path to difly.toml")
	cmd.Flags().StringVar(&flags.out, "out", "", "Snapshot output directory (defaults to output.dir)")
	return cmd
}

func runSnapshot(flags *snapshotFlags) error {
	cfg, err := config.Load(flags.config)
	if err != nil {
		return err
	}

	dir := flags.out
	if dir == "" {
		dir = cfg.OutputDir
	}
	if dir == "" {
		dir = "."
	}

	eng := engine.New(cfg)
	snap, err := eng.RunSnapshot(context.Background())
	if err != nil {
		return err
	}
	snap.CapturedAt = time.Now().UTC()

	return writeSnapshot(*snap, dir)
}

func checkConflictsCmd() *cobra.Command {
	flags := &checkConflictsFlags{}
	cmd := &cobra.Command{
		Use:   "check-conflicts",
		Short: "Three-way merge source and target against a captured snapshot",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runCheckConflicts(flags)
		},
	}
	cmd.Flags().StringVar(&flags.config, "config", "", "Path to difly.toml")
	cmd.Flags().StringVar(&flags.snapshot, "snapshot", "", "Directory containing a previously captured snapshot.json")
	return cmd
}

func runCheckConflicts(flags *checkConflictsFlags) error {
	if flags.snapshot == "" {
		return errs.New(errs.Config, "check-conflicts: --snapshot is required")
	}

	cfg, err := config.Load(flags.config)
	if err != nil {
		return err
	}

	ancestor, err := readSnapshot(flags.snapshot)
	if err != nil {
		return err
	}

	eng := engine.New(cfg)
	cs, err := eng.RunCheckConflicts(context.Background(), ancestor)
	if err != nil {
		return err
	}

	if cfg.OutputDryRun {
		if err := printSummary(cs); err != nil {
			return err
		}
	} else if err := writeChangeset(cs, cfg.OutputDir, cfg.OutputFormats); err != nil {
		return err
	}

	if cs.HasConflicts() {
		return &conflictError{cs: cs}
	}
	return nil
}

func printSummary(cs *changeset.Changeset) error {
	f, err := output.NewFormatter(string(output.FormatSummary))
	if err != nil {
		return err
	}
	text, err := f.Format(cs)
	if err != nil {
		return err
	}
	fmt.Print(text)
	return nil
}

// writeChangeset renders cs in every requested format and writes one file
// per format, all sharing the cs_<UTC-yyyymmdd>_<HHMMSS> stem.
func writeChangeset(cs *changeset.Changeset, dir string, formats []string) error {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.Wrap(errs.Emit, err)
	}

	stem := "cs_" + time.Now().UTC().Format("20060102_150405")
	for _, format := range formats {
		f, err := output.NewFormatter(format)
		if err != nil {
			return err
		}
		text, err := f.Format(cs)
		if err != nil {
			return err
		}
		ext := format
		if ext == "" {
			ext = "json"
		}
		path := filepath.Join(dir, stem+"."+ext)
		if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
			return errs.Wrap(errs.Emit, err)
		}
		fmt.Fprintf(os.Stderr, "wrote %s\n", path)
	}
	return nil
}

// writeSnapshot writes snapshot.json plus one <table>.rows.json per table,
// per the specification's snapshot directory layout.
func writeSnapshot(snap snapshot.Snapshot, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.Wrap(errs.Emit, err)
	}

	full, err := snapshot.Encode(snap)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "snapshot.json"), full, 0o644); err != nil {
		return errs.Wrap(errs.Emit, err)
	}

	for _, t := range snap.Tables {
		single := snapshot.Snapshot{
			Version:    snap.Version,
			CapturedAt: snap.CapturedAt,
			Dialect:    snap.Dialect,
			Schema:     snap.Schema,
			Tables:     []snapshot.TableSnapshot{t},
		}
		b, err := snapshot.Encode(single)
		if err != nil {
			return err
		}
		path := filepath.Join(dir, t.TableName+".rows.json")
		if err := os.WriteFile(path, b, 0o644); err != nil {
			return errs.Wrap(errs.Emit, err)
		}
	}

	fmt.Fprintf(os.Stderr, "snapshot captured in %s\n", dir)
	return nil
}

// readSnapshot loads a previously captured snapshot.json. No single primary
// key is enforced across tables here (a multi-table snapshot can have
// different keys per table); per-table key agreement is instead verified
// when the engine builds each ancestor index.Table for the merge.
func readSnapshot(dir string) (snapshot.Snapshot, error) {
	data, err := os.ReadFile(filepath.Join(dir, "snapshot.json"))
	if err != nil {
		return snapshot.Snapshot{}, errs.Wrap(errs.SnapshotIncompatible, err)
	}
	return snapshot.Decode(data, nil)
}
