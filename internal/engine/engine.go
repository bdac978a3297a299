// Package engine orchestrates a full run: connect to source and target,
// fan out one task per configured table over a bounded worker pool, and
// aggregate deterministically into a Changeset. The teacher has no
// comparable orchestration layer of its own (its CLI runs single-threaded
// over parsed schema files), so the concurrency shape here is grounded on
// golang.org/x/sync/errgroup's standard fan-out-with-cancellation idiom —
// the same package the teacher's go.mod already carries transitively.
package engine

import (
	"context"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"difly/internal/changeset"
	"difly/internal/config"
	"difly/internal/core"
	"difly/internal/diff"
	"difly/internal/driver"
	"difly/internal/errs"
	"difly/internal/index"
	"difly/internal/merge"
	"difly/internal/perf"
	"difly/internal/snapshot"
)

// Engine runs diff, snapshot, and check-conflicts operations against a
// resolved Config.
type Engine struct {
	cfg  config.Config
	perf *perf.Report
}

// New constructs an Engine for cfg.
func New(cfg config.Config) *Engine {
	return &Engine{cfg: cfg, perf: perf.NewReport()}
}

func (e *Engine) concurrencyLimit() int {
	if e.cfg.MaxConcurrentTables > 0 {
		return e.cfg.MaxConcurrentTables
	}
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		n = 1
	}
	return n
}

// endpointDescriptor redacts the password before the descriptor is embedded
// in a Changeset.
func endpointDescriptor(ep config.Endpoint) changeset.Descriptor {
	return changeset.Descriptor{Dialect: ep.Driver, Host: ep.Host, Database: ep.Database, Schema: ep.Schema}
}

// connect opens a driver.Handle for ep, honoring the configured connect
// timeout.
func (e *Engine) connect(ctx context.Context, ep config.Endpoint) (driver.Driver, *driver.Handle, error) {
	drv, err := driver.New(ep.Driver)
	if err != nil {
		return nil, nil, err
	}
	h, err := drv.Connect(ctx, driver.Endpoint{
		Host:     ep.Host,
		Port:     ep.Port,
		Database: ep.Database,
		User:     ep.User,
		Password: ep.Password,
		Schema:   ep.Schema,
	}, e.cfg.ConnectTimeout)
	if err != nil {
		return nil, nil, err
	}
	return drv, h, nil
}

// fetchTable lists columns and rows for one table through drv/handle, using
// the configured query timeout, and builds an index.Table.
func (e *Engine) fetchTable(ctx context.Context, drv driver.Driver, h *driver.Handle, schema string, tc config.TableConfig) (*index.Table, error) {
	cctx, cancel := context.WithTimeout(ctx, e.cfg.QueryTimeout)
	defer cancel()

	var cols core.Columns
	var rows []core.Row

	err := e.perf.Track("fetch:"+tc.Name, func() error {
		var err error
		cols, err = drv.ListColumns(cctx, h, schema, tc.Name)
		if err != nil {
			return err
		}
		it, err := drv.FetchRows(cctx, h, schema, tc.Name, cols)
		if err != nil {
			return err
		}
		defer it.Close()
		for it.Next() {
			row, err := it.Row()
			if err != nil {
				return err
			}
			rows = append(rows, row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.perf.AddRows(int64(len(rows)))

	tbl, err := index.Build(tc.Name, cols, tc.PrimaryKey, rows)
	if err != nil {
		return nil, err
	}
	tbl.Schema = schema
	return tbl, nil
}

// RunDiff connects to source and target, diffs every configured table
// concurrently (bounded by concurrencyLimit), and returns the aggregated
// Changeset with tables in configured order regardless of completion order.
func (e *Engine) RunDiff(ctx context.Context) (*changeset.Changeset, error) {
	if len(e.cfg.DiffTables) == 0 {
		cs := changeset.FromDiffs(endpointDescriptor(e.cfg.Source), endpointDescriptor(e.cfg.Target), nil, e.perf.Finish())
		return &cs, nil
	}

	sourceDrv, sourceHandle, err := e.connect(ctx, e.cfg.Source)
	if err != nil {
		return nil, err
	}
	defer sourceHandle.Close()

	targetDrv, targetHandle, err := e.connect(ctx, e.cfg.Target)
	if err != nil {
		return nil, err
	}
	defer targetHandle.Close()

	results := make([]*diff.TableDiff, len(e.cfg.DiffTables))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrencyLimit())

	for i, tc := range e.cfg.DiffTables {
		i, tc := i, tc
		g.Go(func() error {
			sourceTable, targetTable, err := e.fetchBothSides(gctx, sourceDrv, sourceHandle, targetDrv, targetHandle, tc)
			if err != nil {
				return err
			}

			var td *diff.TableDiff
			err = e.perf.Track("diff:"+tc.Name, func() error {
				var derr error
				td, derr = diff.Diff(sourceTable, targetTable)
				return derr
			})
			if err != nil {
				return err
			}
			results[i] = td
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, errs.Wrap(errs.Cancelled, ctx.Err())
		}
		return nil, err
	}

	if e.cfg.SchemaMismatchPolicy == config.SchemaMismatchFail {
		for _, td := range results {
			if warning := td.Mismatch.Warning(td.TableName); warning != "" {
				return nil, errs.New(errs.SchemaMismatch, "%s", warning)
			}
		}
	}

	cs := changeset.FromDiffs(endpointDescriptor(e.cfg.Source), endpointDescriptor(e.cfg.Target), results, e.perf.Finish())
	return &cs, nil
}

// fetchBothSides issues the source and target fetches concurrently; if
// either fails, the shared context is cancelled so the other fetch is
// aborted best-effort, and the first error wins.
func (e *Engine) fetchBothSides(ctx context.Context, sourceDrv driver.Driver, sourceHandle *driver.Handle, targetDrv driver.Driver, targetHandle *driver.Handle, tc config.TableConfig) (*index.Table, *index.Table, error) {
	var sourceTable, targetTable *index.Table

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := e.fetchTable(gctx, sourceDrv, sourceHandle, e.cfg.Source.Schema, tc)
		if err != nil {
			return err
		}
		sourceTable = t
		return nil
	})
	g.Go(func() error {
		t, err := e.fetchTable(gctx, targetDrv, targetHandle, e.cfg.Target.Schema, tc)
		if err != nil {
			return err
		}
		targetTable = t
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return sourceTable, targetTable, nil
}

// RunSnapshot captures a full materialization of every configured table from
// the target endpoint.
func (e *Engine) RunSnapshot(ctx context.Context) (*snapshot.Snapshot, error) {
	drv, h, err := e.connect(ctx, e.cfg.Target)
	if err != nil {
		return nil, err
	}
	defer h.Close()

	snap := &snapshot.Snapshot{
		Version: snapshot.CurrentVersion,
		Dialect: e.cfg.Target.Driver,
		Schema:  e.cfg.Target.Schema,
	}

	tables := make([]snapshot.TableSnapshot, len(e.cfg.DiffTables))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrencyLimit())

	for i, tc := range e.cfg.DiffTables {
		i, tc := i, tc
		g.Go(func() error {
			tbl, err := e.fetchTable(gctx, drv, h, e.cfg.Target.Schema, tc)
			if err != nil {
				return err
			}
			tables[i] = snapshot.TableSnapshot{
				TableName: tbl.Name,
				PKColumns: tbl.PK,
				Columns:   tbl.Columns,
				Rows:      rowsOf(tbl),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap.Tables = tables
	return snap, nil
}

func rowsOf(tbl *index.Table) []core.Row {
	rows := make([]core.Row, 0, len(tbl.Index))
	for _, row := range tbl.Index {
		rows = append(rows, row)
	}
	return rows
}

// RunCheckConflicts connects source and target, loads the ancestor from a
// previously captured Snapshot, and three-way merges every configured
// table.
func (e *Engine) RunCheckConflicts(ctx context.Context, ancestor snapshot.Snapshot) (*changeset.Changeset, error) {
	sourceDrv, sourceHandle, err := e.connect(ctx, e.cfg.Source)
	if err != nil {
		return nil, err
	}
	defer sourceHandle.Close()

	targetDrv, targetHandle, err := e.connect(ctx, e.cfg.Target)
	if err != nil {
		return nil, err
	}
	defer targetHandle.Close()

	ancestorByName := make(map[string]snapshot.TableSnapshot, len(ancestor.Tables))
	for _, t := range ancestor.Tables {
		ancestorByName[t.TableName] = t
	}

	results := make([]*merge.TableMerge, len(e.cfg.DiffTables))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrencyLimit())

	for i, tc := range e.cfg.DiffTables {
		i, tc := i, tc
		g.Go(func() error {
			at, ok := ancestorByName[tc.Name]
			if !ok {
				return errs.New(errs.SnapshotMismatch, "check-conflicts: table %q not present in ancestor snapshot", tc.Name)
			}
			if !slices.Equal(at.PKColumns, tc.PrimaryKey) {
				return errs.New(errs.SnapshotMismatch, "check-conflicts: table %q: snapshot primary key %v does not match configured primary key %v", tc.Name, at.PKColumns, tc.PrimaryKey)
			}
			ancestorTable, err := index.Build(tc.Name, at.Columns, at.PKColumns, at.Rows)
			if err != nil {
				return err
			}

			sourceTable, targetTable, err := e.fetchBothSides(gctx, sourceDrv, sourceHandle, targetDrv, targetHandle, tc)
			if err != nil {
				return err
			}

			var tm *merge.TableMerge
			err = e.perf.Track("merge:"+tc.Name, func() error {
				var merr error
				tm, merr = merge.Merge(sourceTable, targetTable, ancestorTable)
				return merr
			})
			if err != nil {
				return err
			}
			results[i] = tm
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, errs.Wrap(errs.Cancelled, ctx.Err())
		}
		return nil, err
	}

	if e.cfg.SchemaMismatchPolicy == config.SchemaMismatchFail {
		for _, tm := range results {
			if warning := tm.Mismatch.Warning(tm.TableName); warning != "" {
				return nil, errs.New(errs.SchemaMismatch, "%s", warning)
			}
		}
	}

	cs := changeset.FromMerges(endpointDescriptor(e.cfg.Source), endpointDescriptor(e.cfg.Target), results, e.perf.Finish())
	return &cs, nil
}

