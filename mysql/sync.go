package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"dbmirror/internal"
)

// Options is built once at process start and never mutated afterward.
type Options struct {
	BatchSize  int
	SkipTables []string
	Tables     []string // explicit subset; empty means every base table
	DryRun     bool
}

const DefaultBatchSize = 1000

// Syncer drives the per-table pipeline: ensure structure, resolve keys,
// then read, classify, and apply batches. Tables are processed strictly
// sequentially; one table's failure never aborts the run.
type Syncer struct {
	source *sql.DB
	dest   *sql.DB
	opts   Options
	skip   map[string]bool
}

func NewSyncer(source, dest *sql.DB, opts Options) *Syncer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	skip := make(map[string]bool, len(opts.SkipTables))
	for _, t := range opts.SkipTables {
		skip[t] = true
	}
	return &Syncer{source: source, dest: dest, opts: opts, skip: skip}
}

// Tables lists the source base tables the run would cover, skip-list
// applied, in discovery order.
func (s *Syncer) Tables(ctx context.Context) ([]string, error) {
	all, err := listTables(ctx, s.source)
	if err != nil {
		return nil, err
	}
	if len(s.opts.Tables) > 0 {
		want := make(map[string]bool, len(s.opts.Tables))
		for _, t := range s.opts.Tables {
			want[t] = true
		}
		var subset []string
		for _, t := range all {
			if want[t] {
				subset = append(subset, t)
			}
		}
		all = subset
	}
	var tables []string
	for _, t := range all {
		if !s.skip[t] {
			tables = append(tables, t)
		}
	}
	return tables, nil
}

// Run reconciles every covered table and always produces a summary. The
// returned error is non-nil only for failures that prevent the run from
// starting at all; per-table failures land in the summary instead.
func (s *Syncer) Run(ctx context.Context) (*RunSummary, error) {
	summary := newRunSummary()

	tables, err := s.Tables(ctx)
	if err != nil {
		return nil, fmt.Errorf("list source tables: %w", err)
	}
	internal.Logger.Info("Starting sync run", "run", summary.RunID,
		"tables", len(tables), "batchSize", s.opts.BatchSize, "dryRun", s.opts.DryRun)

	// Tables are created and populated in discovery order, so forward
	// foreign-key references must not be enforced mid-run.
	if !s.opts.DryRun {
		if _, err := s.dest.ExecContext(ctx, "SET FOREIGN_KEY_CHECKS=0"); err != nil {
			return nil, fmt.Errorf("disable foreign key checks: %w", err)
		}
		defer func() {
			if _, err := s.dest.Exec("SET FOREIGN_KEY_CHECKS=1"); err != nil {
				internal.Logger.Error("Failed to re-enable foreign key checks", "error", err)
			}
		}()
	}

	for i, table := range tables {
		internal.Logger.Info("Syncing table", "table", table,
			"progress", fmt.Sprintf("%d/%d", i+1, len(tables)))
		res := s.syncTable(ctx, table)
		if res.Err != nil {
			internal.Logger.Error("Table sync failed", "table", table, "error", res.Err)
		} else {
			internal.Logger.Debug("Table synced", "table", table,
				"inserted", res.Inserted, "updated", res.Updated, "skipped", res.Skipped)
		}
		summary.record(res)
	}

	summary.finish()
	return summary, nil
}

func (s *Syncer) syncTable(ctx context.Context, table string) TableResult {
	res := TableResult{Table: table}

	ddl, err := createStatement(ctx, s.source, table)
	if err != nil {
		res.Err = &IntrospectionError{Table: table, Err: err}
		return res
	}
	if !s.opts.DryRun {
		if _, err := s.dest.ExecContext(ctx, ddl); err != nil {
			res.Err = &IntrospectionError{Table: table, Err: fmt.Errorf("ensure structure: %w", err)}
			return res
		}
	}

	desc, err := describeTable(ctx, s.source, table)
	if err != nil {
		res.Err = &IntrospectionError{Table: table, Err: err}
		return res
	}

	cls, err := s.newTableClassifier(ctx, table, desc)
	if err != nil {
		res.Err = err
		return res
	}
	defer cls.Close()

	total, err := rowCount(ctx, s.source, table)
	if err != nil {
		res.Err = &IntrospectionError{Table: table, Err: err}
		return res
	}
	internal.Logger.Debug("Captured source row count", "table", table, "rows", total)

	reader := newBatchReader(s.source, desc, s.opts.BatchSize, total)
	app := newApplier(s.dest, desc, s.opts.DryRun)

	var processed int64
	for batch := 0; ; batch++ {
		rows, err := reader.next(ctx)
		if err != nil {
			res.Err = err
			return res
		}
		if len(rows) == 0 {
			break
		}

		decisions := make([]Classification, 0, len(rows))
		for _, row := range rows {
			d, err := cls.classify(ctx, row)
			if err != nil {
				res.Err = err
				return res
			}
			decisions = append(decisions, d)
		}

		counts, err := app.apply(ctx, batch, decisions)
		if err != nil {
			res.Err = err
			return res
		}
		res.Inserted += counts.inserted
		res.Updated += counts.updated
		res.Skipped += counts.skipped
		res.SkippedKeyOnly += counts.keyOnly

		processed += int64(len(rows))
		internal.Logger.Debug("Batch applied", "table", table, "batch", batch,
			"processed", processed, "total", total)
	}

	return res
}

// newTableClassifier verifies both sides agree on the table's identity
// columns before any row is compared. A mismatch fails the table: syncing
// on the wrong identity silently produces duplicate or orphaned rows.
func (s *Syncer) newTableClassifier(ctx context.Context, table string, desc *TableDescriptor) (*classifier, error) {
	exists, err := tableExists(ctx, s.dest, table)
	if err != nil {
		return nil, &IntrospectionError{Table: table, Err: err}
	}
	if !exists {
		if s.opts.DryRun {
			return newAbsentClassifier(desc), nil
		}
		return nil, &IntrospectionError{Table: table, Err: fmt.Errorf("destination table missing after ensure structure")}
	}

	destKeys, _, err := resolveKeyColumns(ctx, s.dest, table)
	if err != nil {
		return nil, &IntrospectionError{Table: table, Err: err}
	}
	if !sameColumns(desc.Keys, destKeys) {
		return nil, &KeyMismatchError{Table: table, SourceKeys: desc.Keys, DestKeys: destKeys}
	}

	return newClassifier(ctx, s.dest, desc)
}
