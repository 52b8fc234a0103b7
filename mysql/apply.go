package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

type batchCounts struct {
	inserted int
	updated  int
	skipped  int
	keyOnly  int
}

func (b *batchCounts) add(other batchCounts) {
	b.inserted += other.inserted
	b.updated += other.updated
	b.skipped += other.skipped
	b.keyOnly += other.keyOnly
}

// applier executes one batch of classified rows inside a single
// destination transaction. The first failing statement rolls back the
// whole batch; earlier committed batches for the table stay committed.
type applier struct {
	db        *sql.DB
	desc      *TableDescriptor
	insertSQL string
	updateSQL string
	dryRun    bool
}

func newApplier(db *sql.DB, desc *TableDescriptor, dryRun bool) *applier {
	return &applier{
		db:        db,
		desc:      desc,
		insertSQL: insertSQL(desc),
		updateSQL: updateSQL(desc),
		dryRun:    dryRun,
	}
}

func (a *applier) apply(ctx context.Context, batch int, decisions []Classification) (batchCounts, error) {
	counts := tally(decisions)
	if a.dryRun || counts.inserted+counts.updated == 0 {
		return counts, nil
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return batchCounts{}, &ApplyError{Table: a.desc.Name, Batch: batch, Err: err}
	}

	for _, d := range decisions {
		var execErr error
		switch d.Action {
		case ActionInsert:
			_, execErr = tx.ExecContext(ctx, a.insertSQL, insertArgs(a.desc, d.Row)...)
		case ActionUpdate:
			_, execErr = tx.ExecContext(ctx, a.updateSQL, updateArgs(a.desc, d.Row)...)
		case ActionSkip:
			continue
		}
		if execErr != nil {
			tx.Rollback()
			return batchCounts{}, &ApplyError{Table: a.desc.Name, Batch: batch, Err: execErr}
		}
	}

	if err := tx.Commit(); err != nil {
		return batchCounts{}, &ApplyError{Table: a.desc.Name, Batch: batch, Err: err}
	}
	return counts, nil
}

func tally(decisions []Classification) batchCounts {
	var c batchCounts
	for _, d := range decisions {
		switch d.Action {
		case ActionInsert:
			c.inserted++
		case ActionUpdate:
			c.updated++
		case ActionSkip:
			c.skipped++
			if d.KeyOnly {
				c.keyOnly++
			}
		}
	}
	return c
}

func insertSQL(desc *TableDescriptor) string {
	cols := make([]string, len(desc.Insertable))
	marks := make([]string, len(desc.Insertable))
	for i, c := range desc.Insertable {
		cols[i] = quoteIdent(c)
		marks[i] = "?"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(desc.Name), strings.Join(cols, ", "), strings.Join(marks, ", "))
}

// updateSQL sets every non-key insertable column. Once any column
// differs the full non-key set is rewritten rather than only the
// differing columns.
func updateSQL(desc *TableDescriptor) string {
	var sets []string
	for _, i := range desc.compareIdx {
		sets = append(sets, quoteIdent(desc.Columns[i])+" = ?")
	}
	preds := make([]string, len(desc.Keys))
	for i, k := range desc.Keys {
		preds[i] = quoteIdent(k) + " <=> ?"
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		quoteIdent(desc.Name), strings.Join(sets, ", "), strings.Join(preds, " AND "))
}

func insertArgs(desc *TableDescriptor, row Row) []interface{} {
	args := make([]interface{}, len(desc.insertIdx))
	for i, idx := range desc.insertIdx {
		args[i] = row.Raw[idx]
	}
	return args
}

func updateArgs(desc *TableDescriptor, row Row) []interface{} {
	args := make([]interface{}, 0, len(desc.compareIdx)+len(desc.keyIdx))
	for _, idx := range desc.compareIdx {
		args = append(args, row.Raw[idx])
	}
	for _, idx := range desc.keyIdx {
		args = append(args, row.Raw[idx])
	}
	return args
}
