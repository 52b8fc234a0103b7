package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

type Action int

const (
	ActionInsert Action = iota
	ActionUpdate
	ActionSkip
)

func (a Action) String() string {
	switch a {
	case ActionInsert:
		return "insert"
	case ActionUpdate:
		return "update"
	case ActionSkip:
		return "skip"
	}
	return "unknown"
}

// Classification is the per-row decision. KeyOnly marks a matched row in a
// table with no non-key insertable columns: there is nothing an UPDATE
// could touch, so the row is skipped but reported distinctly from a true
// no-op.
type Classification struct {
	Action  Action
	Row     Row
	KeyOnly bool
}

// classifier looks up each source row in the destination by its key
// columns and decides insert, update, or skip. The lookup statement is
// prepared once per table.
type classifier struct {
	desc   *TableDescriptor
	stmt   *sql.Stmt
	absent bool // destination table does not exist (dry-run only)
}

func newClassifier(ctx context.Context, dest *sql.DB, desc *TableDescriptor) (*classifier, error) {
	stmt, err := dest.PrepareContext(ctx, lookupSQL(desc))
	if err != nil {
		return nil, fmt.Errorf("prepare lookup for %s: %w", desc.Name, err)
	}
	return &classifier{desc: desc, stmt: stmt}, nil
}

// newAbsentClassifier classifies every row as an insert. Used by dry runs
// when the destination table has not been created.
func newAbsentClassifier(desc *TableDescriptor) *classifier {
	return &classifier{desc: desc, absent: true}
}

func (c *classifier) Close() {
	if c.stmt != nil {
		c.stmt.Close()
	}
}

func (c *classifier) classify(ctx context.Context, row Row) (Classification, error) {
	if c.absent {
		return Classification{Action: ActionInsert, Row: row}, nil
	}

	args := make([]interface{}, len(c.desc.keyIdx))
	for i, idx := range c.desc.keyIdx {
		args[i] = row.Raw[idx]
	}

	rows, err := c.stmt.QueryContext(ctx, args...)
	if err != nil {
		return Classification{}, fmt.Errorf("lookup in %s: %w", c.desc.Name, err)
	}
	matches, err := scanRows(rows)
	if err != nil {
		return Classification{}, fmt.Errorf("lookup in %s: %w", c.desc.Name, err)
	}

	if len(matches) == 0 {
		return Classification{Action: ActionInsert, Row: row}, nil
	}
	if !c.desc.nonKeyInsertable() {
		return Classification{Action: ActionSkip, Row: row, KeyOnly: true}, nil
	}
	if rowsDiffer(c.desc, row, matches[0]) {
		return Classification{Action: ActionUpdate, Row: row}, nil
	}
	return Classification{Action: ActionSkip, Row: row}, nil
}

// lookupSQL matches on every key column with null-safe equality, so a NULL
// key value in a keyless table still finds its counterpart.
func lookupSQL(desc *TableDescriptor) string {
	cols := make([]string, len(desc.Columns))
	for i, c := range desc.Columns {
		cols[i] = quoteIdent(c)
	}
	preds := make([]string, len(desc.Keys))
	for i, k := range desc.Keys {
		preds[i] = quoteIdent(k) + " <=> ?"
	}
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s LIMIT 1",
		strings.Join(cols, ", "), quoteIdent(desc.Name), strings.Join(preds, " AND "))
}
