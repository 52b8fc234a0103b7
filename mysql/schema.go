package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
)

// Column is one entry of a table's metadata as read from
// information_schema. Generated columns are never written to.
type Column struct {
	Name       string
	Generated  bool
	PrimaryKey bool
}

// TableDescriptor captures everything the per-table pipeline needs to
// know about a table. It is computed once per table and never mutated.
type TableDescriptor struct {
	Name        string
	Columns     []string // read set: insertable plus key columns, ordinal order
	Insertable  []string
	Keys        []string
	DeclaredKey bool // keys come from a declared PRIMARY KEY

	keyIdx     []int // positions of Keys within Columns, in key order
	insertIdx  []int // positions of Insertable within Columns
	compareIdx []int // positions of non-key insertable columns within Columns
}

func listTables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, "SHOW FULL TABLES WHERE Table_type = 'BASE TABLE'")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name, kind string
		if err := rows.Scan(&name, &kind); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func tableExists(ctx context.Context, db *sql.DB, table string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?",
		table).Scan(&n)
	return n > 0, err
}

func tableColumns(ctx context.Context, db *sql.DB, table string) ([]Column, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT column_name, column_key, extra
		FROM information_schema.columns
		WHERE table_schema = DATABASE() AND table_name = ?
		ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var name, key, extra string
		if err := rows.Scan(&name, &key, &extra); err != nil {
			return nil, err
		}
		cols = append(cols, Column{
			Name:       name,
			Generated:  isGeneratedColumn(extra),
			PrimaryKey: key == "PRI",
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("table %s has no columns", table)
	}
	return cols, nil
}

// isGeneratedColumn matches only true generated columns. MySQL 8 reports
// DEFAULT_GENERATED in extra for plain columns with an expression default
// (DEFAULT CURRENT_TIMESTAMP and friends); those are ordinary insertable
// columns and must not be filtered out.
func isGeneratedColumn(extra string) bool {
	e := strings.ToUpper(extra)
	return strings.Contains(e, "VIRTUAL GENERATED") || strings.Contains(e, "STORED GENERATED")
}

// primaryKeyColumns returns the declared primary-key columns in
// constraint order, which is not necessarily ordinal column order.
func primaryKeyColumns(ctx context.Context, db *sql.DB, table string) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = DATABASE() AND table_name = ? AND constraint_name = 'PRIMARY'
		ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		keys = append(keys, name)
	}
	return keys, rows.Err()
}

// resolveKeyColumns prefers the declared primary key; a table without one
// is identified by its entire column list, so any column difference means
// a different row.
func resolveKeyColumns(ctx context.Context, db *sql.DB, table string) ([]string, bool, error) {
	keys, err := primaryKeyColumns(ctx, db, table)
	if err != nil {
		return nil, false, err
	}
	if len(keys) > 0 {
		return keys, true, nil
	}

	cols, err := tableColumns(ctx, db, table)
	if err != nil {
		return nil, false, err
	}
	all := make([]string, len(cols))
	for i, c := range cols {
		all[i] = c.Name
	}
	return all, false, nil
}

func describeTable(ctx context.Context, db *sql.DB, table string) (*TableDescriptor, error) {
	cols, err := tableColumns(ctx, db, table)
	if err != nil {
		return nil, err
	}
	keys, declared, err := resolveKeyColumns(ctx, db, table)
	if err != nil {
		return nil, err
	}
	return buildDescriptor(table, cols, keys, declared), nil
}

func buildDescriptor(table string, cols []Column, keys []string, declared bool) *TableDescriptor {
	keySet := make(map[string]bool, len(keys))
	for _, k := range keys {
		keySet[k] = true
	}

	d := &TableDescriptor{Name: table, Keys: keys, DeclaredKey: declared}
	for _, c := range cols {
		if c.Generated && !keySet[c.Name] {
			continue
		}
		d.Columns = append(d.Columns, c.Name)
		if !c.Generated {
			d.Insertable = append(d.Insertable, c.Name)
		}
	}

	pos := make(map[string]int, len(d.Columns))
	for i, name := range d.Columns {
		pos[name] = i
	}
	for _, k := range keys {
		d.keyIdx = append(d.keyIdx, pos[k])
	}
	for _, name := range d.Insertable {
		d.insertIdx = append(d.insertIdx, pos[name])
		if !keySet[name] {
			d.compareIdx = append(d.compareIdx, pos[name])
		}
	}
	return d
}

// nonKeyInsertable reports whether the table has any column an UPDATE
// could touch. Key-only tables can never classify as Update.
func (d *TableDescriptor) nonKeyInsertable() bool {
	return len(d.compareIdx) > 0
}

var createTableRe = regexp.MustCompile(`(?i)^\s*CREATE\s+TABLE\s+`)

// createStatement extracts the source DDL for a table, rewritten so that
// replaying it against a destination where the table already exists is a
// no-op instead of an error.
func createStatement(ctx context.Context, db *sql.DB, table string) (string, error) {
	var name, ddl string
	query := fmt.Sprintf("SHOW CREATE TABLE %s", quoteIdent(table))
	if err := db.QueryRowContext(ctx, query).Scan(&name, &ddl); err != nil {
		return "", err
	}
	return makeIdempotent(ddl), nil
}

func makeIdempotent(ddl string) string {
	if regexp.MustCompile(`(?i)CREATE\s+TABLE\s+IF\s+NOT\s+EXISTS`).MatchString(ddl) {
		return ddl
	}
	return createTableRe.ReplaceAllString(ddl, "CREATE TABLE IF NOT EXISTS ")
}

func rowCount(ctx context.Context, db *sql.DB, table string) (int64, error) {
	var n int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteIdent(table))
	err := db.QueryRowContext(ctx, query).Scan(&n)
	return n, err
}

func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
