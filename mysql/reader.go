package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// batchReader pulls fixed-size windows of a table's rows from the source.
// Tables with a declared primary key are paginated by keyset (ORDER BY the
// key columns, resuming after the last seen key), which stays stable under
// concurrent source writes. Tables without one fall back to LIMIT/OFFSET:
// their identity is the whole row, which may contain NULLs, and a
// row-constructor comparison against NULL is undefined.
type batchReader struct {
	db      *sql.DB
	desc    *TableDescriptor
	size    int
	total   int64 // source row count captured at pipeline start
	offset  int64
	lastKey []interface{}
	done    bool
}

func newBatchReader(db *sql.DB, desc *TableDescriptor, size int, total int64) *batchReader {
	return &batchReader{db: db, desc: desc, size: size, total: total}
}

// next returns the following window, or an empty slice once the table is
// exhausted. Windows are disjoint and cover the table in full. The offset
// fallback additionally stops once the offset reaches the row count
// captured at pipeline start, so rows appended mid-run never extend it.
func (r *batchReader) next(ctx context.Context) ([]Row, error) {
	if r.done {
		return nil, nil
	}
	if !r.desc.DeclaredKey && r.offset >= r.total {
		r.done = true
		return nil, nil
	}

	query, args := r.buildQuery()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("read batch from %s: %w", r.desc.Name, err)
	}
	batch, err := scanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("read batch from %s: %w", r.desc.Name, err)
	}

	if len(batch) < r.size {
		r.done = true
	}
	if r.desc.DeclaredKey {
		if len(batch) > 0 {
			last := batch[len(batch)-1]
			r.lastKey = make([]interface{}, len(r.desc.keyIdx))
			for i, idx := range r.desc.keyIdx {
				r.lastKey[i] = last.Raw[idx]
			}
		}
	} else {
		r.offset += int64(len(batch))
	}
	return batch, nil
}

func (r *batchReader) buildQuery() (string, []interface{}) {
	cols := make([]string, len(r.desc.Columns))
	for i, c := range r.desc.Columns {
		cols[i] = quoteIdent(c)
	}
	base := fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), quoteIdent(r.desc.Name))

	if !r.desc.DeclaredKey {
		return base + " LIMIT ? OFFSET ?", []interface{}{r.size, r.offset}
	}

	keys := make([]string, len(r.desc.Keys))
	marks := make([]string, len(r.desc.Keys))
	for i, k := range r.desc.Keys {
		keys[i] = quoteIdent(k)
		marks[i] = "?"
	}

	var args []interface{}
	query := base
	if r.lastKey != nil {
		query += fmt.Sprintf(" WHERE (%s) > (%s)", strings.Join(keys, ", "), strings.Join(marks, ", "))
		args = append(args, r.lastKey...)
	}
	query += fmt.Sprintf(" ORDER BY %s LIMIT ?", strings.Join(keys, ", "))
	args = append(args, r.size)
	return query, args
}

// scanRows drains a result set into tagged rows. Column database type
// names drive the value tagging so both sides of a comparison converge on
// the same canonical form.
func scanRows(rows *sql.Rows) ([]Row, error) {
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	dbTypes := make([]string, len(types))
	for i, t := range types {
		dbTypes[i] = t.DatabaseTypeName()
	}

	var out []Row
	for rows.Next() {
		raw := make([]interface{}, len(types))
		ptrs := make([]interface{}, len(types))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		vals := make([]Value, len(raw))
		for i, rv := range raw {
			v, err := newValue(rv, dbTypes[i])
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", types[i].Name(), err)
			}
			vals[i] = v
		}
		out = append(out, Row{Raw: raw, Values: vals})
	}
	return out, rows.Err()
}
