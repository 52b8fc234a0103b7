package mysql

import (
	"fmt"
	"strings"
)

// ConnectionError is fatal: without both live handles there is no run.
type ConnectionError struct {
	Host     string
	Database string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect to %s/%s: %v", e.Host, e.Database, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// IntrospectionError scopes a metadata failure to a single table.
type IntrospectionError struct {
	Table string
	Err   error
}

func (e *IntrospectionError) Error() string {
	return fmt.Sprintf("introspect table %s: %v", e.Table, e.Err)
}

func (e *IntrospectionError) Unwrap() error { return e.Err }

// ApplyError reports a failed batch. The failing batch was rolled back;
// batches committed before it remain applied.
type ApplyError struct {
	Table string
	Batch int
	Err   error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("apply batch %d to table %s: %v", e.Batch, e.Table, e.Err)
}

func (e *ApplyError) Unwrap() error { return e.Err }

// KeyMismatchError means source and destination disagree on a table's
// identity columns. Proceeding would risk duplicate or orphaned rows, so
// the table is failed instead of silently preferring the source's keys.
type KeyMismatchError struct {
	Table      string
	SourceKeys []string
	DestKeys   []string
}

func (e *KeyMismatchError) Error() string {
	return fmt.Sprintf("key columns for table %s differ between source (%s) and destination (%s)",
		e.Table, strings.Join(e.SourceKeys, ","), strings.Join(e.DestKeys, ","))
}
