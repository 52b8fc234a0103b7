package mysql

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind tags a scanned column value. Tagging happens once at read time, on
// both the source and destination side, so values compare on canonical
// form rather than on whatever representation a protocol happened to use
// (the text protocol hands back []byte where the binary protocol hands
// back int64, for example).
type Kind int

const (
	KindNull Kind = iota
	KindInteger
	KindFloat
	KindText
	KindDate
	KindBinary
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	case KindDate:
		return "date"
	case KindBinary:
		return "binary"
	}
	return "unknown"
}

// Value is a tagged scalar. Only the field matching Kind is meaningful.
type Value struct {
	Kind  Kind
	Int   int64
	Float float64
	Text  string
	Time  time.Time
	Bytes []byte
}

// Row pairs the driver-native scan results (kept verbatim for writing
// back to the destination, so DECIMAL and friends never round-trip
// through a lossy type) with their tagged forms used for comparison.
// Both slices follow the descriptor's read-column order.
type Row struct {
	Raw    []interface{}
	Values []Value
}

var dateLayouts = []string{
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// newValue tags a single scanned value. dbType is the column's database
// type name as reported by the driver and decides how untyped []byte or
// string payloads are interpreted.
func newValue(raw interface{}, dbType string) (Value, error) {
	if raw == nil {
		return Value{Kind: KindNull}, nil
	}

	switch v := raw.(type) {
	case int64:
		return Value{Kind: KindInteger, Int: v}, nil
	case uint64:
		if v > 1<<63-1 {
			return Value{Kind: KindText, Text: strconv.FormatUint(v, 10)}, nil
		}
		return Value{Kind: KindInteger, Int: int64(v)}, nil
	case float64:
		return Value{Kind: KindFloat, Float: v}, nil
	case float32:
		return Value{Kind: KindFloat, Float: float64(v)}, nil
	case bool:
		if v {
			return Value{Kind: KindInteger, Int: 1}, nil
		}
		return Value{Kind: KindInteger, Int: 0}, nil
	case time.Time:
		return Value{Kind: KindDate, Time: v.UTC()}, nil
	case []byte:
		return tagBytes(v, dbType)
	case string:
		return tagBytes([]byte(v), dbType)
	}
	return Value{}, fmt.Errorf("unsupported driver value %T", raw)
}

func tagBytes(b []byte, dbType string) (Value, error) {
	switch kindForType(dbType) {
	case KindInteger:
		n, err := strconv.ParseInt(string(b), 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("parse %s value %q: %w", dbType, b, err)
		}
		return Value{Kind: KindInteger, Int: n}, nil
	case KindFloat:
		f, err := strconv.ParseFloat(string(b), 64)
		if err != nil {
			return Value{}, fmt.Errorf("parse %s value %q: %w", dbType, b, err)
		}
		return Value{Kind: KindFloat, Float: f}, nil
	case KindDate:
		s := string(b)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return Value{Kind: KindDate, Time: t.UTC()}, nil
			}
		}
		return Value{}, fmt.Errorf("parse %s value %q: unrecognized layout", dbType, b)
	case KindBinary:
		return Value{Kind: KindBinary, Bytes: b}, nil
	default:
		return Value{Kind: KindText, Text: string(b)}, nil
	}
}

func kindForType(dbType string) Kind {
	switch strings.ToUpper(dbType) {
	case "TINYINT", "SMALLINT", "MEDIUMINT", "INT", "INTEGER", "BIGINT", "YEAR",
		"UNSIGNED TINYINT", "UNSIGNED SMALLINT", "UNSIGNED MEDIUMINT",
		"UNSIGNED INT", "UNSIGNED BIGINT":
		return KindInteger
	case "FLOAT", "DOUBLE", "DECIMAL", "UNSIGNED FLOAT", "UNSIGNED DOUBLE", "UNSIGNED DECIMAL":
		return KindFloat
	case "DATE", "DATETIME", "TIMESTAMP":
		return KindDate
	case "BINARY", "VARBINARY", "TINYBLOB", "BLOB", "MEDIUMBLOB", "LONGBLOB", "BIT":
		return KindBinary
	default:
		return KindText
	}
}

// Equal applies the per-kind equality rule: null only equals null,
// integers and text compare exactly, dates compare as canonical UTC
// instants, binary compares byte-wise.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindInteger:
		return v.Int == other.Int
	case KindFloat:
		return v.Float == other.Float
	case KindText:
		return v.Text == other.Text
	case KindDate:
		return v.Time.Equal(other.Time)
	case KindBinary:
		return bytes.Equal(v.Bytes, other.Bytes)
	}
	return false
}

// rowsDiffer compares the non-key insertable columns of a source row
// against its matched destination row.
func rowsDiffer(desc *TableDescriptor, src, dst Row) bool {
	for _, i := range desc.compareIdx {
		if !src.Values[i].Equal(dst.Values[i]) {
			return true
		}
	}
	return false
}
