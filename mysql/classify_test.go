package mysql

import (
	"context"
	"testing"
)

func TestLookupSQL(t *testing.T) {
	tests := []struct {
		name string
		desc *TableDescriptor
		want string
	}{
		{
			name: "single key",
			desc: keyedDescriptor(),
			want: "SELECT `id`, `name` FROM `employees` WHERE `id` <=> ? LIMIT 1",
		},
		{
			name: "fallback identity uses every column",
			desc: keylessDescriptor(),
			want: "SELECT `ts`, `line` FROM `log_lines` WHERE `ts` <=> ? AND `line` <=> ? LIMIT 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := lookupSQL(tt.desc); got != tt.want {
				t.Errorf("lookupSQL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAbsentClassifierInsertsEverything(t *testing.T) {
	desc := keyedDescriptor()
	cls := newAbsentClassifier(desc)
	defer cls.Close()

	row := Row{
		Raw:    []interface{}{int64(1), "alice"},
		Values: []Value{{Kind: KindInteger, Int: 1}, {Kind: KindText, Text: "alice"}},
	}

	d, err := cls.classify(context.Background(), row)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if d.Action != ActionInsert {
		t.Errorf("Expected insert, got %s", d.Action)
	}
	if d.KeyOnly {
		t.Error("Insert must not carry the key-only flag")
	}
}

func TestActionString(t *testing.T) {
	if ActionInsert.String() != "insert" || ActionUpdate.String() != "update" || ActionSkip.String() != "skip" {
		t.Error("Action string forms changed")
	}
}

// Fallback identity means two rows differing in any single column are
// never the same logical row: the lookup predicate covers every column,
// so a changed column misses the match and classifies as insert rather
// than update.
func TestFallbackIdentityCoversAllColumns(t *testing.T) {
	desc := keylessDescriptor()

	if desc.nonKeyInsertable() {
		t.Fatal("Keyless table must have no non-key columns")
	}
	if len(desc.Keys) != len(desc.Columns) {
		t.Errorf("Expected identity over all %d columns, got %d", len(desc.Columns), len(desc.Keys))
	}
}
