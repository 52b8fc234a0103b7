package mysql

import (
	"errors"
	"strings"
	"testing"
)

func TestErrorWrapping(t *testing.T) {
	cause := errors.New("duplicate entry")

	var err error = &ApplyError{Table: "orders", Batch: 3, Err: cause}
	if !errors.Is(err, cause) {
		t.Error("ApplyError should unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "batch 3") || !strings.Contains(err.Error(), "orders") {
		t.Errorf("ApplyError message incomplete: %v", err)
	}

	err = &IntrospectionError{Table: "orders", Err: cause}
	if !errors.Is(err, cause) {
		t.Error("IntrospectionError should unwrap to its cause")
	}

	err = &ConnectionError{Host: "db", Database: "app", Err: cause}
	if !errors.Is(err, cause) {
		t.Error("ConnectionError should unwrap to its cause")
	}
}

func TestKeyMismatchErrorMessage(t *testing.T) {
	err := &KeyMismatchError{
		Table:      "users",
		SourceKeys: []string{"id"},
		DestKeys:   []string{"email"},
	}

	msg := err.Error()
	if !strings.Contains(msg, "users") || !strings.Contains(msg, "id") || !strings.Contains(msg, "email") {
		t.Errorf("Message should name table and both key sets: %s", msg)
	}
}
