package docstore

import (
	"errors"
	"testing"

	"github.com/coally/coally-api/internal/repository"
)

func TestParseID(t *testing.T) {
	t.Parallel()

	id := NewID()
	oid, err := parseID(id, repository.ErrTaskNotFound)
	if err != nil {
		t.Fatalf("parseID(%q): %v", id, err)
	}
	if oid.Hex() != id {
		t.Errorf("round trip = %q, want %q", oid.Hex(), id)
	}

	for _, bad := range []string{"", "xyz", "01HZX0000000000000000000AA", "zzzzzzzzzzzzzzzzzzzzzzzz"} {
		if _, err := parseID(bad, repository.ErrTaskNotFound); !errors.Is(err, repository.ErrTaskNotFound) {
			t.Errorf("parseID(%q) = %v, want ErrTaskNotFound", bad, err)
		}
	}
}

func TestNewID_Unique(t *testing.T) {
	t.Parallel()

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewID()
		if len(id) != 24 {
			t.Fatalf("NewID() = %q, want 24 hex chars", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestDupKeyPattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		msg   string
		field string
		value string
	}{
		{`E11000 duplicate key error collection: coally.users index: users_email_key dup key: { email: "a@x.com" }`, "email", "a@x.com"},
		{`E11000 duplicate key error collection: coally.users index: users_username_key dup key: { username: "alice" }`, "username", "alice"},
	}

	for _, tt := range tests {
		m := dupKeyPattern.FindStringSubmatch(tt.msg)
		if m == nil {
			t.Errorf("no match for %q", tt.msg)
			continue
		}
		if m[1] != tt.field || m[2] != tt.value {
			t.Errorf("match = %q=%q, want %q=%q", m[1], m[2], tt.field, tt.value)
		}
	}
}

func TestAsDuplicateKey_IgnoresOtherErrors(t *testing.T) {
	t.Parallel()

	if dup := asDuplicateKey(errors.New("boom"), nil); dup != nil {
		t.Errorf("asDuplicateKey(other) = %v, want nil", dup)
	}
}
