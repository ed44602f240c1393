package fake

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func buildRule(t *testing.T, cfg *Config) *Rule {
	t.Helper()
	r, err := cfg.Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	return r
}

func ids(rules []*Rule) []string {
	out := make([]string, len(rules))
	for i, r := range rules {
		out[i] = r.ID()
	}
	return out
}

func TestRegistryOrdering(t *testing.T) {
	reg := NewRegistry()
	a := buildRule(t, AnyCall())
	b := buildRule(t, AnyCall())
	c := buildRule(t, AnyCall())

	reg.InsertLast(a)
	reg.InsertFirst(b)
	reg.InsertLast(c)

	want := []string{b.ID(), a.ID(), c.ID()}
	if diff := cmp.Diff(want, ids(reg.Snapshot().Rules())); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}

	// re-inserting moves instead of duplicating
	reg.InsertFirst(c)
	want = []string{c.ID(), b.ID(), a.ID()}
	if diff := cmp.Diff(want, ids(reg.Snapshot().Rules())); diff != "" {
		t.Errorf("order after move mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistryRemove(t *testing.T) {
	reg := NewRegistry()
	a := buildRule(t, AnyCall())
	b := buildRule(t, AnyCall())
	reg.InsertLast(a)
	reg.InsertLast(b)

	if !reg.Remove(a) {
		t.Error("Remove() should report a registered rule")
	}
	if reg.Remove(a) {
		t.Error("Remove() should report false for an absent rule")
	}
	if reg.Find(b.ID()) != b {
		t.Error("Find() should return the remaining rule")
	}
	if !reg.RemoveByID(b.ID()) {
		t.Error("RemoveByID() should remove the rule")
	}
	if reg.Len() != 0 {
		t.Errorf("Len() = %d, want 0", reg.Len())
	}
}

func TestRegistrySnapshotsAreImmutable(t *testing.T) {
	reg := NewRegistry()
	a := buildRule(t, AnyCall())
	reg.InsertFirst(a)

	before := reg.Snapshot()
	reg.InsertFirst(buildRule(t, AnyCall()))
	reg.Clear()

	if before.Len() != 1 || before.At(0) != a {
		t.Error("a snapshot taken before mutation must not change")
	}
	if reg.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", reg.Len())
	}
	if got := reg.Snapshot().Version(); got != before.Version()+2 {
		t.Errorf("Version() = %d, want %d", got, before.Version()+2)
	}
}

func TestRegistrySnapshotRulesIsACopy(t *testing.T) {
	reg := NewRegistry()
	a := buildRule(t, AnyCall())
	reg.InsertFirst(a)

	rules := reg.Snapshot().Rules()
	rules[0] = nil

	if reg.Snapshot().At(0) != a {
		t.Error("modifying Rules() output must not affect the registry")
	}
}
