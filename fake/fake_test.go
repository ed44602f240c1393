package fake

import (
	"errors"
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// Store is the collaborator faked throughout these tests.
type Store interface {
	Get(key string) (string, error)
	Put(key, value string) error
	Lookup(key string) (string, bool, error)
	Count() int
	Reset()
}

var (
	methodGet    = MustMethodOf[Store]("Get")
	methodPut    = MustMethodOf[Store]("Put")
	methodLookup = MustMethodOf[Store]("Lookup")
	methodCount  = MustMethodOf[Store]("Count")
	methodReset  = MustMethodOf[Store]("Reset")
)

var errBoom = errors.New("boom")

// eq is a minimal equality constraint so the tests do not depend on the
// constraint package's descriptions.
type eq struct{ want any }

func (c eq) IsValid(arg any) bool { return arg == c.want }
func (c eq) String() string { return "<eq>" }

type anything struct{}

func (anything) IsValid(any) bool { return true }
func (anything) String() string { return "<ignored>" }

func intercept(t *testing.T, m *Manager, method Method, args ...any) *Call {
	t.Helper()
	call := NewCall(nil, method, args...)
	if err := m.Intercept(call); err != nil {
		t.Fatalf("Intercept(%s) failed: %v", call, err)
	}
	return call
}

func mustConfigure(t *testing.T, m *Manager, cfg *Config) *Rule {
	t.Helper()
	r, err := m.Configure(cfg)
	if err != nil {
		t.Fatalf("Configure() failed: %v", err)
	}
	return r
}
