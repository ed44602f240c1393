package assertion

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/liamcoop/fakerules/constraint"
	"github.com/liamcoop/fakerules/fake"
)

type Mailer interface {
	Send(to, body string) error
	Pending() int
}

var (
	methodSend    = fake.MustMethodOf[Mailer]("Send")
	methodPending = fake.MustMethodOf[Mailer]("Pending")
)

var errRejected = errors.New("recipient rejected")

func send(m *fake.Manager, to string) error {
	return m.Intercept(fake.NewCall(nil, methodSend, to, "hello"))
}

func sendTo(to string) *fake.Config {
	return fake.CallTo(methodSend, constraint.EqualTo(to), constraint.Any())
}

func TestRepeats(t *testing.T) {
	tests := []struct {
		name   string
		repeat Repeat
		count  int
		want   bool
		desc   string
	}{
		{"exactly hit", Exactly(3), 3, true, "exactly 3 times"},
		{"exactly miss", Exactly(3), 2, false, "exactly 3 times"},
		{"once", Once(), 1, true, "exactly once"},
		{"twice miss", Twice(), 3, false, "exactly twice"},
		{"never", Never(), 0, true, "never"},
		{"never miss", Never(), 1, false, "never"},
		{"at least", AtLeast(2), 5, true, "at least twice"},
		{"at least miss", AtLeast(2), 1, false, "at least twice"},
		{"at most", AtMost(1), 0, true, "at most once"},
		{"at most miss", AtMost(1), 2, false, "at most once"},
		{"like", Like(func(n int) bool { return n%2 == 0 }, "an even number of times"), 4, true, "an even number of times"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.repeat.Match(tt.count); got != tt.want {
				t.Errorf("Match(%d) = %v, want %v", tt.count, got, tt.want)
			}
			if tt.repeat.Description != tt.desc {
				t.Errorf("Description = %q, want %q", tt.repeat.Description, tt.desc)
			}
		})
	}
}

func TestExactlyTwice(t *testing.T) {
	tests := []struct {
		name     string
		matching int
		wantErr  bool
		actual   string
	}{
		{"two matching", 2, false, ""},
		{"one matching", 1, true, "found it once"},
		{"three matching", 3, true, "found it 3 times"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := fake.NewManager()
			for i := 0; i < tt.matching; i++ {
				require.NoError(t, send(m, "ann"))
			}
			for i := 0; i < 3; i++ {
				require.NoError(t, send(m, "bob"))
			}

			err := Called(m, sendTo("ann"), Twice())
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}

			var failure *Failure
			require.ErrorAs(t, err, &failure)
			require.Equal(t, tt.matching, failure.Actual)
			require.Equal(t, "exactly twice", failure.Repeat)
			require.Len(t, failure.Calls, tt.matching+3)

			msg := err.Error()
			for _, want := range []string{"Mailer.Send(<equal to \"ann\">, <ignored>)", "exactly twice", tt.actual, `Mailer.Send("bob", "hello")`} {
				if !strings.Contains(msg, want) {
					t.Errorf("explanation missing %q:\n%s", want, msg)
				}
			}
		})
	}
}

func TestFailureWithoutCalls(t *testing.T) {
	m := fake.NewManager()
	err := Called(m, fake.CallTo(methodPending), Once())

	var failure *Failure
	require.ErrorAs(t, err, &failure)
	require.Empty(t, failure.Calls)
	require.Contains(t, err.Error(), "no calls were made")
	require.Contains(t, err.Error(), "found it 0 times")
}

func TestFaultingCallIsCounted(t *testing.T) {
	m := fake.NewManager()
	_, err := m.Configure(sendTo("ann").Fails(errRejected))
	require.NoError(t, err)

	if err := send(m, "ann"); err != errRejected {
		t.Fatalf("Send() error = %v, want %v", err, errRejected)
	}
	require.NoError(t, Called(m, sendTo("ann"), AtLeast(1)))

	err = Called(m, sendTo("ann"), Never())
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed: recipient rejected")
}

func TestCalledWithInvalidConfig(t *testing.T) {
	m := fake.NewManager()
	err := Called(m, fake.CallTo(methodSend, constraint.Any()), Once())

	var cfgErr *fake.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestAssertWasCalledWithCustomTest(t *testing.T) {
	m := fake.NewManager()
	require.NoError(t, send(m, "ann"))
	require.NoError(t, m.Intercept(fake.NewCall(nil, methodPending)))

	isSend := func(c *fake.Call) bool { return c.Method.Identity == methodSend.Identity }
	err := AssertWasCalled(m.History(), isSend, "any send", func(n int) bool { return n == 1 }, "exactly once")
	require.NoError(t, err)
}

func TestNextCallTo(t *testing.T) {
	m := fake.NewManager()
	require.NoError(t, send(m, "ann"))
	require.NoError(t, send(m, "ann"))
	require.NoError(t, send(m, "bob"))

	_, err := NextCallTo(m, Twice())
	require.NoError(t, err)
	require.NoError(t, send(m, "ann"), "the recording call is not counted")

	_, err = NextCallTo(m, Twice())
	require.NoError(t, err)
	var failure *Failure
	require.ErrorAs(t, send(m, "bob"), &failure)
	require.Equal(t, 1, failure.Actual)
	require.Equal(t, 3, m.History().Len())
}

func TestAssertWhileCalling(t *testing.T) {
	m := fake.NewManager()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			_ = send(m, "ann")
		}
	}()

	for i := 0; i < 50; i++ {
		if err := Called(m, sendTo("ann"), AtMost(500)); err != nil {
			t.Fatalf("Called() failed: %v", err)
		}
	}
	wg.Wait()

	require.NoError(t, Called(m, sendTo("ann"), Exactly(500)))
}
