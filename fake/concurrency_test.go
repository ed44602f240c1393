package fake

import (
	"sync"
	"sync/atomic"
	"testing"

	"golang.org/x/sync/errgroup"
)

func TestConcurrentMutationDuringDispatch(t *testing.T) {
	const (
		callers = 8
		calls   = 200
	)

	m := NewManager()
	var applied atomic.Int64
	countRule := func() *Config {
		return CallTo(methodCount).
			Invokes(func(*Call) { applied.Add(1) }).
			Returns(1)
	}

	stop := make(chan struct{})
	var mutators sync.WaitGroup
	mutators.Add(1)
	go func() {
		defer mutators.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			r, err := countRule().Build()
			if err != nil {
				t.Errorf("Build() failed: %v", err)
				return
			}
			switch i % 4 {
			case 0:
				m.Rules().InsertFirst(r)
			case 1:
				m.Rules().InsertLast(r)
			case 2:
				if snap := m.Rules().Snapshot(); snap.Len() > 0 {
					m.Rules().Remove(snap.At(0))
				}
			case 3:
				m.Rules().Clear()
			}
		}
	}()

	var g errgroup.Group
	var ruled, defaulted atomic.Int64
	for i := 0; i < callers; i++ {
		g.Go(func() error {
			for j := 0; j < calls; j++ {
				call := NewCall(nil, methodCount)
				if err := m.Intercept(call); err != nil {
					return err
				}
				switch call.ReturnValue() {
				case 1:
					ruled.Add(1)
				case 0:
					defaulted.Add(1)
				default:
					t.Errorf("unexpected return value %v", call.ReturnValue())
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("Intercept() failed: %v", err)
	}
	close(stop)
	mutators.Wait()

	if got := ruled.Load() + defaulted.Load(); got != callers*calls {
		t.Errorf("dispatched %d calls, want %d", got, callers*calls)
	}
	if applied.Load() != ruled.Load() {
		t.Errorf("rules applied %d times for %d ruled calls", applied.Load(), ruled.Load())
	}
	if m.History().Len() != callers*calls {
		t.Errorf("History().Len() = %d, want %d", m.History().Len(), callers*calls)
	}
}

func TestConcurrentCeilingIsExact(t *testing.T) {
	const (
		callers = 8
		calls   = 100
		limit   = 50
	)

	m := NewManager()
	r := mustConfigure(t, m, CallTo(methodCount).Returns(1).NumberOfTimes(limit))

	var g errgroup.Group
	var hits atomic.Int64
	for i := 0; i < callers; i++ {
		g.Go(func() error {
			for j := 0; j < calls; j++ {
				call := NewCall(nil, methodCount)
				if err := m.Intercept(call); err != nil {
					return err
				}
				if call.ReturnValue() == 1 {
					hits.Add(1)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	if hits.Load() != limit {
		t.Errorf("rule applied to %d calls, want %d", hits.Load(), limit)
	}
	if r.TimesApplied() != limit {
		t.Errorf("TimesApplied() = %d, want %d", r.TimesApplied(), limit)
	}
}

func TestConcurrentHistorySequences(t *testing.T) {
	m := NewManager()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = m.Intercept(NewCall(nil, methodReset))
				_ = m.History().Calls()
			}
		}()
	}
	wg.Wait()

	seen := make(map[uint64]bool)
	for _, c := range m.History().Calls() {
		if seen[c.Sequence()] {
			t.Fatalf("sequence %d assigned twice", c.Sequence())
		}
		seen[c.Sequence()] = true
	}
	if len(seen) != 500 {
		t.Errorf("recorded %d calls, want 500", len(seen))
	}
}
