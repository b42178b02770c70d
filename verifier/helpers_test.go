package verifier

import (
	"testing"
	"time"
)

// steppingClock returns a clock that advances one second on every call,
// so timestamps in tests are deterministic and strictly increasing.
func steppingClock() func() time.Time {
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newTestVerifier(t *testing.T, opts ...Option) *Verifier {
	t.Helper()
	opts = append([]Option{WithClock(steppingClock())}, opts...)
	v, err := New([]byte("test-secret"), opts...)
	if err != nil {
		t.Fatalf("failed to create verifier: %v", err)
	}
	return v
}

// buildChain mints one block per payload, each linked to the previous one.
func buildChain(t *testing.T, v *Verifier, data ...string) []Block {
	t.Helper()
	chain := make([]Block, 0, len(data))
	for _, d := range data {
		var prior *Block
		if len(chain) > 0 {
			prior = &chain[len(chain)-1]
		}
		b, err := v.CreateBlock(prior, d)
		if err != nil {
			t.Fatalf("failed to create block %q: %v", d, err)
		}
		chain = append(chain, b)
	}
	return chain
}

func cloneChain(chain []Block) []Block {
	return append([]Block(nil), chain...)
}

func assertStatuses(t *testing.T, entries []Entry, want ...Status) {
	t.Helper()
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i, e := range entries {
		if e.Status != want[i] {
			t.Fatalf("block %d: expected status %s, got %s (all: %v)", i, want[i], e.Status, Statuses(entries))
		}
	}
}
