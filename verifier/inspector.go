package verifier

import (
	"fmt"
	"runtime"
	"sync"
)

// Inspect verifies chain oldest-first, repairs broken links and returns every
// block with its status, in the same order.
//
// A block whose own hash or signature no longer matches its fields is
// Tampered; its edited content is accepted and re-sealed on top of the
// repaired predecessor. A self-intact block whose previous hash no longer
// matches the repaired predecessor is Recovered and relinked. Everything else
// is Valid and returned unchanged.
//
// The input slice is never modified. Inspect fails only with a
// *MalformedChainError, in which case nothing is returned.
func (v *Verifier) Inspect(chain []Block) ([]Entry, error) {
	if err := checkStructure(chain); err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(chain))
	expectedPrevHash := v.sentinel
	for _, b := range chain {
		hash, sig := v.seal(b)
		selfIntact := equal(hash, b.Hash) && equal(sig, b.Signature)
		linkIntact := b.PrevHash == expectedPrevHash

		status := Valid
		switch {
		case !selfIntact:
			status = Tampered
		case !linkIntact:
			status = Recovered
		}
		if status != Valid {
			b.PrevHash = expectedPrevHash
			b.Hash, b.Signature = v.seal(b)
		}

		expectedPrevHash = b.Hash
		entries = append(entries, Entry{Block: b, Status: status})
	}
	return entries, nil
}

// checkStructure enforces the preconditions Inspect does not classify:
// contiguous indices from zero and a present previous hash.
func checkStructure(chain []Block) error {
	for i, b := range chain {
		if b.Index != uint64(i) {
			return &MalformedChainError{Index: i, Reason: fmt.Sprintf("index %d is not contiguous", b.Index)}
		}
		if b.PrevHash == "" {
			return &MalformedChainError{Index: i, Reason: "previous hash is empty"}
		}
	}
	return nil
}

// InspectAll inspects independent chain snapshots in parallel. Results are
// returned in the order of chains. If any chain is malformed, the error of
// the earliest one is returned and no results are.
func (v *Verifier) InspectAll(chains [][]Block) ([][]Entry, error) {
	results := make([][]Entry, len(chains))
	errs := make([]error, len(chains))

	workerPool := make(chan struct{}, runtime.GOMAXPROCS(0))
	var wg sync.WaitGroup
	for i, chain := range chains {
		wg.Add(1)
		workerPool <- struct{}{}
		go func(i int, chain []Block) {
			defer func() {
				<-workerPool
				wg.Done()
			}()
			results[i], errs[i] = v.Inspect(chain)
		}(i, chain)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
