package verifier

import (
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
)

func TestInspectEmptyChain(t *testing.T) {
	v := newTestVerifier(t)
	entries, err := v.Inspect(nil)
	if err != nil {
		t.Fatalf("inspecting an empty chain should not fail: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(entries))
	}
}

func TestInspectUntamperedChain(t *testing.T) {
	v := newTestVerifier(t)
	chain := buildChain(t, v, "data1", "data2", "data3", "data4", "data5")
	entries, err := v.Inspect(chain)
	if err != nil {
		t.Fatal(err)
	}
	assertStatuses(t, entries, Valid, Valid, Valid, Valid, Valid)
	for i, e := range entries {
		if e.Block != chain[i] {
			t.Fatalf("block %d: a valid block must be returned unchanged", i)
		}
	}
}

func TestInspectSingleBlockAfterCreate(t *testing.T) {
	v := newTestVerifier(t)
	chain := buildChain(t, v, "only")
	entries, err := v.Inspect(chain)
	if err != nil {
		t.Fatal(err)
	}
	assertStatuses(t, entries, Valid)
}

// TestInspectConcreteScenario edits the middle of a three block chain in
// place and checks both the statuses and the repaired links.
func TestInspectConcreteScenario(t *testing.T) {
	v := newTestVerifier(t)
	chain := buildChain(t, v, "a", "b", "c")
	oldHash := chain[1].Hash
	chain[1].Data = "B"

	entries, err := v.Inspect(chain)
	if err != nil {
		t.Fatal(err)
	}
	assertStatuses(t, entries, Valid, Tampered, Recovered)

	repaired := Repaired(entries)
	if repaired[1].Data != "B" {
		t.Fatalf("tampered data should be kept, got %q", repaired[1].Data)
	}
	if repaired[1].Hash == oldHash {
		t.Fatal("tampered block should have been re-hashed")
	}
	if !v.VerifyBlock(repaired[1]) {
		t.Fatal("repaired block 1 should be self-intact")
	}
	if repaired[2].PrevHash != repaired[1].Hash {
		t.Fatal("block 2 should link to the new hash of block 1")
	}
	if repaired[2].Data != "c" || repaired[2].Index != 2 {
		t.Fatal("recovered block must keep its data and index")
	}
	if repaired[0] != chain[0] {
		t.Fatal("block 0 should be untouched")
	}
}

func TestInspectSinglePointTamper(t *testing.T) {
	v := newTestVerifier(t)
	const n = 6
	for k := 0; k < n; k++ {
		chain := buildChain(t, v, "d0", "d1", "d2", "d3", "d4", "d5")
		chain[k].Data = fmt.Sprintf("tampered%d", k)

		entries, err := v.Inspect(chain)
		if err != nil {
			t.Fatal(err)
		}
		want := make([]Status, n)
		for i := range want {
			switch {
			case i < k:
				want[i] = Valid
			case i == k:
				want[i] = Tampered
			default:
				want[i] = Recovered
			}
		}
		assertStatuses(t, entries, want...)
	}
}

func TestInspectMultiPointTamper(t *testing.T) {
	v := newTestVerifier(t)
	chain := buildChain(t, v, "d0", "d1", "d2", "d3", "d4", "d5", "d6")
	chain[1].Data = "x"
	chain[4].Data = "y"

	entries, err := v.Inspect(chain)
	if err != nil {
		t.Fatal(err)
	}
	assertStatuses(t, entries, Valid, Tampered, Recovered, Recovered, Tampered, Recovered, Recovered)
}

func TestInspectEveryBlockTampered(t *testing.T) {
	v := newTestVerifier(t)
	chain := buildChain(t, v, "d0", "d1", "d2")
	for i := range chain {
		chain[i].Data = "edited"
	}
	entries, err := v.Inspect(chain)
	if err != nil {
		t.Fatal(err)
	}
	assertStatuses(t, entries, Tampered, Tampered, Tampered)
}

func TestInspectIsIdempotent(t *testing.T) {
	v := newTestVerifier(t)
	chain := buildChain(t, v, "d0", "d1", "d2", "d3", "d4")
	chain[0].Data = "x"
	chain[3].Data = "y"

	first, err := v.Inspect(chain)
	if err != nil {
		t.Fatal(err)
	}
	second, err := v.Inspect(Repaired(first))
	if err != nil {
		t.Fatal(err)
	}
	assertStatuses(t, second, Valid, Valid, Valid, Valid, Valid)
	for i := range first {
		if first[i].Block != second[i].Block {
			t.Fatalf("block %d changed on the second pass", i)
		}
	}
}

func TestInspectDoesNotMutateInput(t *testing.T) {
	v := newTestVerifier(t)
	chain := buildChain(t, v, "a", "b", "c")
	chain[0].Data = "A"
	before := cloneChain(chain)

	if _, err := v.Inspect(chain); err != nil {
		t.Fatal(err)
	}
	for i := range chain {
		if chain[i] != before[i] {
			t.Fatalf("block %d of the input was modified", i)
		}
	}
}

// TestInspectRejectsForgedBlock builds a block with a correctly computed
// hash but a signature made without the verifier's secret.
func TestInspectRejectsForgedBlock(t *testing.T) {
	v := newTestVerifier(t)
	chain := buildChain(t, v, "a", "b")

	forged := Block{
		Index:     2,
		Timestamp: chain[1].Timestamp + 1,
		Data:      "forged",
		PrevHash:  chain[1].Hash,
	}
	forged.Hash = v.HashBlock(forged)
	attackerMAC := HMACSHA256.Sum([]byte("guessed-secret"), mustDecodeHex(t, forged.Hash))
	forged.Signature = hex.EncodeToString(attackerMAC)
	chain = append(chain, forged)

	entries, err := v.Inspect(chain)
	if err != nil {
		t.Fatal(err)
	}
	assertStatuses(t, entries, Valid, Valid, Tampered)
}

func TestInspectRejectsStrippedSignature(t *testing.T) {
	v := newTestVerifier(t)
	chain := buildChain(t, v, "a", "b")
	chain[0].Signature = ""
	entries, err := v.Inspect(chain)
	if err != nil {
		t.Fatal(err)
	}
	assertStatuses(t, entries, Tampered, Valid)
}

// TestInspectRelinkedBlockIsTampered rewrites a previous hash by hand: the
// block's own hash no longer matches, so it counts as edited, not recovered.
func TestInspectRelinkedBlockIsTampered(t *testing.T) {
	v := newTestVerifier(t)
	chain := buildChain(t, v, "a", "b", "c")
	chain[2].PrevHash = chain[0].Hash
	entries, err := v.Inspect(chain)
	if err != nil {
		t.Fatal(err)
	}
	assertStatuses(t, entries, Valid, Valid, Tampered)
	if entries[2].Block.PrevHash != chain[1].Hash {
		t.Fatal("repair should relink block 2 to block 1")
	}
}

func TestInspectMalformedChain(t *testing.T) {
	v := newTestVerifier(t)

	gap := buildChain(t, v, "a", "b", "c")
	gap = append(gap[:1], gap[2:]...)

	emptyPrev := buildChain(t, v, "a", "b")
	emptyPrev[1].PrevHash = ""

	notFromZero := buildChain(t, v, "a", "b")[1:]

	for name, chain := range map[string][]Block{
		"index gap":           gap,
		"empty previous hash": emptyPrev,
		"not from zero":       notFromZero,
	} {
		entries, err := v.Inspect(chain)
		if !errors.Is(err, ErrMalformedChain) {
			t.Fatalf("%s: expected ErrMalformedChain, got %v", name, err)
		}
		if entries != nil {
			t.Fatalf("%s: no entries should be returned on error", name)
		}
		if Kind(err) != KindMalformedChain {
			t.Fatalf("%s: expected kind %s, got %s", name, KindMalformedChain, Kind(err))
		}
	}
}

func TestInspectAll(t *testing.T) {
	v := newTestVerifier(t)
	chains := make([][]Block, 8)
	for i := range chains {
		chains[i] = buildChain(t, v, "a", "b", "c")
		chains[i][i%3].Data = "edited"
	}
	results, err := v.InspectAll(chains)
	if err != nil {
		t.Fatal(err)
	}
	for i, entries := range results {
		k := i % 3
		want := []Status{Valid, Valid, Valid}
		want[k] = Tampered
		for j := k + 1; j < 3; j++ {
			want[j] = Recovered
		}
		assertStatuses(t, entries, want...)
	}

	chains[5] = chains[5][1:]
	if _, err := v.InspectAll(chains); !errors.Is(err, ErrMalformedChain) {
		t.Fatalf("expected ErrMalformedChain, got %v", err)
	}
}

func TestCounts(t *testing.T) {
	entries := []Entry{{Status: Valid}, {Status: Tampered}, {Status: Recovered}, {Status: Recovered}}
	counts := Counts(entries)
	if counts[Valid] != 1 || counts[Tampered] != 1 || counts[Recovered] != 2 {
		t.Fatalf("unexpected counts %v", counts)
	}
}

func mustDecodeHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatal(err)
	}
	return b
}
