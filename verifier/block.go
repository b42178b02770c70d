package verifier

// Block is a single sealed record of the chain. Blocks are immutable by
// contract: only Data is owned by the caller, every other field is produced
// by the Block Factory or by a repair in the Chain Inspector.
type Block struct {
	Index     uint64 `json:"index"`
	Timestamp int64  `json:"timestamp"` // unix nanoseconds
	Data      string `json:"data"`
	PrevHash  string `json:"previous_hash"`
	Hash      string `json:"hash"`
	Signature string `json:"signature"`
}

// Entry pairs a block returned by Inspect with the status assigned to it.
type Entry struct {
	Block  Block  `json:"block"`
	Status Status `json:"status"`
}

// Repaired extracts the (possibly repaired) chain from an inspection result.
func Repaired(entries []Entry) []Block {
	blocks := make([]Block, len(entries))
	for i, e := range entries {
		blocks[i] = e.Block
	}
	return blocks
}

// Statuses extracts the status sequence from an inspection result.
func Statuses(entries []Entry) []Status {
	statuses := make([]Status, len(entries))
	for i, e := range entries {
		statuses[i] = e.Status
	}
	return statuses
}

// Counts tallies how many entries carry each status.
func Counts(entries []Entry) map[Status]int {
	counts := make(map[Status]int, 3)
	for _, e := range entries {
		counts[e.Status]++
	}
	return counts
}
