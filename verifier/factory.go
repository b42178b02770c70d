package verifier

import (
	"fmt"
	"unicode/utf8"
)

// CreateBlock builds the block that follows prior, or a genesis block when
// prior is nil. The new block is fully sealed; appending it to a chain is
// the caller's responsibility.
func (v *Verifier) CreateBlock(prior *Block, data string) (Block, error) {
	if err := v.accept(data); err != nil {
		return Block{}, err
	}

	b := Block{
		Index:     0,
		Timestamp: v.now().UnixNano(),
		Data:      data,
		PrevHash:  v.sentinel,
	}
	if prior != nil {
		b.Index = prior.Index + 1
		b.PrevHash = prior.Hash
		// Timestamps are best-effort monotonic along the chain.
		if b.Timestamp < prior.Timestamp {
			b.Timestamp = prior.Timestamp
		}
	}
	b.Hash, b.Signature = v.seal(b)
	return b, nil
}

// accept applies the acceptance policy for block data.
func (v *Verifier) accept(data string) error {
	if data == "" {
		return &InvalidInputError{Reason: "data must not be empty"}
	}
	if len(data) > v.maxDataSize {
		return &InvalidInputError{Reason: fmt.Sprintf("data is %d bytes, limit is %d", len(data), v.maxDataSize)}
	}
	if !utf8.ValidString(data) {
		return &InvalidInputError{Reason: "data is not valid UTF-8"}
	}
	return nil
}
