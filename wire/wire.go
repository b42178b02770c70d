// Package wire defines the stable external encodings of blocks and
// inspection results: JSON for the HTTP API and protobuf for snapshots.
package wire

import (
	"errors"
	"fmt"

	"go.dedis.ch/protobuf"

	"github.com/luca-patrignani/chain-verifier/verifier"
)

// SnapshotVersion is written into every snapshot.
const SnapshotVersion uint32 = 1

// ErrUnsupportedVersion is returned when decoding a snapshot written by an
// incompatible version.
var ErrUnsupportedVersion = errors.New("unsupported snapshot version")

// BlockJSON is the JSON form of a block.
type BlockJSON struct {
	Index        uint64 `json:"index"`
	Timestamp    int64  `json:"timestamp"`
	Data         string `json:"data"`
	PreviousHash string `json:"previous_hash"`
	Hash         string `json:"hash"`
	Signature    string `json:"signature"`
}

// EntryJSON is the JSON form of an inspected block. Status carries the
// name and StatusCode the stable ordinal.
type EntryJSON struct {
	Block      BlockJSON `json:"block"`
	Status     string    `json:"status"`
	StatusCode uint8     `json:"status_code"`
}

func BlockToJSON(b verifier.Block) BlockJSON {
	return BlockJSON{
		Index:        b.Index,
		Timestamp:    b.Timestamp,
		Data:         b.Data,
		PreviousHash: b.PrevHash,
		Hash:         b.Hash,
		Signature:    b.Signature,
	}
}

func BlockFromJSON(b BlockJSON) verifier.Block {
	return verifier.Block{
		Index:     b.Index,
		Timestamp: b.Timestamp,
		Data:      b.Data,
		PrevHash:  b.PreviousHash,
		Hash:      b.Hash,
		Signature: b.Signature,
	}
}

// EntriesToJSON converts an inspection result, keeping its order.
func EntriesToJSON(entries []verifier.Entry) []EntryJSON {
	out := make([]EntryJSON, len(entries))
	for i, e := range entries {
		out[i] = EntryJSON{
			Block:      BlockToJSON(e.Block),
			Status:     e.Status.String(),
			StatusCode: uint8(e.Status),
		}
	}
	return out
}

// EntriesFromJSON converts back, trusting the ordinal over the name.
func EntriesFromJSON(in []EntryJSON) ([]verifier.Entry, error) {
	out := make([]verifier.Entry, len(in))
	for i, e := range in {
		status, err := verifier.StatusFromOrdinal(uint32(e.StatusCode))
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		out[i] = verifier.Entry{Block: BlockFromJSON(e.Block), Status: status}
	}
	return out, nil
}

// blockPB is the protobuf form of a block. Field order is the wire order.
type blockPB struct {
	Index     uint64
	Timestamp int64
	Data      string
	PrevHash  string
	Hash      string
	Signature string
}

type snapshotPB struct {
	Version  uint32
	Blocks   []blockPB
	Statuses []uint32
}

// EncodeSnapshot serializes a chain and the statuses known for it.
// statuses may be shorter than blocks but never longer.
func EncodeSnapshot(blocks []verifier.Block, statuses []verifier.Status) ([]byte, error) {
	if len(statuses) > len(blocks) {
		return nil, fmt.Errorf("%d statuses for %d blocks", len(statuses), len(blocks))
	}
	s := snapshotPB{
		Version:  SnapshotVersion,
		Blocks:   make([]blockPB, len(blocks)),
		Statuses: make([]uint32, len(statuses)),
	}
	for i, b := range blocks {
		s.Blocks[i] = blockPB(b)
	}
	for i, st := range statuses {
		if !st.IsKnown() {
			return nil, fmt.Errorf("block %d: unknown status %d", i, uint8(st))
		}
		s.Statuses[i] = uint32(st)
	}
	return protobuf.Encode(&s)
}

// DecodeSnapshot is the inverse of EncodeSnapshot.
func DecodeSnapshot(data []byte) ([]verifier.Block, []verifier.Status, error) {
	var s snapshotPB
	if err := protobuf.Decode(data, &s); err != nil {
		return nil, nil, err
	}
	if s.Version != SnapshotVersion {
		return nil, nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, s.Version)
	}
	if len(s.Statuses) > len(s.Blocks) {
		return nil, nil, fmt.Errorf("%d statuses for %d blocks", len(s.Statuses), len(s.Blocks))
	}
	blocks := make([]verifier.Block, len(s.Blocks))
	for i, b := range s.Blocks {
		blocks[i] = verifier.Block(b)
	}
	statuses := make([]verifier.Status, len(s.Statuses))
	for i, ord := range s.Statuses {
		st, err := verifier.StatusFromOrdinal(ord)
		if err != nil {
			return nil, nil, fmt.Errorf("block %d: %w", i, err)
		}
		statuses[i] = st
	}
	return blocks, statuses, nil
}
