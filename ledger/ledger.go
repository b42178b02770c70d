package ledger

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/luca-patrignani/chain-verifier/verifier"
	"github.com/luca-patrignani/chain-verifier/wire"
)

var (
	// ErrEmpty is returned when a block is requested from an empty ledger.
	ErrEmpty = errors.New("ledger is empty")
	// ErrIndexOutOfRange is returned for an index outside the chain.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrStaleTail is returned by AppendAfter when the tail has moved.
	ErrStaleTail = errors.New("chain tail has changed")
)

// Ledger is the caller-owned chain storage.
type Ledger struct {
	mu       sync.RWMutex
	blocks   []verifier.Block
	statuses []verifier.Status

	verifier     *verifier.Verifier
	snapshotPath string
	logger       *slog.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithSnapshotPath enables Save and Load at path.
func WithSnapshotPath(path string) Option {
	return func(l *Ledger) {
		l.snapshotPath = path
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
	}
}

// New creates an empty ledger whose blocks are minted and inspected by v.
func New(v *verifier.Verifier, opts ...Option) *Ledger {
	l := &Ledger{
		blocks:   make([]verifier.Block, 0),
		verifier: v,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Append mints a block carrying data on top of the current tail and adds it
// to the chain. The write lock is held from reading the tail to appending,
// so concurrent appends are serialized.
func (l *Ledger) Append(data string) (verifier.Block, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.appendLocked(data)
}

// AppendAfter appends only if the current tail hash is tailHash; use the
// verifier's sentinel to append to an empty ledger. It returns ErrStaleTail
// when another writer got there first.
func (l *Ledger) AppendAfter(tailHash string, data string) (verifier.Block, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	current := l.verifier.Sentinel()
	if len(l.blocks) > 0 {
		current = l.blocks[len(l.blocks)-1].Hash
	}
	if current != tailHash {
		return verifier.Block{}, fmt.Errorf("%w: expected %s, got %s", ErrStaleTail, tailHash, current)
	}
	return l.appendLocked(data)
}

func (l *Ledger) appendLocked(data string) (verifier.Block, error) {
	var prior *verifier.Block
	if len(l.blocks) > 0 {
		prior = &l.blocks[len(l.blocks)-1]
	}
	b, err := l.verifier.CreateBlock(prior, data)
	if err != nil {
		return verifier.Block{}, err
	}
	l.blocks = append(l.blocks, b)
	// A new block is valid by construction; earlier statuses stay as reported.
	if len(l.statuses) == len(l.blocks)-1 {
		l.statuses = append(l.statuses, verifier.Valid)
	}
	l.logger.Debug("block appended", "index", b.Index, "hash", b.Hash)
	return b, nil
}

// Inspect runs the chain inspector over a snapshot of the ledger and
// replaces the stored chain and statuses with the result. On error the
// ledger is left unchanged.
func (l *Ledger) Inspect() ([]verifier.Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.verifier.Inspect(l.blocks)
	if err != nil {
		return nil, fmt.Errorf("inspect: %w", err)
	}
	l.blocks = verifier.Repaired(entries)
	l.statuses = verifier.Statuses(entries)

	counts := verifier.Counts(entries)
	l.logger.Info("chain inspected",
		"blocks", len(entries),
		"valid", counts[verifier.Valid],
		"tampered", counts[verifier.Tampered],
		"recovered", counts[verifier.Recovered],
	)
	return entries, nil
}

// Tamper overwrites the data of the block at index without re-sealing it.
func (l *Ledger) Tamper(index int, data string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if index < 0 || index >= len(l.blocks) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	l.blocks[index].Data = data
	// Statuses from this block on are unknown until the next inspection.
	if index < len(l.statuses) {
		l.statuses = l.statuses[:index]
	}
	l.logger.Warn("block data modified out of band", "index", index)
	return nil
}

// Blocks returns a copy of the chain, oldest first.
func (l *Ledger) Blocks() []verifier.Block {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]verifier.Block(nil), l.blocks...)
}

// Entries returns the chain paired with the last known statuses. Blocks
// without one are reported Valid if they are self-intact and Tampered
// otherwise. Nothing is repaired.
func (l *Ledger) Entries() []verifier.Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entries := make([]verifier.Entry, len(l.blocks))
	for i, b := range l.blocks {
		status := verifier.Valid
		if i < len(l.statuses) {
			status = l.statuses[i]
		} else if !l.verifier.VerifyBlock(b) {
			status = verifier.Tampered
		}
		entries[i] = verifier.Entry{Block: b, Status: status}
	}
	return entries
}

// Len returns the number of blocks in the chain.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.blocks)
}

// GetLatest returns the tail of the chain.
func (l *Ledger) GetLatest() (verifier.Block, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.blocks) == 0 {
		return verifier.Block{}, ErrEmpty
	}
	return l.blocks[len(l.blocks)-1], nil
}

// GetByIndex retrieves a block by its index in the chain.
func (l *Ledger) GetByIndex(index int) (verifier.Block, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if index < 0 || index >= len(l.blocks) {
		return verifier.Block{}, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	return l.blocks[index], nil
}

// Verify checks the chain without repairing it and reports the first block
// that is not Valid.
func (l *Ledger) Verify() error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entries, err := l.verifier.Inspect(l.blocks)
	if err != nil {
		return err
	}
	for i, e := range entries {
		if e.Status != verifier.Valid {
			return fmt.Errorf("block %d invalid: %s", i, e.Status)
		}
	}
	return nil
}

// Save writes the chain and its statuses to the snapshot path. It is a no-op
// when no path is configured.
func (l *Ledger) Save() error {
	if l.snapshotPath == "" {
		return nil
	}
	l.mu.RLock()
	data, err := wire.EncodeSnapshot(l.blocks, l.statuses)
	l.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(l.snapshotPath), ".snapshot-*")
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("save snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), l.snapshotPath); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	l.logger.Info("snapshot saved", "path", l.snapshotPath, "blocks", len(l.blocks))
	return nil
}

// Load replaces the ledger contents with the snapshot at the snapshot path.
// A missing file leaves the ledger empty and is not an error.
func (l *Ledger) Load() error {
	if l.snapshotPath == "" {
		return nil
	}
	data, err := os.ReadFile(l.snapshotPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load snapshot: %w", err)
	}
	blocks, statuses, err := wire.DecodeSnapshot(data)
	if err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.blocks = blocks
	l.statuses = statuses
	l.logger.Info("snapshot loaded", "path", l.snapshotPath, "blocks", len(blocks))
	return nil
}
