package verifier

import (
	"crypto/hmac"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// DefaultMaxDataSize bounds the payload accepted by CreateBlock.
const DefaultMaxDataSize = 64 * 1024

// Verifier mints and inspects blocks with a single secret. It retains no
// chain between calls and is safe for concurrent use.
type Verifier struct {
	secret      []byte
	digest      Digest
	mac         MAC
	maxDataSize int
	now         func() time.Time
	sentinel    string
}

// Option configures a Verifier.
type Option func(*Verifier)

func WithDigest(d Digest) Option {
	return func(v *Verifier) {
		v.digest = d
	}
}

func WithMAC(m MAC) Option {
	return func(v *Verifier) {
		v.mac = m
	}
}

// WithMaxDataSize sets the largest payload, in bytes, accepted by CreateBlock.
func WithMaxDataSize(n int) Option {
	return func(v *Verifier) {
		v.maxDataSize = n
	}
}

// WithClock replaces time.Now as the source of block timestamps.
func WithClock(now func() time.Time) Option {
	return func(v *Verifier) {
		v.now = now
	}
}

// New creates a Verifier keyed with secret. The secret is copied, so the
// caller may wipe its own slice afterwards. An empty secret is rejected.
func New(secret []byte, opts ...Option) (*Verifier, error) {
	v := &Verifier{
		digest:      SHA256,
		mac:         HMACSHA256,
		maxDataSize: DefaultMaxDataSize,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	if len(secret) == 0 {
		return nil, ErrInvalidSecret
	}
	if v.digest == nil || v.mac == nil {
		return nil, fmt.Errorf("%w: nil primitive", ErrUnknownAlgorithm)
	}
	if err := v.mac.CheckKey(secret); err != nil {
		return nil, err
	}
	if v.maxDataSize <= 0 {
		return nil, fmt.Errorf("max data size must be positive, got %d", v.maxDataSize)
	}
	v.secret = append([]byte(nil), secret...)
	v.sentinel = strings.Repeat("0", 2*v.digest.Size())
	return v, nil
}

// Sentinel returns the previous hash carried by a genesis block: the all-zero
// digest, hex encoded.
func (v *Verifier) Sentinel() string {
	return v.sentinel
}

// MaxDataSize returns the acceptance bound of CreateBlock.
func (v *Verifier) MaxDataSize() int {
	return v.maxDataSize
}

// Algorithms returns the names of the digest and MAC in use.
func (v *Verifier) Algorithms() (digest, mac string) {
	return v.digest.Name(), v.mac.Name()
}

// HashBlock computes the digest of a block's own fields, ignoring the Hash
// and Signature it currently carries.
func (v *Verifier) HashBlock(b Block) string {
	return hex.EncodeToString(v.digest.Sum(EncodeFields(b.Index, b.Timestamp, b.Data, b.PrevHash)))
}

// Sign computes the signature of a hex encoded hash.
func (v *Verifier) Sign(hash string) (string, error) {
	raw, err := hex.DecodeString(hash)
	if err != nil {
		return "", fmt.Errorf("decode hash: %w", err)
	}
	return hex.EncodeToString(v.mac.Sum(v.secret, raw)), nil
}

// VerifyBlock reports whether b is self-intact: its Hash and Signature are
// exactly what the verifier would produce from its current fields.
func (v *Verifier) VerifyBlock(b Block) bool {
	hash, sig := v.seal(b)
	return equal(hash, b.Hash) && equal(sig, b.Signature)
}

// seal returns the hash and signature of b's current fields.
func (v *Verifier) seal(b Block) (hash, signature string) {
	sum := v.digest.Sum(EncodeFields(b.Index, b.Timestamp, b.Data, b.PrevHash))
	return hex.EncodeToString(sum), hex.EncodeToString(v.mac.Sum(v.secret, sum))
}

func equal(a, b string) bool {
	return hmac.Equal([]byte(a), []byte(b))
}

// String never includes the secret.
func (v *Verifier) String() string {
	return fmt.Sprintf("Verifier{digest: %s, mac: %s, secret: [REDACTED]}", v.digest.Name(), v.mac.Name())
}

// LogValue keeps the secret out of structured logs.
func (v *Verifier) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("digest", v.digest.Name()),
		slog.String("mac", v.mac.Name()),
		slog.Int("max_data_size", v.maxDataSize),
	)
}
