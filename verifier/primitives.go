package verifier

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"

	"go.dedis.ch/kyber/v4/suites"
	"go.dedis.ch/kyber/v4/util/random"
	"golang.org/x/crypto/blake2b"
)

// Digest is the unkeyed hash used to compute Block.Hash.
type Digest interface {
	Name() string
	Size() int
	Sum(msg []byte) []byte
}

// MAC is the keyed authentication code used to compute Block.Signature.
type MAC interface {
	Name() string
	// CheckKey reports whether key can be used with this MAC.
	CheckKey(key []byte) error
	Sum(key, msg []byte) []byte
}

var suite suites.Suite = suites.MustFind("Ed25519")

type sha256Digest struct{}

func (sha256Digest) Name() string { return "sha256" }
func (sha256Digest) Size() int    { return sha256.Size }
func (sha256Digest) Sum(msg []byte) []byte {
	sum := sha256.Sum256(msg)
	return sum[:]
}

type blake2bDigest struct{}

func (blake2bDigest) Name() string { return "blake2b-256" }
func (blake2bDigest) Size() int    { return blake2b.Size256 }
func (blake2bDigest) Sum(msg []byte) []byte {
	sum := blake2b.Sum256(msg)
	return sum[:]
}

// suiteDigest hashes with the hash function of a kyber suite.
type suiteDigest struct {
	suite suites.Suite
}

func (d suiteDigest) Name() string { return "ed25519-suite" }
func (d suiteDigest) Size() int    { return d.suite.Hash().Size() }
func (d suiteDigest) Sum(msg []byte) []byte {
	h := d.suite.Hash()
	h.Write(msg)
	return h.Sum(nil)
}

type hmacSHA256 struct{}

func (hmacSHA256) Name() string { return "hmac-sha256" }

func (hmacSHA256) CheckKey(key []byte) error {
	if len(key) == 0 {
		return ErrInvalidSecret
	}
	return nil
}

func (hmacSHA256) Sum(key, msg []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(msg)
	return mac.Sum(nil)
}

type keyedBLAKE2b struct{}

func (keyedBLAKE2b) Name() string { return "blake2b-keyed" }

func (keyedBLAKE2b) CheckKey(key []byte) error {
	if len(key) == 0 || len(key) > blake2b.Size {
		return fmt.Errorf("%w: blake2b keys must be 1..%d bytes", ErrInvalidSecret, blake2b.Size)
	}
	return nil
}

func (keyedBLAKE2b) Sum(key, msg []byte) []byte {
	h, err := blake2b.New256(key)
	if err != nil {
		// CheckKey runs at construction, so the key is always accepted here.
		panic(err)
	}
	h.Write(msg)
	return h.Sum(nil)
}

// suiteXOF authenticates by seeding the suite's extendable output function
// with the secret, absorbing the message and squeezing macSize bytes.
type suiteXOF struct {
	suite suites.Suite
}

const macSize = 32

func (m suiteXOF) Name() string { return "blake2xb" }

func (m suiteXOF) CheckKey(key []byte) error {
	if len(key) == 0 {
		return ErrInvalidSecret
	}
	return nil
}

func (m suiteXOF) Sum(key, msg []byte) []byte {
	xof := m.suite.XOF(key)
	if _, err := xof.Write(msg); err != nil {
		panic(err)
	}
	out := make([]byte, macSize)
	if _, err := xof.Read(out); err != nil {
		panic(err)
	}
	return out
}

var (
	// SHA256 is the default digest.
	SHA256 Digest = sha256Digest{}
	// BLAKE2b256 is BLAKE2b with a 256-bit output.
	BLAKE2b256 Digest = blake2bDigest{}
	// SuiteHash is the hash function of the kyber Ed25519 suite (SHA-512).
	SuiteHash Digest = suiteDigest{suite: suite}

	// HMACSHA256 is the default MAC.
	HMACSHA256 MAC = hmacSHA256{}
	// KeyedBLAKE2b is BLAKE2b-256 in keyed mode; secrets longer than 64 bytes are rejected.
	KeyedBLAKE2b MAC = keyedBLAKE2b{}
	// SuiteXOF is the BLAKE2xb XOF of the kyber Ed25519 suite seeded with the secret.
	SuiteXOF MAC = suiteXOF{suite: suite}
)

var digests = map[string]Digest{
	SHA256.Name():     SHA256,
	BLAKE2b256.Name(): BLAKE2b256,
	SuiteHash.Name():  SuiteHash,
}

var macs = map[string]MAC{
	HMACSHA256.Name():   HMACSHA256,
	KeyedBLAKE2b.Name(): KeyedBLAKE2b,
	SuiteXOF.Name():     SuiteXOF,
}

// DigestByName resolves a configured digest name.
func DigestByName(name string) (Digest, error) {
	d, ok := digests[name]
	if !ok {
		return nil, fmt.Errorf("%w: digest %q", ErrUnknownAlgorithm, name)
	}
	return d, nil
}

// MACByName resolves a configured MAC name.
func MACByName(name string) (MAC, error) {
	m, ok := macs[name]
	if !ok {
		return nil, fmt.Errorf("%w: mac %q", ErrUnknownAlgorithm, name)
	}
	return m, nil
}

// SecretSize is the length of secrets produced by GenerateSecret.
const SecretSize = 32

// GenerateSecret draws a fresh secret from the suite's random stream.
func GenerateSecret() ([]byte, error) {
	secret := random.Bits(SecretSize*8, false, suite.RandomStream())
	if len(secret) != SecretSize {
		return nil, fmt.Errorf("generate secret: got %d bytes", len(secret))
	}
	return secret, nil
}
