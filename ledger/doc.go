// Package ledger holds the authoritative, caller-owned chain that the
// verifier mints blocks for and inspects.
//
// # Core Components
//
// Ledger: An append-only sequence of verifier blocks guarded by a
// read/write mutex, plus the statuses of the last inspection.
//
// # Ownership
//
// The verifier never stores a chain. The ledger serializes appends so two
// writers cannot both extend the same tail, and after every inspection it
// replaces its whole chain with the repaired one returned by the verifier,
// because repaired hashes propagate forward and cannot be merged.
//
// # Tampering
//
// Tamper edits a block's data without re-sealing it, the way an external
// party with write access to the storage would. The next Inspect reports
// the edited block as Tampered and its descendants as Recovered.
//
// # Persistence
//
// When a snapshot path is configured, Save and Load store the chain and its
// statuses in the protobuf snapshot format of package wire.
package ledger
