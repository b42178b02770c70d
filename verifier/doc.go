// Package verifier implements the authority side of a tamper-evident,
// self-healing block log.
//
// # Core Components
//
// Verifier: Holds the single secret of the process and the digest and MAC
// primitives used to seal blocks. It keeps no other state.
//
// Block Factory: CreateBlock builds a new block linked to the current chain
// tail, hashed over its own fields and signed with the secret.
//
// Chain Inspector: Inspect walks a whole chain oldest-first, checks every
// block against its own fields (self-intact) and against its predecessor
// (link-intact), repairs broken links and classifies each block.
//
// # Statuses
//
//   - Valid: the block is untouched and correctly linked
//   - Tampered: the block's own content was edited out of band
//   - Recovered: the block is untouched but an ancestor was repaired,
//     so its link had to be rewritten
//
// Tampering is never reported as an error. The edited content is accepted
// as the new ground truth, re-sealed, and the tamper is recorded through the
// status. The repaired chain returned by Inspect must replace the caller's
// chain, since repaired hashes propagate forward.
//
// # Usage
//
// Create a Verifier once at process start with the provisioned secret, mint
// blocks with CreateBlock and append them to the caller-owned chain, then
// call Inspect whenever the chain must be audited.
package verifier
