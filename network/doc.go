// Package network exposes a ledger over HTTP(S) and provides the matching
// client.
//
// # Core Components
//
// Server: Serves the chain, block creation, out-of-band edits, inspection
// and protobuf snapshots of a single ledger. Every request is tagged with
// an X-Request-ID and logged.
//
// Client: A resty based client for the same API that decodes error bodies
// into *RemoteError values.
//
// # Ordering
//
// Blocks and inspection results are always sent oldest first, the order in
// which the chain is linked. Clients that want to display newest first must
// reverse a copy and never write the reversed order back.
//
// # Errors
//
// Failed requests answer with a JSON body {"kind", "message"} where kind is
// one of the verifier error kinds, "not_found" or "bad_request".
package network
