package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// commitment computes the SHA-256 commitment hash for an event.
//
// The hash covers exactly the frozen identity of the entry
// (id, timestamp, final tenant, action, process, outcome, payload summary)
// concatenated with the server-held salt. Without the salt an attacker who can
// rewrite rows could recompute matching hashes; with it, any alteration of a
// covered field is detectable by recomputing and comparing.
//
// The review pair is deliberately outside the commitment: marking an event
// reviewed must not look like tampering.
//
// Returns a prefixed hash string: "sha256:<hex>".
func commitment(salt string, e Event) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|%s|%s|%s|%s|%s|%s",
		e.ID, e.Timestamp.UnixMilli(),
		e.FinalTenantID, e.Action, e.Process, e.Outcome,
		e.PayloadSummary, salt)
	return "sha256:" + hex.EncodeToString(h.Sum(nil))
}
