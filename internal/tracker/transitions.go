package tracker

import "strconv"

// The negotiation flow has five fixed stages, each with an approve and a
// decline transition in the external store. UI-facing keys map onto the
// external transition ids here; the table is deliberately hard-coded and is
// not discovered from the remote system.
var transitionTable = map[string]int{
	"approve-request-created":   2,
	"approve-pre-approval":      3,
	"approve-request-review":    4,
	"approve-negotiation-stage": 5,
	"approve-post-approval":     6,

	"decline-request-created":   12,
	"decline-pre-approval":      13,
	"decline-request-review":    14,
	"decline-negotiation-stage": 15,
	"decline-post-approval":     16,
}

// ResolveTransition maps a UI transition key to the external transition id.
// A key that is not in the table but parses as a positive integer is accepted
// as a raw transition id.
func ResolveTransition(key string) (int, bool) {
	if id, ok := transitionTable[key]; ok {
		return id, true
	}
	if id, err := strconv.Atoi(key); err == nil && id > 0 {
		return id, true
	}
	return 0, false
}
