package ledger

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is the ledger's well-formed negative answer: the record was
// read and decoded, and it attests that the entity does not exist.
var ErrNotFound = errors.New("not found on ledger")

// ErrNotFoundOrUndecodable is returned when decoding failed on every
// endpoint. Callers decide whether that is acceptable (reconciliation
// treats it as inconclusive) or an escalation (admission aborts).
var ErrNotFoundOrUndecodable = errors.New("record not found or undecodable on all endpoints")

// TransportError wraps a transport or timeout failure after all endpoints
// were exhausted.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("ledger transport (%s): %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Revert-reason codes exposed by the pool program. Nodes running the
// pre-upgrade program report code 0 and a human-readable reason only.
const (
	RevertCodeNone          = 0
	RevertCodeAlreadyPooled = 7001
	RevertCodeAssetUnknown  = 7002
	RevertCodePoolClosed    = 7003
	RevertCodeUnauthorized  = 7004
)

// RevertError is a ledger write that the program rejected.
type RevertError struct {
	Code   int
	Reason string
}

func (e *RevertError) Error() string {
	if e.Code != RevertCodeNone {
		return fmt.Sprintf("ledger revert %d: %s", e.Code, e.Reason)
	}
	return fmt.Sprintf("ledger revert: %s", e.Reason)
}

// AlreadyPooled reports whether the revert means the asset is bound to a
// pool already. The structured code is authoritative; the substring match
// only covers pre-upgrade nodes that report no code.
func (e *RevertError) AlreadyPooled() bool {
	if e.Code != RevertCodeNone {
		return e.Code == RevertCodeAlreadyPooled
	}
	return strings.Contains(strings.ToLower(e.Reason), "already in pool")
}
