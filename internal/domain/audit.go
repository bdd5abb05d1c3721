package domain

// AuditKind classifies an audit event.
type AuditKind string

const (
	AuditReconcileVerified  AuditKind = "RECONCILE_VERIFIED"
	AuditReconcilePruned    AuditKind = "RECONCILE_PRUNED"
	AuditReconcileAmbiguous AuditKind = "RECONCILE_AMBIGUOUS"
	AuditDecodeFallback     AuditKind = "DECODE_FALLBACK"
	AuditOrphanedPool       AuditKind = "ORPHANED_LEDGER_POOL"
)

// AuditEvent is one observability record emitted by the reconciler or the
// ledger gateway. Append-only; corresponds to the audit_events table in
// ClickHouse.
type AuditEvent struct {
	Kind       AuditKind
	PoolID     string // indexed pool ID, if the event concerns one
	Subject    string // ledger identifier the event is about
	Detail     string // free-form context (error text, decode source)
	ObservedAt int64  // Unix timestamp in milliseconds
}
