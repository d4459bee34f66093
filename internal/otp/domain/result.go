package domain

// Reason explains why a verification was rejected. Empty for accepted results.
type Reason string

const (
	ReasonNone     Reason = ""
	ReasonMismatch Reason = "mismatch"
	ReasonExpired  Reason = "expired"
	// ReasonConsumed is returned for any attempt against a challenge that was already accepted or reported expired.
	ReasonConsumed Reason = "consumed"
)

// Result is the outcome of verifying a candidate code.
type Result struct {
	Accepted bool
	Reason   Reason
}

// Accepted returns an accepting result.
func Accepted() Result {
	return Result{Accepted: true}
}

// Rejected returns a rejecting result with reason.
func Rejected(reason Reason) Result {
	return Result{Accepted: false, Reason: reason}
}

// Outcome is "accepted" or "rejected"; used for logs, metrics and audit records.
func (r Result) Outcome() string {
	if r.Accepted {
		return "accepted"
	}
	return "rejected"
}
