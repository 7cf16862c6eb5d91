package domain

import "strings"

// DegradationPolicyMode enumerates how resolution behaves when the grant
// store cannot be refreshed.
type DegradationPolicyMode string

const (
	// DegradationPolicyModeLenient serves the last known-good permission map
	// when a refresh fails. Staleness is bounded by availability outages.
	DegradationPolicyModeLenient DegradationPolicyMode = "lenient"
	// DegradationPolicyModeStrict fails resolution whenever fresh grant data
	// cannot be confirmed. Fail-closed.
	DegradationPolicyModeStrict DegradationPolicyMode = "strict"
)

// DegradationReason captures the state for which a fallback decision is evaluated.
type DegradationReason string

const (
	// DegradationReasonSnapshotStale indicates the cached permission map is
	// older than the freshness window and the refresh failed.
	DegradationReasonSnapshotStale DegradationReason = "snapshot_stale"
	// DegradationReasonStoreUnavailable indicates the grant store could not
	// be reached at all.
	DegradationReasonStoreUnavailable DegradationReason = "store_unavailable"
)

// DegradationPolicy centralises the fail-open/fail-closed choice for
// cache-dependent resolution. Lenient mode serves the last known-good map
// through store outages, bounding staleness by the outage length; strict
// mode fails every resolution until fresh grant data can be confirmed.
// Unrecognised input normalises to strict.
type DegradationPolicy struct {
	mode DegradationPolicyMode
}

// NewDegradationPolicy constructs a policy, defaulting to strict when the
// mode is unrecognised.
func NewDegradationPolicy(mode DegradationPolicyMode) DegradationPolicy {
	if mode != DegradationPolicyModeLenient {
		mode = DegradationPolicyModeStrict
	}
	return DegradationPolicy{mode: mode}
}

// ParseDegradationPolicyMode normalises textual input into a policy mode.
func ParseDegradationPolicyMode(value string) DegradationPolicyMode {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(DegradationPolicyModeLenient):
		return DegradationPolicyModeLenient
	default:
		return DegradationPolicyModeStrict
	}
}

// Mode returns the underlying policy mode.
func (p DegradationPolicy) Mode() DegradationPolicyMode {
	return p.mode
}

// IsStrict indicates whether the policy rejects degraded states.
func (p DegradationPolicy) IsStrict() bool {
	return p.mode != DegradationPolicyModeLenient
}

// AllowsStaleServe determines whether a stale snapshot may be served for
// the supplied reason. A missing snapshot never qualifies; there is nothing
// safe to serve.
func (p DegradationPolicy) AllowsStaleServe(reason DegradationReason) bool {
	return !p.IsStrict()
}
