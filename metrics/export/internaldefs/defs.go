package internaldefs

import (
	"strconv"

	"github.com/MrEthical07/jwtauth"
)

// CounterDef binds an engine counter to its exported name.
type CounterDef struct {
	ID   jwtauth.MetricID
	Name string
	Help string
}

// HistogramDef binds an engine histogram to its exported name.
type HistogramDef struct {
	ID   jwtauth.MetricID
	Name string
	Help string
}

// BucketCount is the number of histogram buckets including +Inf.
const BucketCount = len(jwtauth.HistogramBounds) + 1

var CounterDefs = []CounterDef{
	{ID: jwtauth.MetricTokenIssued, Name: "jwtauth_token_issued_total", Help: "Tokens signed by Login or Refresh."},
	{ID: jwtauth.MetricIssueFailure, Name: "jwtauth_issue_failure_total", Help: "Login calls rejected before signing."},
	{ID: jwtauth.MetricValidateSuccess, Name: "jwtauth_validate_success_total", Help: "Tokens accepted by Validate."},
	{ID: jwtauth.MetricValidateFailure, Name: "jwtauth_validate_failure_total", Help: "Tokens rejected by Validate."},
	{ID: jwtauth.MetricMalformedToken, Name: "jwtauth_malformed_token_total", Help: "Rejections for structure or encoding."},
	{ID: jwtauth.MetricAlgorithmMismatch, Name: "jwtauth_algorithm_mismatch_total", Help: "Rejections for a foreign header alg."},
	{ID: jwtauth.MetricInvalidSignature, Name: "jwtauth_invalid_signature_total", Help: "Rejections for a bad signature."},
	{ID: jwtauth.MetricExpired, Name: "jwtauth_expired_total", Help: "Rejections for an elapsed exp."},
	{ID: jwtauth.MetricNotYetValid, Name: "jwtauth_not_yet_valid_total", Help: "Rejections for a future nbf."},
	{ID: jwtauth.MetricMissingClaim, Name: "jwtauth_missing_claim_total", Help: "Rejections for an absent lifecycle claim."},
	{ID: jwtauth.MetricIssuerMismatch, Name: "jwtauth_issuer_mismatch_total", Help: "Rejections for a foreign iss."},
	{ID: jwtauth.MetricAudienceMismatch, Name: "jwtauth_audience_mismatch_total", Help: "Rejections for a foreign aud."},
	{ID: jwtauth.MetricRevokedRejected, Name: "jwtauth_revoked_rejected_total", Help: "Rejections for a revoked jti."},
	{ID: jwtauth.MetricLogout, Name: "jwtauth_logout_total", Help: "Successful logouts."},
	{ID: jwtauth.MetricLogoutRejected, Name: "jwtauth_logout_rejected_total", Help: "Logouts that recorded nothing."},
	{ID: jwtauth.MetricRefreshSuccess, Name: "jwtauth_refresh_success_total", Help: "Successful refreshes."},
	{ID: jwtauth.MetricRefreshFailure, Name: "jwtauth_refresh_failure_total", Help: "Failed refreshes."},
	{ID: jwtauth.MetricRefreshWindowExceeded, Name: "jwtauth_refresh_window_exceeded_total", Help: "Refreshes past the refresh window."},
	{ID: jwtauth.MetricRevocationBackendError, Name: "jwtauth_revocation_backend_error_total", Help: "Revocation store errors."},
	{ID: jwtauth.MetricRevocationPurged, Name: "jwtauth_revocation_purged_total", Help: "Revocation entries removed by purge."},
}

var HistogramDefs = []HistogramDef{
	{ID: jwtauth.MetricValidateLatency, Name: "jwtauth_validate_latency_seconds", Help: "Validate latency histogram."},
}

// AuditDroppedName is the counter for audit events lost to backpressure.
const (
	AuditDroppedName = "jwtauth_audit_dropped_total"
	AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."
)

// UpperBounds returns the finite bucket bounds in seconds.
func UpperBounds() []float64 {
	out := make([]float64, len(jwtauth.HistogramBounds))
	for i, b := range jwtauth.HistogramBounds {
		out[i] = b.Seconds()
	}
	return out
}

// BoundSuffix returns a metric-name-safe label for bucket i, "inf" for the last.
func BoundSuffix(i int) string {
	if i >= len(jwtauth.HistogramBounds) {
		return "inf"
	}
	return strconv.FormatInt(jwtauth.HistogramBounds[i].Microseconds(), 10) + "us"
}

// NormalizeBuckets pads or truncates raw to BucketCount entries.
func NormalizeBuckets(raw []uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

func CumulativeBuckets(raw [BucketCount]uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
