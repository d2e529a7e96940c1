package flows

import (
	"context"
	"fmt"
	"time"

	"github.com/MrEthical07/jwtauth/claims"
	"github.com/MrEthical07/jwtauth/codec"
)

// IssueFailureKind classifies issuance failures for root-level mapping.
type IssueFailureKind int

const (
	IssueFailureNone IssueFailureKind = iota
	IssueFailureClaims
	IssueFailureSign
)

// IssueResult carries either the signed token or failure metadata.
type IssueResult struct {
	Failure IssueFailureKind
	Err     error
	Token   string
	Claims  *claims.Set
}

// IssueDeps captures token issuance dependencies.
type IssueDeps struct {
	// HeaderSegment is the pre-encoded header; it never varies per token.
	HeaderSegment string
	Sign          func(headerSegment, payloadSegment string) ([]byte, error)
	Now           func() time.Time
	NewID         claims.IDFunc
	Expiration    time.Duration

	Issuer           string
	Audience         string
	SubjectAttribute string
}

// RunIssue builds the claim set for attrs, merges custom on top (registered names
// filtered), and returns header.payload.signature.
func RunIssue(_ context.Context, attrs, custom map[string]any, deps IssueDeps) IssueResult {
	c, err := claims.Build(attrs, deps.Expiration, claims.Options{
		Issuer:   deps.Issuer,
		Subject:  subjectFrom(attrs, deps.SubjectAttribute),
		Audience: deps.Audience,
		Now:      deps.Now(),
		NewID:    deps.NewID,
	})
	if err != nil {
		return IssueResult{Failure: IssueFailureClaims, Err: err}
	}
	if err := c.Merge(custom); err != nil {
		return IssueResult{Failure: IssueFailureClaims, Err: err}
	}

	payload, err := c.MarshalJSON()
	if err != nil {
		return IssueResult{Failure: IssueFailureClaims, Err: err}
	}
	p := codec.Encode(payload)

	sig, err := deps.Sign(deps.HeaderSegment, p)
	if err != nil {
		return IssueResult{Failure: IssueFailureSign, Err: err}
	}

	return IssueResult{
		Token:  deps.HeaderSegment + "." + p + "." + codec.Encode(sig),
		Claims: c,
	}
}

func subjectFrom(attrs map[string]any, attribute string) string {
	if attribute == "" {
		return ""
	}
	v, ok := attrs[attribute]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
