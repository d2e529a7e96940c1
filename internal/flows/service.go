package flows

import "context"

// Service is the centralized flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Validate.VerifySignature != nil && s.deps.Issue.Sign != nil
}

func (s Service) Issue(ctx context.Context, attrs, custom map[string]any) IssueResult {
	return RunIssue(ctx, attrs, custom, s.deps.Issue)
}

func (s Service) Validate(ctx context.Context, token string, ignoreExpiration bool) ValidateResult {
	return RunValidate(ctx, token, ignoreExpiration, s.deps.Validate)
}

func (s Service) Logout(ctx context.Context, token string) LogoutResult {
	return RunLogout(ctx, token, s.deps.Logout)
}

func (s Service) Refresh(ctx context.Context, token string) RefreshResult {
	return RunRefresh(ctx, token, s.deps.Refresh)
}
