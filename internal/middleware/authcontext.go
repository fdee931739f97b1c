package middleware

// Source is the credential source a request authenticated with. It is a
// sealed variant type: guards switch over it exhaustively instead of
// comparing string tags.
type Source interface{ source() }

// RelaySource is the shared-secret bot relay acting on behalf of a user named
// in the side headers.
type RelaySource struct {
	UserID   string
	UserName string
}

// TokenSource is a signed end-user token presented directly by a client.
type TokenSource struct {
	Subject     string
	DisplayName string
}

// AnonymousSource is an unauthenticated request.
type AnonymousSource struct{}

func (RelaySource) source()     {}
func (TokenSource) source()     {}
func (AnonymousSource) source() {}

// AuthContext is the per-request authentication result.
type AuthContext struct {
	Source      Source
	IsModerator bool
}

// IsAuthenticated reports whether the request carried a valid credential.
func (a *AuthContext) IsAuthenticated() bool {
	switch a.Source.(type) {
	case RelaySource, TokenSource:
		return true
	case AnonymousSource:
		return false
	}
	return false
}

// UserID returns the acting user's identity, or "" when no identity is
// resolvable (anonymous, relay call without the id header, token without a
// subject).
func (a *AuthContext) UserID() string {
	switch s := a.Source.(type) {
	case RelaySource:
		return s.UserID
	case TokenSource:
		return s.Subject
	}
	return ""
}

// DisplayName returns the acting user's display name, if any.
func (a *AuthContext) DisplayName() string {
	switch s := a.Source.(type) {
	case RelaySource:
		return s.UserName
	case TokenSource:
		return s.DisplayName
	}
	return ""
}

// SourceTag returns the wire tag for the auth source.
func (a *AuthContext) SourceTag() string {
	switch a.Source.(type) {
	case RelaySource:
		return "bot-relay"
	case TokenSource:
		return "end-user-token"
	}
	return "none"
}
