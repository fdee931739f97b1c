package middleware

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/FlashGalatine/xivdyetools-api/internal/config"
	"github.com/FlashGalatine/xivdyetools-api/internal/pkg/response"
	"github.com/FlashGalatine/xivdyetools-api/internal/pkg/signature"
	"github.com/FlashGalatine/xivdyetools-api/internal/pkg/token"
	"github.com/gin-gonic/gin"
)

const (
	ContextKeyAuth = "auth_context"

	HeaderActingUserID   = "X-User-Discord-ID"
	HeaderActingUserName = "X-User-Discord-Name"
	HeaderSignature      = "X-Signature"
	HeaderTimestamp      = "X-Timestamp"

	// Relay signatures older or newer than this many seconds are replays.
	relayReplayWindow = 300
)

// Resolver turns request credentials into an AuthContext. Both schemes are
// evaluated for every request; they are mutually exclusive by token equality
// with the relay secret.
type Resolver struct {
	relaySecret string
	signingKey  string
	jwtSecret   string
	moderators  map[string]struct{}
	now         func() time.Time
}

// NewResolver builds a Resolver from config. The moderator allow-list accepts
// comma, space, or newline delimited ids, trimmed, matched exactly.
func NewResolver(cfg *config.AppConfig) *Resolver {
	mods := make(map[string]struct{})
	for _, id := range strings.FieldsFunc(cfg.ModeratorIDs, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	}) {
		mods[id] = struct{}{}
	}
	return &Resolver{
		relaySecret: cfg.RelaySecret,
		signingKey:  cfg.RelaySigningKey,
		jwtSecret:   cfg.JWTSecret,
		moderators:  mods,
		now:         time.Now,
	}
}

// Middleware resolves credentials and stores the AuthContext for the request.
// Resolution never errors: a bad credential yields an anonymous context and
// the route guards produce the status code.
func (r *Resolver) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextKeyAuth, r.Resolve(c.Request.Header))
		c.Next()
	}
}

// Resolve evaluates the request headers against both credential schemes.
func (r *Resolver) Resolve(h http.Header) *AuthContext {
	bearer := normalizeBearer(h.Get("Authorization"))
	if bearer == "" {
		return &AuthContext{Source: AnonymousSource{}}
	}

	if r.relaySecret != "" &&
		subtle.ConstantTimeCompare([]byte(bearer), []byte(r.relaySecret)) == 1 {
		return r.resolveRelay(h)
	}

	if claims := token.Decode(bearer, r.jwtSecret); claims != nil {
		return &AuthContext{
			Source:      TokenSource{Subject: claims.Subject, DisplayName: claims.DisplayName()},
			IsModerator: r.isModerator(claims.Subject),
		}
	}

	return &AuthContext{Source: AnonymousSource{}}
}

// resolveRelay authenticates the bot relay. When a signing key is configured
// the relay must also present a signature over "timestamp:id:name" plus the
// timestamp header; the message is reconstructed from the header values
// actually received, so a tampered id cannot match a signature computed over
// the original one. Without a signing key the headers are trusted outright,
// a legacy degraded mode.
func (r *Resolver) resolveRelay(h http.Header) *AuthContext {
	id := strings.TrimSpace(h.Get(HeaderActingUserID))
	name := strings.TrimSpace(h.Get(HeaderActingUserName))

	if r.signingKey != "" {
		sig := strings.TrimSpace(h.Get(HeaderSignature))
		tsRaw := strings.TrimSpace(h.Get(HeaderTimestamp))
		if sig == "" || tsRaw == "" {
			return &AuthContext{Source: AnonymousSource{}}
		}
		ts, err := strconv.ParseInt(tsRaw, 10, 64)
		if err != nil {
			return &AuthContext{Source: AnonymousSource{}}
		}
		if drift := r.now().Unix() - ts; drift > relayReplayWindow || drift < -relayReplayWindow {
			return &AuthContext{Source: AnonymousSource{}}
		}
		if !signature.Verify(tsRaw+":"+id+":"+name, r.signingKey, sig) {
			return &AuthContext{Source: AnonymousSource{}}
		}
	}

	return &AuthContext{
		Source:      RelaySource{UserID: id, UserName: name},
		IsModerator: id != "" && r.isModerator(id),
	}
}

func (r *Resolver) isModerator(id string) bool {
	_, ok := r.moderators[id]
	return ok
}

// GetAuth returns the request's AuthContext. Routes registered without the
// resolver middleware see an anonymous context.
func GetAuth(c *gin.Context) *AuthContext {
	if v, ok := c.Get(ContextKeyAuth); ok {
		if ac, ok := v.(*AuthContext); ok {
			return ac
		}
	}
	return &AuthContext{Source: AnonymousSource{}}
}

// RequireAuthenticated aborts with 401 when the request is unauthenticated.
func RequireAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GetAuth(c).IsAuthenticated() {
			response.Unauthorized(c)
			return
		}
		c.Next()
	}
}

// RequireModerator aborts with 401 when unauthenticated, 403 when
// authenticated but not on the moderator allow-list.
func RequireModerator() gin.HandlerFunc {
	return func(c *gin.Context) {
		ac := GetAuth(c)
		if !ac.IsAuthenticated() {
			response.Unauthorized(c)
			return
		}
		if !ac.IsModerator {
			response.Forbidden(c, "moderator access required")
			return
		}
		c.Next()
	}
}

// RequireActingUser aborts with 400 when the request is authenticated but no
// acting-user id is resolvable (token without a usable subject, or a relay
// call missing the id header).
func RequireActingUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		ac := GetAuth(c)
		if ac.IsAuthenticated() && ac.UserID() == "" {
			response.BadRequest(c, "no acting user id resolvable from credentials")
			return
		}
		c.Next()
	}
}

func normalizeBearer(raw string) string {
	tok := strings.TrimSpace(raw)
	if tok == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(tok), "bearer ") {
		return strings.TrimSpace(tok[7:])
	}
	return tok
}
