package pipeline

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/ragerr"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/store"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/tenantctx"
)

// AuthConfig configures credential verification.
type AuthConfig struct {
	// JWTSecret signs and verifies HMAC tokens.
	JWTSecret string
	// AllowedIssuers is the issuer allow-list; empty accepts any issuer.
	AllowedIssuers []string
}

// Authenticator resolves credentials into a Principal. API keys take the
// form "<key_id>.<secret>" in X-API-Key; JWTs arrive as a Bearer token.
type Authenticator struct {
	store  *store.Store
	cfg    AuthConfig
	logger *zap.Logger
}

// NewAuthenticator builds the authenticator.
func NewAuthenticator(st *store.Store, cfg AuthConfig, logger *zap.Logger) *Authenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authenticator{store: st, cfg: cfg, logger: logger}
}

// Stage authenticates the request and installs the principal in context.
// Requests with no credential at all are rejected.
func (a *Authenticator) Stage() Stage {
	return func(next Handler) Handler {
		return func(ctx context.Context, req *Request) (map[string]any, error) {
			p, err := a.authenticate(ctx, req)
			if err != nil {
				return nil, err
			}
			p.SessionID = req.SessionID
			p.IPAddress = req.RemoteIP
			return next(tenantctx.WithPrincipal(ctx, p), req)
		}
	}
}

func (a *Authenticator) authenticate(ctx context.Context, req *Request) (*tenantctx.Principal, error) {
	if key := req.Header("X-API-Key"); key != "" {
		return a.verifyAPIKey(ctx, key)
	}
	if auth := req.Header("Authorization"); auth != "" {
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok {
			return nil, ragerr.Authentication("unsupported authorization scheme")
		}
		return a.verifyJWT(token)
	}
	return nil, ragerr.Authentication("no credentials presented")
}

// verifyAPIKey splits "<key_id>.<secret>", loads the stored record by key
// ID and compares sha256(salt || secret) in constant time.
func (a *Authenticator) verifyAPIKey(ctx context.Context, presented string) (*tenantctx.Principal, error) {
	keyID, secret, ok := strings.Cut(presented, ".")
	if !ok || keyID == "" || secret == "" {
		return nil, ragerr.Authentication("malformed api key")
	}
	rec, err := a.store.GetAPIKey(ctx, keyID)
	if err != nil {
		if ragerr.KindOf(err) == ragerr.KindNotFound {
			return nil, ragerr.Authentication("unknown api key")
		}
		return nil, err
	}
	if rec.ExpiresAt != nil && rec.ExpiresAt.Before(time.Now()) {
		return nil, ragerr.Authentication("api key expired")
	}
	sum := sha256.Sum256([]byte(rec.Salt + secret))
	if subtle.ConstantTimeCompare([]byte(hex.EncodeToString(sum[:])), []byte(rec.KeyHash)) != 1 {
		return nil, ragerr.Authentication("invalid api key")
	}

	user, err := a.store.GetUser(ctx, rec.UserID)
	if err != nil {
		return nil, ragerr.Authentication("api key user not found")
	}
	role, ok := tenantctx.ParseRole(user.Role)
	if !ok {
		return nil, ragerr.Authentication("api key user has unknown role %q", user.Role)
	}
	return &tenantctx.Principal{
		TenantID:   rec.TenantID,
		UserID:     rec.UserID,
		Role:       role,
		AuthMethod: tenantctx.AuthAPIKey,
	}, nil
}

type jwtClaims struct {
	TenantID string `json:"tenant_id"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

func (a *Authenticator) verifyJWT(raw string) (*tenantctx.Principal, error) {
	if a.cfg.JWTSecret == "" {
		return nil, ragerr.Authentication("jwt authentication not configured")
	}
	claims := &jwtClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ragerr.Authentication("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(a.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ragerr.Authentication("invalid token")
	}
	if len(a.cfg.AllowedIssuers) > 0 && !slices.Contains(a.cfg.AllowedIssuers, claims.Issuer) {
		return nil, ragerr.Authentication("issuer %q not allowed", claims.Issuer)
	}
	if claims.TenantID == "" || claims.Subject == "" {
		return nil, ragerr.Authentication("token missing tenant or subject")
	}
	role, ok := tenantctx.ParseRole(claims.Role)
	if !ok {
		return nil, ragerr.Authentication("token has unknown role %q", claims.Role)
	}
	return &tenantctx.Principal{
		TenantID:   claims.TenantID,
		UserID:     claims.Subject,
		Role:       role,
		AuthMethod: tenantctx.AuthJWT,
	}, nil
}

// HashAPIKeySecret is the canonical key-hash computation, shared with key
// provisioning.
func HashAPIKeySecret(salt, secret string) string {
	sum := sha256.Sum256([]byte(salt + secret))
	return hex.EncodeToString(sum[:])
}
