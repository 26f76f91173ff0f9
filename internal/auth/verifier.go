package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrymomot/filesvc/pkg/logger"
)

type Config struct {
	JWKSURL         string        `env:"AUTH_JWKS_URL"`
	PublicKeyPEM    string        `env:"AUTH_JWT_PUBLIC_KEY_PEM"`
	Secret          string        `env:"AUTH_JWT_SECRET"`
	Issuer          string        `env:"AUTH_JWT_ISSUER"`
	Leeway          time.Duration `env:"AUTH_JWT_LEEWAY" envDefault:"30s"`
	JWKSRefresh     time.Duration `env:"AUTH_JWKS_REFRESH_INTERVAL" envDefault:"5m"`
	JWKSHTTPTimeout time.Duration `env:"AUTH_JWKS_HTTP_TIMEOUT" envDefault:"10s"`
}

func (c *Config) Validate() error {
	if c.JWKSURL == "" && c.PublicKeyPEM == "" && c.Secret == "" {
		return fmt.Errorf("%w: one of AUTH_JWKS_URL, AUTH_JWT_PUBLIC_KEY_PEM or AUTH_JWT_SECRET is required", ErrInvalidConfig)
	}
	return nil
}

type claims struct {
	jwt.RegisteredClaims
	Email       string   `json:"email,omitempty"`
	Roles       []string `json:"roles,omitempty"`
	RealmAccess *struct {
		Roles []string `json:"roles"`
	} `json:"realm_access,omitempty"`
}

// Verifier validates bearer tokens.
type Verifier struct {
	keyfunc func(ctx context.Context) jwt.Keyfunc
	methods []string
	issuer  string
	leeway  time.Duration
}

// NewVerifier picks the key source from cfg. For JWKS the key set is
// refreshed in the background until ctx is done.
func NewVerifier(ctx context.Context, cfg Config, log *slog.Logger) (*Verifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Discard()
	}

	switch {
	case cfg.JWKSURL != "":
		storage, err := jwkset.NewStorageFromHTTP(cfg.JWKSURL, jwkset.HTTPClientStorageOptions{
			Client:                    &http.Client{Timeout: cfg.JWKSHTTPTimeout},
			Ctx:                       ctx,
			NoErrorReturnFirstHTTPReq: true,
			RefreshInterval:           cfg.JWKSRefresh,
			RefreshErrorHandler: func(ctx context.Context, err error) {
				log.ErrorContext(ctx, "jwks refresh failed", logger.Error(err), slog.String("url", cfg.JWKSURL))
			},
		})
		if err != nil {
			return nil, errors.Join(ErrInvalidConfig, fmt.Errorf("jwks storage: %w", err))
		}
		kf, err := keyfunc.New(keyfunc.Options{Ctx: ctx, Storage: storage})
		if err != nil {
			return nil, errors.Join(ErrInvalidConfig, fmt.Errorf("jwks keyfunc: %w", err))
		}
		return NewVerifierWithKeyfunc(kf, cfg.Issuer, cfg.Leeway), nil

	case cfg.PublicKeyPEM != "":
		// Env files commonly carry the PEM with escaped newlines.
		pem := strings.ReplaceAll(cfg.PublicKeyPEM, `\n`, "\n")
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pem))
		if err != nil {
			return nil, errors.Join(ErrInvalidKey, err)
		}
		return newStaticVerifier(key, []string{jwt.SigningMethodRS256.Alg()}, cfg.Issuer, cfg.Leeway), nil

	default:
		return newStaticVerifier([]byte(cfg.Secret), []string{jwt.SigningMethodHS256.Alg()}, cfg.Issuer, cfg.Leeway), nil
	}
}

// NewVerifierWithKeyfunc verifies RS256 tokens against keys resolved by kf.
func NewVerifierWithKeyfunc(kf keyfunc.Keyfunc, issuer string, leeway time.Duration) *Verifier {
	return &Verifier{
		keyfunc: kf.KeyfuncCtx,
		methods: []string{jwt.SigningMethodRS256.Alg()},
		issuer:  issuer,
		leeway:  leeway,
	}
}

func newStaticVerifier(key any, methods []string, issuer string, leeway time.Duration) *Verifier {
	return &Verifier{
		keyfunc: func(context.Context) jwt.Keyfunc {
			return func(*jwt.Token) (any, error) { return key, nil }
		},
		methods: methods,
		issuer:  issuer,
		leeway:  leeway,
	}
}

// Verify parses a raw token and returns the caller identity.
func (v *Verifier) Verify(ctx context.Context, raw string) (Identity, error) {
	if raw == "" {
		return Identity{}, ErrMissingToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods(v.methods),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	c := &claims{}
	token, err := jwt.ParseWithClaims(raw, c, v.keyfunc(ctx), opts...)
	if err != nil || !token.Valid {
		return Identity{}, errors.Join(ErrInvalidToken, err)
	}
	if c.Subject == "" {
		return Identity{}, ErrMissingSubject
	}

	roles := append([]string(nil), c.Roles...)
	if c.RealmAccess != nil {
		for _, r := range c.RealmAccess.Roles {
			if !slices.Contains(roles, r) {
				roles = append(roles, r)
			}
		}
	}

	return Identity{UserID: c.Subject, Email: c.Email, Roles: roles}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrMalformedToken
	}
	return strings.TrimSpace(token), nil
}
