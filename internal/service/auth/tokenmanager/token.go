package tokenmanager

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nkiryanov/smallsquare/internal/apperrors"
	"github.com/nkiryanov/smallsquare/internal/models"
)

const (
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultSigningMethod   = "HS256"
	defaultRefreshTokenTTL = 24 * time.Hour
)

// Claims signed into both access and refresh tokens
// Subject is the decimal user id
type Claims struct {
	jwt.RegisteredClaims
	Username string           `json:"username"`
	Nickname string           `json:"nickname"`
	Email    string           `json:"email"`
	Name     string           `json:"name"`
	Role     models.Role      `json:"role"`
	Type     models.TokenType `json:"type"`
}

func (c *Claims) UserID() int64 {
	// Parse guarantees subject is a number
	id, _ := strconv.ParseInt(c.Subject, 10, 64)
	return id
}

// Token is expired when its expiration is not in the future
func (c *Claims) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt.Time)
}

// Remaining lifetime of the token; zero or negative when expired
func (c *Claims) Remaining(now time.Time) time.Duration {
	return c.ExpiresAt.Sub(now)
}

// Token manager with sensible defaults
type Config struct {
	// Secret key to sign tokens
	// Required to be set
	SecretKey string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set than default is used
	Alg string

	// Access and refresh token lifetimes, whole seconds
	// If not set than default is used
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Clock, time.Now if not set
	Now func() time.Time
}

type TokenManager struct {
	// Secret key to sign tokens
	key []byte

	// JWT MAC (Message Authentication Code) algorithm
	alg jwt.SigningMethod

	// Access and refresh token lifetimes
	accessTTL  time.Duration
	refreshTTL time.Duration

	now    func() time.Time
	parser *jwt.Parser
}

func New(cfg Config) (*TokenManager, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}
	alg, ok := jwt.GetSigningMethod(cfg.Alg).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("signing method %q is not supported, only HMAC ones are", cfg.Alg)
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTokenTTL)
	for _, ttl := range []time.Duration{cfg.AccessTTL, cfg.RefreshTTL} {
		if err := checkTTL(ttl); err != nil {
			return nil, err
		}
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &TokenManager{
		key:        []byte(cfg.SecretKey),
		alg:        alg,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        cfg.Now,
		// Expiration is checked by callers, the parser verifies signature and structure only
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{alg.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}, nil
}

// JWT dates have seconds precision, so only whole second lifetimes are exact
func checkTTL(ttl time.Duration) error {
	if ttl <= 0 || ttl%time.Second != 0 {
		return fmt.Errorf("token ttl must be a positive whole number of seconds, got %s", ttl)
	}
	return nil
}

func (m *TokenManager) AccessTTL() time.Duration  { return m.accessTTL }
func (m *TokenManager) RefreshTTL() time.Duration { return m.refreshTTL }

// Issue signs user claims with expiration now+ttl
func (m *TokenManager) Issue(user models.User, ttl time.Duration, typ models.TokenType) (models.IssuedToken, error) {
	if !typ.Valid() {
		return models.IssuedToken{}, fmt.Errorf("unknown token type %q", typ)
	}
	if err := checkTTL(ttl); err != nil {
		return models.IssuedToken{}, err
	}

	now := m.now().Truncate(time.Second)
	issuedAt := jwt.NewNumericDate(now)
	expiresAt := jwt.NewNumericDate(now.Add(ttl))

	token := jwt.NewWithClaims(
		m.alg,
		Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				Subject:   strconv.FormatInt(user.ID, 10),
				IssuedAt:  issuedAt,
				ExpiresAt: expiresAt,
			},
			Username: user.Username,
			Nickname: user.Nickname,
			Email:    user.Email,
			Name:     user.Name,
			Role:     user.Role,
			Type:     typ,
		},
	)
	signed, err := token.SignedString(m.key)
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while signing %s token. Err: %w", typ, err)
	}

	// Report expiration exactly as signed
	return models.IssuedToken{Value: signed, Type: typ, ExpiresAt: expiresAt.Time}, nil
}

// IssuePair mints access and refresh tokens with the same user claims
func (m *TokenManager) IssuePair(user models.User) (models.TokenPair, error) {
	access, err := m.Issue(user, m.accessTTL, models.TokenTypeAccess)
	if err != nil {
		return models.TokenPair{}, err
	}

	refresh, err := m.Issue(user, m.refreshTTL, models.TokenTypeRefresh)
	if err != nil {
		return models.TokenPair{}, err
	}

	return models.TokenPair{Access: access, Refresh: refresh}, nil
}

// Parse verifies signature and structure of the token and returns its claims
// Any failure is reported as apperrors.ErrInvalidToken; expired tokens are parsed fine
func (m *TokenManager) Parse(token string) (*Claims, error) {
	claims := &Claims{}

	_, err := m.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return m.key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrInvalidToken, err)
	}

	switch {
	case claims.ExpiresAt == nil || claims.IssuedAt == nil:
		return nil, fmt.Errorf("%w: token has no iat or exp", apperrors.ErrInvalidToken)
	case !claims.Type.Valid():
		return nil, fmt.Errorf("%w: unknown token type %q", apperrors.ErrInvalidToken, claims.Type)
	}
	if _, err := strconv.ParseInt(claims.Subject, 10, 64); err != nil {
		return nil, fmt.Errorf("%w: subject is not a user id", apperrors.ErrInvalidToken)
	}

	return claims, nil
}

func (m *TokenManager) IsExpired(token string) (bool, error) {
	claims, err := m.Parse(token)
	if err != nil {
		return false, err
	}
	return claims.Expired(m.now()), nil
}

// RemainingTTL is the time left before the token expires; not positive for expired tokens
func (m *TokenManager) RemainingTTL(token string) (time.Duration, error) {
	claims, err := m.Parse(token)
	if err != nil {
		return 0, err
	}
	return claims.Remaining(m.now()), nil
}

// Now returns current time of the manager's clock
func (m *TokenManager) Now() time.Time {
	return m.now()
}
