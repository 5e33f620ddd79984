package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/iamasit07/soloq/internal/domain"
)

// DefaultTokenTTL is the lifetime of generated access tokens.
const DefaultTokenTTL = time.Hour

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims represents the JWT claims of an access token.
// Subject carries the player id; PlayerID is accepted for older tokens.
type Claims struct {
	PlayerID string `json:"player_id,omitempty"`
	Email    string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Verifier checks HS256 access tokens.
type Verifier struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewVerifier(secret string, ttl time.Duration) *Verifier {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Verifier{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// GenerateAccessToken creates a signed access token for playerID.
func (v *Verifier) GenerateAccessToken(playerID, email string) (string, error) {
	now := v.now()
	claims := &Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   playerID,
			ExpiresAt: jwt.NewNumericDate(now.Add(v.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}

// ValidateAccessToken validates a JWT access token and returns the claims
func (v *Verifier) ValidateAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return v.secret, nil
	}, jwt.WithTimeFunc(v.now))

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}

// Verify turns a bearer token into a verified identity. Every failure is an
// *domain.IdentityError.
func (v *Verifier) Verify(_ context.Context, bearer string) (domain.Identity, error) {
	bearer = strings.TrimSpace(bearer)
	if bearer == "" {
		return domain.Identity{}, domain.NewIdentityError(domain.CodeMissingIDToken, ErrMissingToken)
	}

	claims, err := v.ValidateAccessToken(bearer)
	if err != nil {
		return domain.Identity{}, domain.NewIdentityError(domain.CodeInvalidIDToken, err)
	}

	playerID := claims.Subject
	if playerID == "" {
		playerID = claims.PlayerID
	}
	if strings.TrimSpace(playerID) == "" {
		return domain.Identity{}, domain.NewIdentityError(domain.CodeInvalidIDToken, errors.New("token has no subject"))
	}

	return domain.Identity{PlayerID: playerID, Email: strings.TrimSpace(claims.Email)}, nil
}
