package session

import (
	"fmt"
	"time"

	"github.com/boddenberg/voyager-admin-bfa-go/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

const profileIssuer = "voyager-admin-bfa"

// profileClaims is the payload of the user_details cookie.
type profileClaims struct {
	Profile    domain.UserProfile `json:"profile"`
	RegistryID string             `json:"rid,omitempty"`
	jwt.RegisteredClaims
}

// ProfileCodec signs and verifies the cached registry profile.
type ProfileCodec struct {
	key    []byte
	maxAge time.Duration
}

// NewProfileCodec creates a codec. Tokens expire after maxAge.
func NewProfileCodec(key []byte, maxAge time.Duration) *ProfileCodec {
	return &ProfileCodec{key: key, maxAge: maxAge}
}

// Encode signs profile (bound to registryID) as a compact HS256 JWT.
func (c *ProfileCodec) Encode(profile *domain.UserProfile, registryID string) (string, error) {
	now := time.Now()
	claims := profileClaims{
		Profile:    *profile,
		RegistryID: registryID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   profile.Username,
			Issuer:    profileIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.maxAge)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.key)
}

// Decode verifies value and returns the profile and the registry id it was bound to.
func (c *ProfileCodec) Decode(value string) (*domain.UserProfile, string, error) {
	claims := &profileClaims{}
	token, err := jwt.ParseWithClaims(value, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.key, nil
	},
		jwt.WithIssuer(profileIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, "", fmt.Errorf("decode user details: %w", err)
	}
	if !token.Valid {
		return nil, "", fmt.Errorf("decode user details: invalid token")
	}
	profile := claims.Profile
	return &profile, claims.RegistryID, nil
}
