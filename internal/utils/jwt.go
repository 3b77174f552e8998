package utils // package utils provides helpers for token creation and hashing

import (
	"crypto/sha256" // SHA-256 hashing for denylisted tokens
	"encoding/hex"  // hex encoding of the digest
	"time"          // expiry computation

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// Issuer and audience tags stamped into every token and validated on parse.
// A token minted for a different deployment fails verification even when
// the signing secret happens to match.
const (
	TokenIssuer   = "astu-backend"
	TokenAudience = "astu-client"
)

// Claims binds a session to a user identity.  Both the access and the
// refresh token carry the same claim set; they differ only in secret and
// lifetime.
type Claims struct {
	UserID uint64 `json:"uid"`
	Role   string `json:"role"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// SignedToken pairs a serialized JWT with its UTC expiration time.
type SignedToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// NewAccessToken builds and signs a short-lived HS256 JWT for a user.
func NewAccessToken(secret string, userID uint64, role, email string, ttlMin int) (SignedToken, error) {
	return signToken(secret, userID, role, email, time.Duration(ttlMin)*time.Minute)
}

// NewRefreshToken builds and signs the long-lived companion token.  It is
// signed with a separate secret so a leaked access secret cannot mint
// refresh tokens.
func NewRefreshToken(secret string, userID uint64, role, email string, ttlDays int) (SignedToken, error) {
	return signToken(secret, userID, role, email, time.Duration(ttlDays)*24*time.Hour)
}

func signToken(secret string, userID uint64, role, email string, ttl time.Duration) (SignedToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := Claims{
		UserID: userID,
		Role:   role,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    TokenIssuer,
			Audience:  jwt.ClaimStrings{TokenAudience},
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return SignedToken{}, err
	}
	return SignedToken{Token: signed, Exp: exp}, nil
}

// ParseToken verifies signature, expiry, issuer and audience, and returns
// the embedded claims.  Non-HMAC signing methods are rejected.
func ParseToken(secret, raw string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	},
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	return claims, nil
}

// HashToken returns the SHA-256 hash of a token as a hex string.  Only the
// hash is stored in the denylist so a leaked table cannot be replayed.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
