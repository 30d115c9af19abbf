package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Staff roles carried in the "role" claim.
const (
	RoleStaff         = "staff"
	RoleAdministrator = "administrator"
)

// DefaultTTL is how long an issued token stays valid.
const DefaultTTL = 72 * time.Hour

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrInvalidSubject = errors.New("invalid subject claim")
)

// Claims is the token payload: "sub" is the staff id, "role" its role.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Identity is what a verified token tells us about the caller.
type Identity struct {
	UserID int64
	Role   string
}

// IsAdmin reports whether the caller holds the administrator role.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdministrator }

// Validator verifies HS256 tokens signed with a shared secret. Issuing
// sessions belongs to the login service; GenerateToken exists for it and
// for tests.
type Validator struct {
	secret []byte
}

func NewValidator(secret string) *Validator {
	return &Validator{secret: []byte(secret)}
}

// GenerateToken creates a signed token for userID with the given role.
func (v *Validator) GenerateToken(userID int64, role string, ttl time.Duration) (string, error) {
	// 1. Create the claims.
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	// 2. Sign it with HS256 and the shared secret.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}

// ValidateToken parses and validates a token string and returns the caller.
func (v *Validator) ValidateToken(tokenString string) (Identity, error) {
	// 1. Parse, refusing anything that is not HMAC-signed.
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return v.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return Identity{}, err
	}
	if !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	// 2. Read the staff id out of "sub".
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return Identity{}, ErrInvalidSubject
	}

	// 3. Unknown roles are treated as plain staff.
	role := claims.Role
	if role != RoleAdministrator {
		role = RoleStaff
	}
	return Identity{UserID: userID, Role: role}, nil
}
