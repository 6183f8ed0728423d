package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Skotchmaster/animerch/internal/models"
)

var ErrInvalidToken = errors.New("invalid token")

type AccessClaims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// UserID returns the subject as a uuid.
func (c *AccessClaims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

type Issuer struct {
	Secret []byte
	TTL    time.Duration
	Now    func() time.Time
}

func (i *Issuer) now() time.Time {
	if i.Now != nil {
		return i.Now()
	}
	return time.Now()
}

// Issue signs an HS256 token carrying the user id and role.
func (i *Issuer) Issue(userID uuid.UUID, role models.Role) (string, time.Time, error) {
	issuedAt := i.now()
	exp := issuedAt.Add(i.TTL)

	claims := AccessClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Parse verifies signature, algorithm and expiry.
func Parse(tokenStr string, secret []byte) (*AccessClaims, error) {
	var claims AccessClaims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if !tkn.Valid || claims.Subject == "" || !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}
