package controller

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.missionstake.io/stake/core/access"
	"golang.org/x/xerrors"
)

// bearer authenticates the HTTP requests with HS256 tokens whose subject is
// the address of the caller.
type bearer struct {
	secret []byte
	clock  func() time.Time
}

func newBearer(secret []byte) bearer {
	return bearer{
		secret: secret,
		clock:  time.Now,
	}
}

// issue returns a token for the address that expires after the duration.
func (b bearer) issue(addr access.Address, ttl time.Duration) (string, error) {
	if len(b.secret) == 0 {
		return "", xerrors.New("jwt secret not configured")
	}

	now := b.clock()

	claims := jwt.RegisteredClaims{
		Subject:  addr.String(),
		IssuedAt: jwt.NewNumericDate(now),
	}

	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(b.secret)
	if err != nil {
		return "", xerrors.Errorf("failed to sign token: %v", err)
	}

	return token, nil
}

// authenticate returns the address of the caller of the request.
func (b bearer) authenticate(r *http.Request) (access.Address, error) {
	token, ok := bearerToken(r.Header.Get("Authorization"))
	if !ok {
		return access.Address{}, xerrors.New("bearer token required")
	}

	return b.parse(token)
}

func (b bearer) parse(token string) (access.Address, error) {
	if len(b.secret) == 0 {
		return access.Address{}, xerrors.New("jwt secret not configured")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(b.clock),
	)

	claims := &jwt.RegisteredClaims{}

	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return b.secret, nil
	})
	if err != nil {
		return access.Address{}, xerrors.Errorf("invalid token: %v", err)
	}

	if !parsed.Valid {
		return access.Address{}, xerrors.New("invalid token")
	}

	addr, err := access.ParseAddress(claims.Subject)
	if err != nil {
		return access.Address{}, xerrors.Errorf("invalid subject: %v", err)
	}

	if addr.IsZero() {
		return access.Address{}, xerrors.New("invalid subject: zero address")
	}

	return addr, nil
}

func bearerToken(authz string) (string, bool) {
	parts := strings.Fields(authz)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}

	return parts[1], true
}
