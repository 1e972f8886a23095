package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// ErrInvalidLink is returned when a status-link token is missing, expired,
// tampered with, or bound to another ticket.
var ErrInvalidLink = errors.New("invalid status link")

// LinkSigner issues and validates the tokens embedded in visitor QR links.
type LinkSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewLinkSigner builds a signer. ttlHours <= 0 issues links that never expire.
func NewLinkSigner(secret string, ttlHours int) *LinkSigner {
	var ttl time.Duration
	if ttlHours > 0 {
		ttl = time.Duration(ttlHours) * time.Hour
	}
	return &LinkSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// LinkClaims describes the JWT payload of a status link.
type LinkClaims struct {
	TicketID string `json:"tid"`
	jwt.RegisteredClaims
}

// Sign returns a token bound to ticketID.
func (s *LinkSigner) Sign(ticketID string) (string, error) {
	issued := s.now()
	claims := &LinkClaims{
		TicketID: ticketID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  ticketID,
			IssuedAt: jwt.NewNumericDate(issued),
		},
	}
	if s.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(issued.Add(s.ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify checks that token is valid and bound to ticketID.
func (s *LinkSigner) Verify(token, ticketID string) error {
	if token == "" {
		return ErrInvalidLink
	}
	parsed, err := jwt.ParseWithClaims(token, &LinkClaims{}, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return ErrInvalidLink
	}
	claims, ok := parsed.Claims.(*LinkClaims)
	if !ok || !parsed.Valid || claims.TicketID != ticketID {
		return ErrInvalidLink
	}
	return nil
}
