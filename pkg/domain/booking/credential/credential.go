// Package credential answers whether a stored bearer token still describes a
// live session. The signature is never checked here; the scheduling service
// owns that. Any token that cannot be read is treated as no session.
package credential

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/napryag/clinic_booking_bot/pkg/utils/errs"
)

type Evaluator struct {
	now    func() time.Time
	parser *jwt.Parser
}

// New returns an evaluator reading the clock from now (time.Now when nil).
func New(now func() time.Time) *Evaluator {
	if now == nil {
		now = time.Now
	}
	return &Evaluator{
		now:    now,
		parser: jwt.NewParser(jwt.WithPaddingAllowed()),
	}
}

var std = New(nil)

// IsSessionValid evaluates token against the wall clock.
func IsSessionValid(token string) bool {
	return std.IsSessionValid(token)
}

func (e *Evaluator) IsSessionValid(token string) bool {
	exp, err := e.Expiry(token)
	if err != nil {
		return false
	}
	return exp.After(e.now())
}

// Expiry decodes the exp claim (seconds since epoch) of token.
func (e *Evaluator) Expiry(token string) (time.Time, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return time.Time{}, errs.New("no credential").WithKind(errs.KindSessionInvalid)
	}

	claims := jwt.MapClaims{}
	_, _, err := e.parser.ParseUnverified(token, claims)
	// ParseUnverified fills the claims before it looks at the alg header.
	if err != nil && !errors.Is(err, jwt.ErrTokenUnverifiable) {
		claims, err = decodePayload(token)
		if err != nil {
			return time.Time{}, errs.New("malformed credential").WithKind(errs.KindMalformedCredential).Wrap(err)
		}
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, errs.New("unreadable exp claim").WithKind(errs.KindMalformedCredential).Wrap(err)
	}
	if exp == nil {
		return time.Time{}, errs.New("credential has no exp claim").WithKind(errs.KindMalformedCredential)
	}
	return exp.Time, nil
}

var payloadEncodings = []*base64.Encoding{
	base64.RawURLEncoding,
	base64.URLEncoding,
	base64.RawStdEncoding,
	base64.StdEncoding,
}

// decodePayload reads the claims segment alone, accepting standard base64
// and ignoring a header the jwt parser rejected.
func decodePayload(token string) (jwt.MapClaims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, errs.New("credential is not three segments").Arg("segments", len(parts))
	}

	var raw []byte
	var err error
	for _, enc := range payloadEncodings {
		if raw, err = enc.DecodeString(parts[1]); err == nil {
			break
		}
	}
	if err != nil {
		return nil, errs.New("undecodable credential payload").Wrap(err)
	}

	claims := jwt.MapClaims{}
	if err := json.Unmarshal(raw, &claims); err != nil {
		return nil, errs.New("credential payload is not a json object").Wrap(err)
	}
	return claims, nil
}
