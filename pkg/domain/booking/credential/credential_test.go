package credential

import (
	"encoding/base64"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/napryag/clinic_booking_bot/pkg/utils/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	return tok
}

func raw(header, payload string) string {
	enc := base64.RawURLEncoding
	return enc.EncodeToString([]byte(header)) + "." + enc.EncodeToString([]byte(payload)) + ".sig"
}

func TestIsSessionValid_Expiry(t *testing.T) {
	e := New(fixedClock(epoch))

	tests := []struct {
		name string
		exp  interface{}
		want bool
	}{
		{"one second ahead", epoch.Add(time.Second).Unix(), true},
		{"an hour ahead", epoch.Add(time.Hour).Unix(), true},
		{"exactly now", epoch.Unix(), false},
		{"one second behind", epoch.Add(-time.Second).Unix(), false},
		{"a day behind", epoch.Add(-24 * time.Hour).Unix(), false},
		{"float seconds ahead", float64(epoch.Add(time.Minute).Unix()), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := signed(t, jwt.MapClaims{"sub": "42", "exp": tt.exp})
			assert.Equal(t, tt.want, e.IsSessionValid(tok))
		})
	}
}

func TestIsSessionValid_SubSecondClock(t *testing.T) {
	// exp is in seconds while the clock has millisecond resolution.
	now := epoch.Add(500 * time.Millisecond)
	e := New(fixedClock(now))

	assert.True(t, e.IsSessionValid(signed(t, jwt.MapClaims{"exp": epoch.Unix() + 1})))
	assert.False(t, e.IsSessionValid(signed(t, jwt.MapClaims{"exp": epoch.Unix()})))
}

func TestIsSessionValid_FailsClosed(t *testing.T) {
	e := New(fixedClock(epoch))
	enc := base64.RawURLEncoding

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"blank", "   "},
		{"single segment", "abc"},
		{"two segments", "abc.def"},
		{"four segments", "a.b.c.d"},
		{"payload not base64", enc.EncodeToString([]byte(`{"alg":"HS256"}`)) + ".%%%.sig"},
		{"payload not json", raw(`{"alg":"HS256"}`, `exp=123`)},
		{"payload json array", raw(`{"alg":"HS256"}`, `[1,2,3]`)},
		{"missing exp", raw(`{"alg":"HS256"}`, `{"sub":"1"}`)},
		{"exp as string", raw(`{"alg":"HS256"}`, `{"exp":"tomorrow"}`)},
		{"exp as bool", raw(`{"alg":"HS256"}`, `{"exp":true}`)},
		{"exp null", raw(`{"alg":"HS256"}`, `{"exp":null}`)},
		{"header not json and expired", enc.EncodeToString([]byte("nope")) + "." + enc.EncodeToString([]byte(`{"exp":1}`)) + ".sig"},
		{"std payload not json", "garbage!!." + base64.StdEncoding.EncodeToString([]byte("exp=1")) + ".sig"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.False(t, e.IsSessionValid(tt.token))
			})
		})
	}
}

func TestIsSessionValid_UnverifiableHeaderStillReadable(t *testing.T) {
	e := New(fixedClock(epoch))
	exp := epoch.Add(time.Hour).Unix()

	tok := raw(`{"typ":"JWT"}`, `{"exp":`+jsonInt(exp)+`}`)
	assert.True(t, e.IsSessionValid(tok))

	tok = raw(`{"alg":"XX999"}`, `{"exp":`+jsonInt(exp)+`}`)
	assert.True(t, e.IsSessionValid(tok))
}

func TestIsSessionValid_PaddedSegments(t *testing.T) {
	e := New(fixedClock(epoch))
	enc := base64.URLEncoding
	exp := epoch.Add(time.Hour).Unix()

	tok := enc.EncodeToString([]byte(`{"alg":"HS256"}`)) + "." + enc.EncodeToString([]byte(`{"exp":`+jsonInt(exp)+`}`)) + ".sig"
	assert.True(t, e.IsSessionValid(tok))
}

func TestIsSessionValid_StandardBase64Payload(t *testing.T) {
	e := New(fixedClock(epoch))
	exp := epoch.Add(time.Hour).Unix()

	// "???" and ">>>" encode to '/' and '+'; trailing space forces '=' padding.
	payload := `{"exp":` + jsonInt(exp) + `,"a":"???","b":">>>"}`
	for len(payload)%3 == 0 {
		payload += " "
	}
	seg := base64.StdEncoding.EncodeToString([]byte(payload))
	require.Contains(t, seg, "/")
	require.Contains(t, seg, "+")
	require.Contains(t, seg, "=")

	header := base64.StdEncoding.EncodeToString([]byte(`{"alg":"HS256"}`))
	assert.True(t, e.IsSessionValid(header+"."+seg+".sig"))
	assert.True(t, e.IsSessionValid(header+"."+strings.TrimRight(seg, "=")+".sig"))

	expired := base64.StdEncoding.EncodeToString([]byte(`{"exp":` + jsonInt(epoch.Add(-time.Hour).Unix()) + `,"a":"???"}`))
	assert.False(t, e.IsSessionValid(header+"."+expired+".sig"))
}

func TestIsSessionValid_GarbageHeaderIgnored(t *testing.T) {
	e := New(fixedClock(epoch))
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"exp":` + jsonInt(epoch.Add(time.Hour).Unix()) + `}`))

	assert.True(t, e.IsSessionValid("garbage!!."+payload+".sig"))
	assert.True(t, e.IsSessionValid(base64.RawURLEncoding.EncodeToString([]byte("nope"))+"."+payload+".sig"))

	_, err := e.Expiry("garbage!!." + payload)
	assert.True(t, errs.IsKind(err, errs.KindMalformedCredential))
}

func TestExpiry_Kinds(t *testing.T) {
	e := New(fixedClock(epoch))

	_, err := e.Expiry("")
	assert.True(t, errs.IsKind(err, errs.KindSessionInvalid))

	_, err = e.Expiry("garbage")
	assert.True(t, errs.IsKind(err, errs.KindMalformedCredential))

	_, err = e.Expiry(raw(`{"alg":"HS256"}`, `{"sub":"1"}`))
	assert.True(t, errs.IsKind(err, errs.KindMalformedCredential))

	exp, err := e.Expiry(signed(t, jwt.MapClaims{"exp": epoch.Unix() + 60}))
	require.NoError(t, err)
	assert.True(t, exp.Equal(epoch.Add(time.Minute)))
}

func TestPackageLevelIsSessionValid(t *testing.T) {
	assert.True(t, IsSessionValid(signed(t, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})))
	assert.False(t, IsSessionValid(signed(t, jwt.MapClaims{"exp": time.Now().Add(-time.Hour).Unix()})))
	assert.False(t, IsSessionValid(""))
}

func jsonInt(v int64) string {
	return strconv.FormatInt(v, 10)
}
