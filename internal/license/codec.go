package license

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrorKind classifies why a token failed to decode.
type ErrorKind string

const (
	KindMalformed   ErrorKind = "MALFORMED"
	KindBadSignature ErrorKind = "BAD_SIGNATURE"
	KindNotYetValid ErrorKind = "NOT_YET_VALID"
)

// DecodeError is the typed failure returned by the codec. Malformed input is
// an expected condition, never a panic.
type DecodeError struct {
	Kind    ErrorKind
	Message string
	cause   error
}

func (e *DecodeError) Error() string {
	return e.Message
}

func (e *DecodeError) Unwrap() error {
	return e.cause
}

// Codec signs and parses license tokens. Tokens are HS256 JWTs; integrity
// rests entirely on secrecy of the signing key, which must never appear in
// errors or logs.
type Codec struct {
	secret []byte
}

// NewCodec creates a codec bound to the shared signing secret.
func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

// Encode serializes claims into a signed compact token. The embedded expiry
// is exactly claims.ExpiresAt.
func (c *Codec) Encode(claims *Claims) (string, error) {
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return "", fmt.Errorf("claims must carry issued and expiry timestamps")
	}
	if !claims.ExpiresAt.Time.After(claims.IssuedAt.Time) {
		return "", fmt.Errorf("expiry %s is not after issue time %s",
			claims.ExpiresAt.Time.Format(time.RFC3339), claims.IssuedAt.Time.Format(time.RFC3339))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign license token: %w", err)
	}
	return signed, nil
}

// DecodeUnverified parses the payload without checking the signature. For
// inspection and debugging only; never use the result to grant access.
func (c *Codec) DecodeUnverified(tokenString string) *Claims {
	claims := &Claims{}
	parser := jwt.NewParser()
	_, _, err := parser.ParseUnverified(tokenString, claims)
	if err != nil {
		return nil
	}
	return claims
}

// DecodeVerified checks structural integrity and the HMAC signature against
// the current clock.
func (c *Codec) DecodeVerified(tokenString string) (*Claims, *DecodeError) {
	return c.DecodeVerifiedAt(tokenString, time.Now())
}

// DecodeVerifiedAt checks structural integrity and the HMAC signature.
// Expiry is deliberately not evaluated here: claim validation is disabled so
// a stale expiry cannot masquerade as a signature failure, and the verifier
// can classify expiry on its own once the signature checks out. The nbf
// claim is checked against now so callers with an injected clock see
// consistent behavior.
func (c *Codec) DecodeVerifiedAt(tokenString string, now time.Time) (*Claims, *DecodeError) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithoutClaimsValidation())

	if err != nil {
		return nil, classifyParseError(err)
	}
	if !token.Valid {
		return nil, &DecodeError{Kind: KindBadSignature, Message: "license signature is invalid"}
	}
	if claims.NotBefore != nil && now.Before(claims.NotBefore.Time) {
		return nil, &DecodeError{Kind: KindNotYetValid, Message: "license is not yet valid"}
	}
	return claims, nil
}

func classifyParseError(err error) *DecodeError {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return &DecodeError{Kind: KindMalformed, Message: "license token is malformed", cause: err}
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return &DecodeError{Kind: KindBadSignature, Message: "license signature is invalid", cause: err}
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return &DecodeError{Kind: KindNotYetValid, Message: "license is not yet valid", cause: err}
	default:
		// Unknown parser failure: the token could not be proven authentic.
		return &DecodeError{Kind: KindBadSignature, Message: "license token could not be verified", cause: err}
	}
}
