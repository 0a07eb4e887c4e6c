package accesscode

import (
	"context"
	"errors"
	"fmt"
)

// ErrInvalidCode covers undecodable, tampered and revoked codes alike.
var ErrInvalidCode = errors.New("invalid access code")

// Denylist reports whether an access code has been revoked.
type Denylist interface {
	IsAccessCodeRevoked(ctx context.Context, code string) (bool, error)
}

// Verifier checks the denylist before trusting a decoded code.
type Verifier struct {
	codec    *Codec
	denylist Denylist
}

func NewVerifier(codec *Codec, denylist Denylist) *Verifier {
	return &Verifier{codec: codec, denylist: denylist}
}

func (v *Verifier) Codec() *Codec {
	return v.codec
}

// Verify returns the details of a code that is neither revoked nor malformed.
// The code is decoded first: Decode accepts only the canonical spelling, which is the
// one stored in the denylist.
func (v *Verifier) Verify(ctx context.Context, code string) (Details, error) {
	details, ok := v.codec.Decode(code)
	if !ok {
		return Details{}, ErrInvalidCode
	}
	revoked, err := v.denylist.IsAccessCodeRevoked(ctx, code)
	if err != nil {
		return Details{}, fmt.Errorf("failed to check access code denylist: %w", err)
	}
	if revoked {
		return Details{}, ErrInvalidCode
	}
	return details, nil
}
