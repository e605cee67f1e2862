package guard

import (
	"errors"

	"github.com/gagliardetto/solana-go"
)

var ErrSignatureVerification = errors.New("ErrSignatureVerification")

// Authorizer decides whether authority may create the account described by
// message. A nil error grants the request.
type Authorizer interface {
	Authorize(authority solana.PublicKey, message []byte, signature solana.Signature) error
}

type AuthorizerFunc func(authority solana.PublicKey, message []byte, signature solana.Signature) error

func (f AuthorizerFunc) Authorize(authority solana.PublicKey, message []byte, signature solana.Signature) error {
	return f(authority, message, signature)
}

// SignatureAuthorizer grants requests carrying a valid ed25519 signature by
// the authority over the request message.
type SignatureAuthorizer struct{}

func (SignatureAuthorizer) Authorize(authority solana.PublicKey, message []byte, signature solana.Signature) error {
	if signature == (solana.Signature{}) || !signature.Verify(authority, message) {
		return ErrSignatureVerification
	}
	return nil
}
