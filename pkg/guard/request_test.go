package guard

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequest_MessageBindsEveryField(t *testing.T) {
	signer := solana.NewWallet().PrivateKey
	req := newSignedRequest(t, bankSeeds(signer.PublicKey()), signer, []byte("p"))

	base, err := req.Message(testProgramID)
	require.NoError(t, err)

	again, err := req.Message(testProgramID)
	require.NoError(t, err)
	assert.Equal(t, base, again)

	otherProgram, err := req.Message(solana.SystemProgramID)
	require.NoError(t, err)
	assert.NotEqual(t, base, otherProgram)

	// seed boundaries are part of the message
	split := *req
	split.Seeds = [][]byte{[]byte("bank"), append([]byte("account"), req.Seeds[1]...)}
	msg, err := split.Message(testProgramID)
	require.NoError(t, err)
	assert.NotEqual(t, base, msg)

	changed := *req
	changed.Payload = []byte("q")
	msg, err = changed.Message(testProgramID)
	require.NoError(t, err)
	assert.NotEqual(t, base, msg)

	assert.NoError(t, SignatureAuthorizer{}.Authorize(req.Authority, base, req.Signature))
}

func TestRequest_SignRequiresAuthority(t *testing.T) {
	signer := solana.NewWallet().PrivateKey
	req := newSignedRequest(t, bankSeeds(signer.PublicKey()), signer, nil)

	err := req.Sign(testProgramID, solana.NewWallet().PrivateKey)
	assert.Error(t, err)
}
