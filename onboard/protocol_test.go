package onboard_test

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cotinet/client-go/internal/chaintest"
	"github.com/cotinet/client-go/internal/logging"
	"github.com/cotinet/client-go/onboard"
	"github.com/cotinet/client-go/primitive"
)

const devKeyHex = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func newProtocol(t *testing.T, ch onboard.Chain, opts ...onboard.Option) *onboard.Protocol {
	t.Helper()
	opts = append([]onboard.Option{onboard.WithLogger(logging.Discard())}, opts...)
	p, err := onboard.New(ch, chaintest.ContractAddress, nil, opts...)
	require.NoError(t, err)
	return p
}

func fundedSigner(t *testing.T, ch *chaintest.Chain) *primitive.KeySigner {
	t.Helper()
	s, err := primitive.NewKeySigner(devKeyHex)
	require.NoError(t, err)
	ch.Fund(s.Address(), big.NewInt(1e18))
	return s
}

func TestNew_MissingContract(t *testing.T) {
	_, err := onboard.New(chaintest.New(), common.Address{}, nil)
	assert.ErrorIs(t, err, onboard.ErrMissingContract)
}

func TestOnboard(t *testing.T) {
	tests := []struct {
		name   string
		signer func(t *testing.T) primitive.AccountSigner
	}{
		{"raw key signer", func(t *testing.T) primitive.AccountSigner {
			s, err := primitive.NewKeySigner(devKeyHex)
			require.NoError(t, err)
			return s
		}},
		{"message signer", func(t *testing.T) primitive.AccountSigner {
			s, err := primitive.NewMessageSigner(devKeyHex)
			require.NoError(t, err)
			return s
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := chaintest.New()
			signer := tt.signer(t)
			ch.Fund(signer.Address(), big.NewInt(1))
			p := newProtocol(t, ch)

			res, err := p.Onboard(context.Background(), signer)
			require.NoError(t, err)

			assert.Equal(t, ch.Key(signer.Address()), res.AESKey)
			require.NotNil(t, res.RSAKey)
			assert.NotEmpty(t, res.RSAKey.PublicKey)
			assert.NotEmpty(t, res.RSAKey.PrivateKey)
			assert.NotEqual(t, common.Hash{}, res.TxHash)
			assert.Equal(t, 1, ch.Submissions())
		})
	}
}

func TestOnboard_InsufficientFunds(t *testing.T) {
	ch := chaintest.New()
	signer, err := primitive.NewKeySigner(devKeyHex)
	require.NoError(t, err)

	_, err = newProtocol(t, ch).Onboard(context.Background(), signer)
	assert.ErrorIs(t, err, onboard.ErrInsufficientFunds)
	assert.NotErrorIs(t, err, onboard.ErrOnboardingFailed)
	assert.Zero(t, ch.Submissions())
}

func TestOnboard_Reverted(t *testing.T) {
	ch := chaintest.New()
	signer := fundedSigner(t, ch)
	ch.RevertOnboarding(true)

	_, err := newProtocol(t, ch).Onboard(context.Background(), signer)
	require.ErrorIs(t, err, onboard.ErrOnboardingFailed)
	assert.ErrorIs(t, err, onboard.ErrTransactionReverted)

	var oerr *onboard.OnboardingError
	require.True(t, errors.As(err, &oerr))
	assert.Equal(t, onboard.StageDecode, oerr.Stage)
	assert.NotEqual(t, common.Hash{}, oerr.TxHash)
}

func TestOnboard_SubmitFails(t *testing.T) {
	ch := chaintest.New()
	signer := fundedSigner(t, ch)
	boom := errors.New("nonce too low")
	ch.FailSubmissions(boom)

	_, err := newProtocol(t, ch).Onboard(context.Background(), signer)
	require.ErrorIs(t, err, onboard.ErrOnboardingFailed)
	assert.ErrorIs(t, err, boom)

	var oerr *onboard.OnboardingError
	require.True(t, errors.As(err, &oerr))
	assert.Equal(t, onboard.StageSubmit, oerr.Stage)
}

func TestOnboard_ConfirmTimeout(t *testing.T) {
	ch := chaintest.New()
	signer := fundedSigner(t, ch)
	release := ch.HoldConfirmations()
	defer release()

	p := newProtocol(t, ch, onboard.WithConfirmTimeout(50*time.Millisecond))
	_, err := p.Onboard(context.Background(), signer)
	require.ErrorIs(t, err, onboard.ErrOnboardingFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestOnboard_SingleShareRejected(t *testing.T) {
	ch := chaintest.New()
	signer := fundedSigner(t, ch)
	ch.EmitSingleShare(true)

	_, err := newProtocol(t, ch).Onboard(context.Background(), signer)
	assert.ErrorIs(t, err, onboard.ErrNoOnboardLog)
}

func TestRecover_MatchesOnboard(t *testing.T) {
	ch := chaintest.New()
	signer := fundedSigner(t, ch)
	p := newProtocol(t, ch)

	res, err := p.Onboard(context.Background(), signer)
	require.NoError(t, err)

	key, err := p.Recover(context.Background(), res.TxHash, res.RSAKey)
	require.NoError(t, err)
	assert.Equal(t, res.AESKey, key)
	assert.Equal(t, 1, ch.Submissions())
}

func TestRecover_SingleShare(t *testing.T) {
	ch := chaintest.New()
	signer := fundedSigner(t, ch)
	ch.EmitSingleShare(true)

	rsaKey, err := primitive.Default().GenerateRSAKeyPair()
	require.NoError(t, err)
	sig, err := signer.SignMessage(rsaKey.PublicKey)
	require.NoError(t, err)
	data, err := onboard.PackOnboardAccount(rsaKey.PublicKey, sig)
	require.NoError(t, err)
	txHash, err := ch.Transact(context.Background(), signer, chaintest.ContractAddress, data, onboard.DefaultGasLimit)
	require.NoError(t, err)

	key, err := newProtocol(t, ch).Recover(context.Background(), txHash, rsaKey)
	require.NoError(t, err)
	assert.Equal(t, ch.Key(signer.Address()), key)
}

func TestRecover_Errors(t *testing.T) {
	ch := chaintest.New()
	signer := fundedSigner(t, ch)
	p := newProtocol(t, ch)

	res, err := p.Onboard(context.Background(), signer)
	require.NoError(t, err)

	other, err := primitive.Default().GenerateRSAKeyPair()
	require.NoError(t, err)

	tests := []struct {
		name    string
		tx      common.Hash
		key     *primitive.RSAKeyPair
		wantErr error
	}{
		{"unknown tx", common.HexToHash("0x01"), res.RSAKey, ethereum.NotFound},
		{"missing key", res.TxHash, nil, nil},
		{"wrong key", res.TxHash, other, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Recover(context.Background(), tt.tx, tt.key)
			require.ErrorIs(t, err, onboard.ErrRecoveryFailed)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}

			var rerr *onboard.RecoveryError
			require.True(t, errors.As(err, &rerr))
			assert.Equal(t, tt.tx, rerr.TxHash)
		})
	}
}

func TestPackUnpackOnboardAccount(t *testing.T) {
	data, err := onboard.PackOnboardAccount([]byte("pub"), []byte("sig"))
	require.NoError(t, err)

	pub, sig, err := onboard.UnpackOnboardAccount(data)
	require.NoError(t, err)
	assert.Equal(t, []byte("pub"), pub)
	assert.Equal(t, []byte("sig"), sig)

	_, _, err = onboard.UnpackOnboardAccount([]byte{1, 2})
	assert.Error(t, err)
}
