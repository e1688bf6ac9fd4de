package utils

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

const signatureLength = 65

var ErrSignerMismatch = errors.New("signature was not produced by the swap user")

// SwapIntent is what a caller signs to authorize a swap submitted on their behalf
type SwapIntent struct {
	User         common.Address
	Kind         string
	TokenIn      common.Address
	TokenOut     common.Address
	AmountIn     *big.Int
	MinAmountOut *big.Int
	Deadline     int64
}

// Message renders the intent as the text passed to personal_sign
func (i SwapIntent) Message() string {
	return fmt.Sprintf(
		"SwapIt swap %s\nuser: %s\ntokenIn: %s\ntokenOut: %s\namountIn: %s\nminAmountOut: %s\ndeadline: %d",
		i.Kind, i.User.Hex(), i.TokenIn.Hex(), i.TokenOut.Hex(), bigOrZero(i.AmountIn), bigOrZero(i.MinAmountOut), i.Deadline,
	)
}

// SignSwapIntent produces the personal_sign signature of the intent with a hex private key.
// Wallets do this client side; the router only uses it in tooling and tests.
func SignSwapIntent(intent SwapIntent, privateKeyHex string) (string, error) {
	if privateKeyHex == "" {
		return "", fmt.Errorf("private key hex cannot be empty")
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return "", fmt.Errorf("invalid private key: %w", err)
	}

	signature, err := crypto.Sign(accounts.TextHash([]byte(intent.Message())), key)
	if err != nil {
		return "", fmt.Errorf("failed to sign swap intent: %w", err)
	}
	// wallets report v as 27/28
	signature[64] += 27
	return hexutil.Encode(signature), nil
}

// VerifySwapIntent checks that signature over the intent was produced by intent.User
func VerifySwapIntent(intent SwapIntent, signature string) error {
	signer, err := RecoverSigner(intent.Message(), signature)
	if err != nil {
		return err
	}
	if signer != intent.User {
		return fmt.Errorf("%w: recovered %s, user is %s", ErrSignerMismatch, signer.Hex(), intent.User.Hex())
	}
	return nil
}

// RecoverSigner returns the address that personal_signed message. v may be 0/1 or 27/28.
func RecoverSigner(message, signature string) (common.Address, error) {
	if signature == "" {
		return common.Address{}, fmt.Errorf("signature cannot be empty")
	}
	if !strings.HasPrefix(signature, "0x") {
		return common.Address{}, fmt.Errorf("signature must start with 0x")
	}

	sig, err := hexutil.Decode(signature)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to decode signature: %w", err)
	}
	if len(sig) != signatureLength {
		return common.Address{}, fmt.Errorf("signature must be %d bytes, got %d", signatureLength, len(sig))
	}
	if sig[64] >= 27 {
		sig[64] -= 27
	}

	publicKey, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover public key: %w", err)
	}
	return crypto.PubkeyToAddress(*publicKey), nil
}

func bigOrZero(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
