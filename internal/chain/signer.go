package chain

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer wraps the signing key loaded from a stored wallet row.
type Signer struct {
	key     *ecdsa.PrivateKey
	Address common.Address
}

// NewSigner parses stored private key material. Keys are persisted as they
// arrived from the wallet exporter, so the hex string may be wrapped in JSON
// quotes and may or may not carry a 0x prefix.
func NewSigner(material string) (*Signer, error) {
	s := strings.TrimSpace(material)
	s = strings.Trim(s, `"`)
	s = strings.TrimPrefix(s, "0x")
	key, err := crypto.HexToECDSA(s)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return &Signer{
		key:     key,
		Address: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// ParseAddress normalizes a stored wallet address, stripping the stray quote
// characters some rows carry.
func ParseAddress(raw string) (common.Address, error) {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, `"`)
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", raw)
	}
	return common.HexToAddress(s), nil
}
