// Package auth provides wallet signature verification and the sign-in
// message format used by the challenge/response flow.
package auth

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// VerifyEIP191Signature verifies an EIP-191 personal_sign signature
// Returns the recovered Ethereum address if valid
func VerifyEIP191Signature(message, signature string) (common.Address, error) {
	// Decode signature from hex
	sigBytes, err := hex.DecodeString(strings.TrimPrefix(signature, "0x"))
	if err != nil {
		return common.Address{}, fmt.Errorf("invalid signature hex: %w", err)
	}

	if len(sigBytes) != 65 {
		return common.Address{}, fmt.Errorf("invalid signature length: expected 65, got %d", len(sigBytes))
	}

	// Ethereum signature has recovery id (v) at the end
	// v can be 0, 1, 27, or 28 - normalize to 0 or 1
	if sigBytes[64] >= 27 {
		sigBytes[64] -= 27
	}

	// Create the EIP-191 prefixed message hash
	prefixedMsg := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message)
	msgHash := crypto.Keccak256Hash([]byte(prefixedMsg))

	// Recover the public key
	pubKey, err := crypto.SigToPub(msgHash.Bytes(), sigBytes)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover public key: %w", err)
	}

	// Derive the address from the public key
	addr := crypto.PubkeyToAddress(*pubKey)
	return addr, nil
}

// ValidateEVMAddress checks if a string is a valid EVM address
func ValidateEVMAddress(address string) bool {
	if !strings.HasPrefix(address, "0x") {
		return false
	}
	if len(address) != 42 {
		return false
	}
	_, err := hex.DecodeString(address[2:])
	return err == nil
}

// ChecksumAddress returns the EIP-55 checksummed form of an EVM address
func ChecksumAddress(address string) string {
	return common.HexToAddress(address).Hex()
}

// LowerAddress returns the canonical lower-cased form used for storage keys
func LowerAddress(address string) string {
	return strings.ToLower(common.HexToAddress(address).Hex())
}

// LowerDID returns the lower-cased canonical form of a DID string
func LowerDID(did string) string {
	return strings.ToLower(did)
}

// DIDForAddress builds a did:pkh identifier for an EVM address on a chain
func DIDForAddress(chainID int64, address string) string {
	return fmt.Sprintf("did:pkh:eip155:%d:%s", chainID, LowerAddress(address))
}

// AddressFromDID extracts the EVM address from a did:pkh:eip155 identifier.
// Returns an error for any other DID method.
func AddressFromDID(did string) (string, error) {
	parts := strings.Split(did, ":")
	if len(parts) != 5 || parts[0] != "did" || parts[1] != "pkh" || parts[2] != "eip155" {
		return "", fmt.Errorf("unsupported DID format: %s", did)
	}
	if !ValidateEVMAddress(parts[4]) {
		return "", fmt.Errorf("invalid address in DID: %s", parts[4])
	}
	return LowerAddress(parts[4]), nil
}
