package auth

import (
	"encoding/hex"
	"fmt"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
)

func signMessage(t *testing.T, privHex, message string) (string, string) {
	t.Helper()

	key, err := crypto.HexToECDSA(privHex)
	if err != nil {
		t.Fatalf("failed to load key: %v", err)
	}

	prefixed := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message)
	hash := crypto.Keccak256Hash([]byte(prefixed))

	sig, err := crypto.Sign(hash.Bytes(), key)
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}
	// wallets emit v as 27/28
	sig[64] += 27

	addr := crypto.PubkeyToAddress(key.PublicKey)
	return "0x" + hex.EncodeToString(sig), addr.Hex()
}

func TestVerifyEIP191Signature(t *testing.T) {
	const privHex = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	message := "example.org wants you to sign in with your Ethereum account"

	signature, wantAddr := signMessage(t, privHex, message)

	addr, err := VerifyEIP191Signature(message, signature)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if addr.Hex() != wantAddr {
		t.Errorf("recovered %s, want %s", addr.Hex(), wantAddr)
	}
}

func TestVerifyEIP191SignatureWrongMessage(t *testing.T) {
	const privHex = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

	signature, wantAddr := signMessage(t, privHex, "original message")

	// Recovery over a different message yields a different address
	addr, err := VerifyEIP191Signature("tampered message", signature)
	if err == nil && addr.Hex() == wantAddr {
		t.Error("expected recovery mismatch for tampered message")
	}
}

func TestVerifyEIP191SignatureInvalidInput(t *testing.T) {
	tests := []struct {
		name      string
		signature string
	}{
		{"not hex", "0xzzzz"},
		{"too short", "0xdeadbeef"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := VerifyEIP191Signature("message", tt.signature); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestValidateEVMAddress(t *testing.T) {
	tests := []struct {
		address string
		valid   bool
	}{
		{"0x8ba1f109551bD432803012645Ac136ddd64DBA72", true},
		{"0x0000000000000000000000000000000000000000", true},
		{"8ba1f109551bD432803012645Ac136ddd64DBA72", false},
		{"0x8ba1f109551bD432803012645Ac136ddd64DBA7", false},
		{"0x8ba1f109551bD432803012645Ac136ddd64DBA7g", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := ValidateEVMAddress(tt.address); got != tt.valid {
			t.Errorf("ValidateEVMAddress(%q) = %v, want %v", tt.address, got, tt.valid)
		}
	}
}

func TestLowerAddress(t *testing.T) {
	addr := "0x8BA1F109551BD432803012645AC136DDD64DBA72"
	got := LowerAddress(addr)
	if got != strings.ToLower("0x8ba1f109551bD432803012645Ac136ddd64DBA72") {
		t.Errorf("unexpected lower form: %s", got)
	}
}

func TestDIDRoundTrip(t *testing.T) {
	addr := "0x8ba1f109551bD432803012645Ac136ddd64DBA72"
	did := DIDForAddress(80002, addr)

	want := "did:pkh:eip155:80002:" + strings.ToLower(addr)
	if did != want {
		t.Fatalf("DIDForAddress = %s, want %s", did, want)
	}

	parsed, err := AddressFromDID(did)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed != strings.ToLower(addr) {
		t.Errorf("AddressFromDID = %s, want %s", parsed, strings.ToLower(addr))
	}
}

func TestAddressFromDIDRejectsOtherMethods(t *testing.T) {
	tests := []string{
		"did:key:z6MkhaXgBZDvotDkL5257faiztiGiC2QtKLGpbnnEGta2doK",
		"did:pkh:solana:mainnet:abc",
		"not-a-did",
		"did:pkh:eip155:80002:0xnothex",
	}

	for _, did := range tests {
		if _, err := AddressFromDID(did); err == nil {
			t.Errorf("AddressFromDID(%q) succeeded, expected error", did)
		}
	}
}
