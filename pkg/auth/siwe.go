package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// SIWEMessage is a sign-in-with-Ethereum style message. String produces the
// exact text the wallet signs; verification re-renders the same text, so any
// drift between issue time and verify time breaks signature recovery.
type SIWEMessage struct {
	Domain    string
	Address   string
	Statement string
	URI       string
	Version   string
	ChainID   int64
	Nonce     string
	IssuedAt  time.Time
	Resources []string
}

// String renders the message in the canonical byte layout
func (m *SIWEMessage) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s wants you to sign in with your Ethereum account:\n%s", m.Domain, ChecksumAddress(m.Address))

	if m.Statement != "" {
		fmt.Fprintf(&b, "\n\n%s", m.Statement)
	}

	fmt.Fprintf(&b, "\n\nURI: %s", m.URI)
	fmt.Fprintf(&b, "\nVersion: %s", m.Version)
	fmt.Fprintf(&b, "\nChain ID: %d", m.ChainID)
	fmt.Fprintf(&b, "\nNonce: %s", m.Nonce)
	fmt.Fprintf(&b, "\nIssued At: %s", m.IssuedAt.UTC().Format(time.RFC3339))

	if len(m.Resources) > 0 {
		b.WriteString("\nResources:")
		for _, res := range m.Resources {
			fmt.Fprintf(&b, "\n- %s", res)
		}
	}

	return b.String()
}

// GenerateNonce returns a 32-hex-char random nonce for a sign-in challenge
func GenerateNonce() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// GenerateSessionToken returns an opaque 64-hex-char bearer token
func GenerateSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
