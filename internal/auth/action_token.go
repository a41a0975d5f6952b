package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// DefaultTokenBytes gives 32 hex characters.
const DefaultTokenBytes = 16

// ActionTokens are the three capability tokens minted for one appointment.
type ActionTokens struct {
	Confirm    string
	Cancel     string
	Reschedule string
}

// NewActionToken returns n random bytes as lowercase hex.
func NewActionToken(n int) (string, error) {
	if n <= 0 {
		n = DefaultTokenBytes
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("action token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// IssueActionTokens draws three independent tokens. Uniqueness against
// existing rows is left to the store's constraints.
func IssueActionTokens(n int) (ActionTokens, error) {
	var t ActionTokens
	var err error
	if t.Confirm, err = NewActionToken(n); err != nil {
		return ActionTokens{}, err
	}
	if t.Cancel, err = NewActionToken(n); err != nil {
		return ActionTokens{}, err
	}
	if t.Reschedule, err = NewActionToken(n); err != nil {
		return ActionTokens{}, err
	}
	return t, nil
}
