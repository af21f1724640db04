package models

import (
	"errors"
	"strings"
)

// keySeparator joins the two participant ids in the string form of a
// ConversationKey. Participant ids must not contain it.
const keySeparator = "_"

var ErrInvalidConversationKey = errors.New("invalid conversation key")

// ConversationKey identifies a two-party conversation. Construction
// canonicalizes the participant order so both participants derive the
// same key: NewConversationKey(a, b) == NewConversationKey(b, a).
type ConversationKey struct {
	low  string
	high string
}

// NewConversationKey builds the canonical key for the two participants.
// Empty ids and ids containing the separator are rejected.
func NewConversationKey(a, b string) (ConversationKey, error) {
	if a == "" || b == "" {
		return ConversationKey{}, ErrInvalidConversationKey
	}
	if strings.Contains(a, keySeparator) || strings.Contains(b, keySeparator) {
		return ConversationKey{}, ErrInvalidConversationKey
	}
	if a > b {
		a, b = b, a
	}
	return ConversationKey{low: a, high: b}, nil
}

// ParseConversationKey parses the string form. Keys written with the
// participants in either order parse to the same canonical value.
func ParseConversationKey(s string) (ConversationKey, error) {
	a, b, ok := strings.Cut(s, keySeparator)
	if !ok {
		return ConversationKey{}, ErrInvalidConversationKey
	}
	return NewConversationKey(a, b)
}

// String returns the canonical "<low>_<high>" form.
func (k ConversationKey) String() string {
	return k.low + keySeparator + k.high
}

// Participants returns the two participant ids in canonical order.
func (k ConversationKey) Participants() (string, string) {
	return k.low, k.high
}

// Contains reports whether userID is one of the two participants.
func (k ConversationKey) Contains(userID string) bool {
	return userID != "" && (userID == k.low || userID == k.high)
}

// Counterpart returns the other participant's id. ok is false when
// userID is not a participant of this conversation.
func (k ConversationKey) Counterpart(userID string) (string, bool) {
	switch userID {
	case k.low:
		return k.high, true
	case k.high:
		return k.low, true
	}
	return "", false
}

// IsZero reports whether the key is the uninitialized zero value.
func (k ConversationKey) IsZero() bool {
	return k.low == "" && k.high == ""
}
