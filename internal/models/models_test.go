package models

import (
	"errors"
	"testing"
)

func TestNewConversationKeyCanonical(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want string
	}{
		{"already ordered", "u1", "u2", "u1_u2"},
		{"reversed", "u2", "u1", "u1_u2"},
		{"lexicographic not numeric", "u10", "u2", "u10_u2"},
		{"self conversation", "u1", "u1", "u1_u1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := NewConversationKey(tt.a, tt.b)
			if err != nil {
				t.Fatalf("NewConversationKey(%q, %q) error = %v", tt.a, tt.b, err)
			}
			if key.String() != tt.want {
				t.Errorf("String() = %q, want %q", key.String(), tt.want)
			}

			flipped, err := NewConversationKey(tt.b, tt.a)
			if err != nil {
				t.Fatalf("NewConversationKey(%q, %q) error = %v", tt.b, tt.a, err)
			}
			if flipped != key {
				t.Errorf("key depends on argument order: %q vs %q", flipped.String(), key.String())
			}
		})
	}
}

func TestNewConversationKeyRejects(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
	}{
		{"empty first", "", "u2"},
		{"empty second", "u1", ""},
		{"separator in first", "u_1", "u2"},
		{"separator in second", "u1", "u_2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewConversationKey(tt.a, tt.b); !errors.Is(err, ErrInvalidConversationKey) {
				t.Errorf("NewConversationKey(%q, %q) error = %v, want ErrInvalidConversationKey", tt.a, tt.b, err)
			}
		})
	}
}

func TestParseConversationKey(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		want      string
		shouldErr bool
	}{
		{"canonical", "u1_u2", "u1_u2", false},
		{"non-canonical order", "u2_u1", "u1_u2", false},
		{"no separator", "u1u2", "", true},
		{"too many components", "u1_u2_u3", "", true},
		{"empty component", "_u2", "", true},
		{"empty string", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := ParseConversationKey(tt.raw)
			if (err != nil) != tt.shouldErr {
				t.Fatalf("ParseConversationKey(%q) error = %v, shouldErr %v", tt.raw, err, tt.shouldErr)
			}
			if tt.shouldErr {
				return
			}
			if key.String() != tt.want {
				t.Errorf("String() = %q, want %q", key.String(), tt.want)
			}
		})
	}
}

func TestConversationKeyCounterpart(t *testing.T) {
	key, err := NewConversationKey("u1", "u2")
	if err != nil {
		t.Fatalf("NewConversationKey error = %v", err)
	}

	tests := []struct {
		name   string
		userID string
		want   string
		ok     bool
	}{
		{"low participant", "u1", "u2", true},
		{"high participant", "u2", "u1", true},
		{"outsider", "u3", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := key.Counterpart(tt.userID)
			if ok != tt.ok || got != tt.want {
				t.Errorf("Counterpart(%q) = (%q, %v), want (%q, %v)", tt.userID, got, ok, tt.want, tt.ok)
			}
			if key.Contains(tt.userID) != tt.ok {
				t.Errorf("Contains(%q) = %v, want %v", tt.userID, key.Contains(tt.userID), tt.ok)
			}
		})
	}
}

func TestMessageUnreadFor(t *testing.T) {
	tests := []struct {
		name   string
		msg    Message
		userID string
		want   bool
	}{
		{"sent to user", Message{ReceiverID: "u1", Status: StatusSent}, "u1", true},
		{"read by user", Message{ReceiverID: "u1", Status: StatusRead}, "u1", false},
		{"addressed to someone else", Message{ReceiverID: "u2", Status: StatusSent}, "u1", false},
		{"own outgoing message", Message{SenderID: "u1", ReceiverID: "u2", Status: StatusSent}, "u1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.msg.UnreadFor(tt.userID); got != tt.want {
				t.Errorf("UnreadFor(%q) = %v, want %v", tt.userID, got, tt.want)
			}
		})
	}
}

func TestMessageStatusConstants(t *testing.T) {
	tests := []struct {
		name     string
		status   MessageStatus
		expected string
	}{
		{"StatusSent", StatusSent, "sent"},
		{"StatusRead", StatusRead, "read"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if string(tt.status) != tt.expected {
				t.Errorf("MessageStatus = %q, want %q", string(tt.status), tt.expected)
			}
		})
	}
}

func TestSnapshotFind(t *testing.T) {
	snap := ConversationSnapshot{
		Conversations: []ConversationMessages{
			{Key: "u1_u2", Messages: []Message{{ID: "m1"}}},
			{Key: "u1_u3", Messages: nil},
		},
	}

	if msgs := snap.Find("u1_u2"); len(msgs) != 1 || msgs[0].ID != "m1" {
		t.Errorf("Find(u1_u2) = %v, want one message m1", msgs)
	}
	if msgs := snap.Find("u9_u8"); msgs != nil {
		t.Errorf("Find(u9_u8) = %v, want nil", msgs)
	}
}
