package models

// ConversationMessages is one conversation's complete message set as seen
// in a snapshot. Key is carried in its raw string form; semantic parsing
// belongs to the aggregation layer.
type ConversationMessages struct {
	Key      string    `json:"key"`
	Messages []Message `json:"messages"`
}

// ConversationSnapshot is a full point-in-time state of every conversation
// the feed can see. Each snapshot fully supersedes the previous one; feeds
// deliver state, never deltas.
type ConversationSnapshot struct {
	Conversations []ConversationMessages `json:"conversations"`
}

// Find returns the message set stored under key, or nil.
func (s *ConversationSnapshot) Find(key string) []Message {
	for i := range s.Conversations {
		if s.Conversations[i].Key == key {
			return s.Conversations[i].Messages
		}
	}
	return nil
}
