package session

import (
	"encoding/json"
	"fmt"
)

// Well-known scratch-data keys that survive a reset back to the hub.
const (
	DataKeyCart    = "in_cart"
	DataKeyAddress = "shipping_address"
)

// dataAllowList enumerates the keys Prune keeps.
var dataAllowList = map[string]struct{}{
	DataKeyCart:    {},
	DataKeyAddress: {},
}

// RenderLedger tracks the single live bot message per topic so the engine can
// retract it before rendering a replacement. Zero ids mean nothing is live.
type RenderLedger struct {
	TextMessageID  int `json:"text_message_id,omitempty"`
	PhotoMessageID int `json:"photo_message_id,omitempty"`
}

func (l RenderLedger) Empty() bool { return l.TextMessageID == 0 && l.PhotoMessageID == 0 }

// ChatState is the persisted conversational session for one chat: the current
// flow step, handler scratch data, and the render ledger. Values in Data are
// kept as raw JSON so the state survives a store round-trip without type loss.
type ChatState struct {
	ChatID  int64                      `json:"chat_id"`
	Current State                      `json:"current_state"`
	Data    map[string]json.RawMessage `json:"data,omitempty"`
	Ledger  RenderLedger               `json:"ledger"`
}

// NewChatState returns an empty state for the chat, positioned at StateIdle.
func NewChatState(chatID int64) *ChatState {
	return &ChatState{ChatID: chatID, Current: StateIdle}
}

// Clone returns a deep copy. Handlers mutate the copy; the engine persists it
// only after the handler finishes without error.
func (s *ChatState) Clone() *ChatState {
	if s == nil {
		return nil
	}
	out := &ChatState{ChatID: s.ChatID, Current: s.Current, Ledger: s.Ledger}
	if s.Data != nil {
		out.Data = make(map[string]json.RawMessage, len(s.Data))
		for k, v := range s.Data {
			cp := make(json.RawMessage, len(v))
			copy(cp, v)
			out.Data[k] = cp
		}
	}
	return out
}

// SetData stores a JSON-encoded value under key.
func (s *ChatState) SetData(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("chatstate: encode %q: %w", key, err)
	}
	if s.Data == nil {
		s.Data = make(map[string]json.RawMessage)
	}
	s.Data[key] = raw
	return nil
}

// GetData decodes the value under key into dst. Returns false when the key is
// absent; a decode failure on a present key is an error.
func (s *ChatState) GetData(key string, dst any) (bool, error) {
	raw, ok := s.Data[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return true, fmt.Errorf("chatstate: decode %q: %w", key, err)
	}
	return true, nil
}

// GetString is a convenience for scratch fields stored as plain strings.
func (s *ChatState) GetString(key string) string {
	var v string
	if ok, err := s.GetData(key, &v); !ok || err != nil {
		return ""
	}
	return v
}

func (s *ChatState) DeleteData(key string) { delete(s.Data, key) }

// Prune drops every scratch key except the allow-listed subset. Called when a
// flow terminates and the chat returns to the hub.
func (s *ChatState) Prune() {
	for k := range s.Data {
		if _, keep := dataAllowList[k]; !keep {
			delete(s.Data, k)
		}
	}
}
