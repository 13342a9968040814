// Package llm holds the chat message model shared by the gateway, the relay
// and the CLI client.
package llm

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
)

// Role tags who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleUnknown   Role = "unknown"
)

// ParseRole maps a wire role string onto a known Role. Anything that is not
// user, assistant or system becomes RoleUnknown.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleUser:
		return RoleUser
	case RoleAssistant:
		return RoleAssistant
	case RoleSystem:
		return RoleSystem
	default:
		return RoleUnknown
	}
}

// Message is a single chat message in its structured form. Legacy
// "You: ..." / "Assistant: ..." strings are converted on decode so only this
// representation is carried internally.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewTextMessage creates a message with the given role and content.
func NewTextMessage(role Role, text string) Message {
	return Message{Role: role, Content: text}
}

var (
	userPrefix      = regexp.MustCompile(`^You:\s*`)
	assistantPrefix = regexp.MustCompile(`^Assistant:\s*`)
)

// UnmarshalJSON accepts the structured {role, content} object, a legacy
// prefixed string, or any other JSON value (kept as unknown text).
func (m *Message) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)

	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*m = fromLegacyString(s)
		return nil
	}

	if len(trimmed) > 0 && trimmed[0] == '{' {
		var obj struct {
			Role    string          `json:"role"`
			Content json.RawMessage `json:"content"`
		}
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return err
		}

		content := contentText(obj.Content)
		if obj.Role != "" && content != "" {
			*m = Message{Role: ParseRole(obj.Role), Content: content}
			return nil
		}

		*m = Message{Role: RoleUnknown, Content: string(trimmed)}
		return nil
	}

	// null, numbers, booleans and arrays
	text := string(trimmed)
	if text == "null" {
		text = ""
	}
	*m = Message{Role: RoleUnknown, Content: text}
	return nil
}

func fromLegacyString(s string) Message {
	switch {
	case strings.HasPrefix(s, "You:"):
		return Message{Role: RoleUser, Content: userPrefix.ReplaceAllString(s, "")}
	case strings.HasPrefix(s, "Assistant:"):
		return Message{Role: RoleAssistant, Content: assistantPrefix.ReplaceAllString(s, "")}
	default:
		return Message{Role: RoleUnknown, Content: s}
	}
}

// contentText returns string content as-is and any other non-empty JSON
// value as its compact text.
func contentText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
