package llm

import (
	"encoding/json"
	"fmt"
)

// NormalizeMessages rewrites the "messages" array of a JSON object so every
// element is a structured Message. All other fields pass through untouched.
// Objects without a messages array are returned unchanged.
func NormalizeMessages(body []byte) ([]byte, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, fmt.Errorf("decoding object: %w", err)
	}

	raw, ok := obj["messages"]
	if !ok {
		return body, nil
	}

	var msgs []Message
	if err := json.Unmarshal(raw, &msgs); err != nil {
		// not an array, leave the payload alone
		return body, nil
	}
	if msgs == nil {
		return body, nil
	}

	encoded, err := json.Marshal(msgs)
	if err != nil {
		return nil, fmt.Errorf("encoding messages: %w", err)
	}
	obj["messages"] = encoded

	return json.Marshal(obj)
}
