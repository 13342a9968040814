package llm

// ErrorResponse is the JSON error body returned by the gateway.
type ErrorResponse struct {
	Error string `json:"error"`
}
