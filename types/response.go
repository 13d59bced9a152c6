package types

// ApiResponse is the shared response envelope for every endpoint.
// ErrorKind carries the machine-readable error taxonomy for 4xx responses
// so the UI can branch without parsing messages.
type ApiResponse struct {
	Message   string      `json:"message"`
	Status    int         `json:"status"`
	ErrorKind string      `json:"error_kind,omitempty"`
	Token     string      `json:"token,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}
