package types

// SuccessEnvelope wraps every 2xx payload under a data key.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the wire shape of a domain error: a stable machine code, a
// human message, and optional structured details such as the offending
// product id or the allowed transitions.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps every non-2xx payload.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
