package dto

// ErrorResponse is the body of every failed request. Kind is the stable
// error kind clients can branch on.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
}
