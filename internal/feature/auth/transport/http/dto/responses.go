package dto

// TokenRes is returned after a successful login.
type TokenRes struct {
	Token string `json:"token"`
}

// OperatorRes describes the authenticated operator.
type OperatorRes struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

// MessageRes is a plain acknowledgement.
type MessageRes struct {
	Message string `json:"message"`
}

// ErrorRes is returned on failure.
type ErrorRes struct {
	Error string `json:"error"`
}
