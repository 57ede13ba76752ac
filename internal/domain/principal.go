package domain

// Principal is the authenticated identity carried inside tokens.
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}
