package domain

// User models the signed-in account as carried in the API token.
type User struct {
	ID      string `json:"_id"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Profile string `json:"profile"`
}
