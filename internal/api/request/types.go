package request

// CredentialsRequest is the request body for admin registration and login
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreatePlayerRequest is the request body for adding a player by hand
type CreatePlayerRequest struct {
	FullName    string `json:"full_name"`
	ParentEmail string `json:"parent_email"`
	Division    string `json:"division,omitempty"`
}

// UpdatePlayerRequest is the request body for editing a player.
// Omitted fields are left unchanged.
type UpdatePlayerRequest struct {
	FullName     *string `json:"full_name,omitempty"`
	ParentEmail  *string `json:"parent_email,omitempty"`
	JerseyNumber *int    `json:"jersey_number,omitempty"`
}
