package model

// User is the identity assertion supplied by the auth collaborator.
type User struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name"`
}
