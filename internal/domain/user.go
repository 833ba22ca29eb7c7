package domain

import "time"

// User is a platform user, recorded for sharing lookups by email prefix.
type User struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// UserLookupResponse is the response of the sharing autocomplete endpoint.
type UserLookupResponse struct {
	Users       []User `json:"users"`
	LastEvalKey string `json:"last_eval_key,omitempty"`
}
