// FilePath: internal/models/models.user.go
package models

import "time"

type User struct {
	ID            string    `json:"id"`
	SubjectID     string    `json:"subject_id"`
	Email         string    `json:"email"`
	Username      string    `json:"username"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	ImageURL      *string   `json:"image_url"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type CreateUserRequest struct {
	SubjectID string `json:"subject_id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	ImageURL  string `json:"image_url,omitempty"`
}
