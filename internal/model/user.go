// Package model defines the data structures used throughout the application.
package model

import "time"

// User is the local account record for an authenticated identity.
//
// (Provider, ProviderID) is the external identity key: one row per identity at
// one provider. It never changes after the row is created. Email, DisplayName
// and AvatarURL are refreshed on every sign-in; Username is derived once.
type User struct {
	ID          string    `json:"id"`
	Provider    string    `json:"provider"`
	ProviderID  string    `json:"-"`
	Email       string    `json:"email"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Credential is an email/password pair held by the local password identity
// provider. It is not a user account; signing in with it produces one.
type Credential struct {
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"display_name"`
	CreatedAt    time.Time `json:"created_at"`
}
