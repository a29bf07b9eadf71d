// Package models contains data structures for the application's domain entities.
package models

import "time"

// User represents a registered campus member. The password hash never
// leaves the server.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Course    string    `json:"course"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Profile is the display-ready subset of a user record resolved by the
// read projection.
type Profile struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Course string `json:"course"`
}

// Profile returns the user's public profile.
func (u *User) Profile() Profile {
	return Profile{ID: u.ID, Name: u.Name, Course: u.Course}
}
