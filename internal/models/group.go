package models

import "time"

// GroupCategories is the fixed set of categories a group may carry.
var GroupCategories = []string{
	"Academic",
	"Social",
	"Sports",
	"Technology",
	"Arts",
}

// Group is a student community with exactly one admin. The admin is seeded
// into Members at creation and may never be removed from it.
type Group struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	AdminID     string    `json:"admin_id"`
	Members     []string  `json:"members"`
	CreatedAt   time.Time `json:"created_at"`
}

// HasMember reports whether the given user is currently a member.
func (g *Group) HasMember(userID string) bool {
	return containsID(g.Members, userID)
}

// ValidGroupCategory reports whether category is one of GroupCategories.
func ValidGroupCategory(category string) bool {
	return containsID(GroupCategories, category)
}
