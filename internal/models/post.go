package models

import "time"

// PostCategories is the fixed set of categories a post may carry.
var PostCategories = []string{
	"Announcements",
	"Jobs",
	"Events",
	"Academic",
	"Social",
	"Housing",
	"Marketplace",
}

// Post is a feed entry authored by a user.
//
// Likes mirrors the cardinality of LikedBy at all times; both are mutated
// through a single conditional store update, never independently.
type Post struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Category  string    `json:"category"`
	AuthorID  string    `json:"author_id"`
	Likes     int64     `json:"likes"`
	Comments  int64     `json:"comments"`
	LikedBy   []string  `json:"liked_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LikedByUser reports whether the given user currently likes the post.
func (p *Post) LikedByUser(userID string) bool {
	return containsID(p.LikedBy, userID)
}

// ValidPostCategory reports whether category is one of PostCategories.
func ValidPostCategory(category string) bool {
	return containsID(PostCategories, category)
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
