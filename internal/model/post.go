package model

import "time"

// Post is a status update owned by exactly one user.
//
// DENORMALIZED AUTHOR:
// Name and Avatar are copied from the author when the post is created and
// are not kept in sync afterwards. Renaming yourself does not rewrite your
// old posts. Comments follow the same rule.
type Post struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Text      string    `json:"text"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar"`
	Likes     []Like    `json:"likes"`
	Comments  []Comment `json:"comments"`
	CreatedAt time.Time `json:"createdAt"`
}

// Like records that a user likes a post. A post holds at most one Like per user.
type Like struct {
	UserID string `json:"userId"`
}

// Comment is a reply on a post. Only its own author may remove it.
type Comment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Text      string    `json:"text"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"createdAt"`
}
