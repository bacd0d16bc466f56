package model

import "time"

// Project moderation states. Only StatusApproved projects appear in the feed.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Project is a submission shown in the feed.
//
// VotesCount is denormalized from the votes table and is only ever changed by
// the vote toggle, inside the same transaction that inserts or deletes the
// matching vote row.
//
// Voted is set only in the feed for a signed-in viewer; it is not stored.
//
// Maker and Category are filled on read paths that join users and categories.
// Their JSON keys ("users", "categories") match what the web client reads.
type Project struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	Slug            string       `json:"slug"`
	Description     string       `json:"description"`
	LongDescription string       `json:"long_description,omitempty"`
	DemoURL         string       `json:"demo_url"`
	GitHubURL       string       `json:"github_url,omitempty"`
	CategoryID      string       `json:"category_id,omitempty"`
	GalleryURLs     []string     `json:"gallery_urls"`
	MakerID         string       `json:"maker_id"`
	Status          string       `json:"status"`
	VotesCount      int          `json:"votes_count"`
	CreatedAt       time.Time    `json:"created_at"`
	Voted           bool         `json:"voted,omitempty"`
	Maker           *Maker       `json:"users,omitempty"`
	Category        *CategoryRef `json:"categories,omitempty"`
}

// Maker is the public slice of a User shown next to a project.
type Maker struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

// CategoryRef is the display slice of a Category shown next to a project.
type CategoryRef struct {
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Color string `json:"color"`
}
