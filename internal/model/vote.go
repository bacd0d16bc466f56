package model

import "time"

// Vote records that a user upvoted a project. At most one row exists per
// (UserID, ProjectID); its existence is the only source of truth for
// "did this user vote for this project".
type Vote struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ProjectID string    `json:"project_id"`
	CreatedAt time.Time `json:"created_at"`
}

// VoteResult is the state after a toggle.
type VoteResult struct {
	Voted bool `json:"voted"`
}

// DailyFeature points one calendar day (UTC, YYYY-MM-DD) at one project.
type DailyFeature struct {
	Date      string    `json:"featured_date"`
	ProjectID string    `json:"project_id"`
	CreatedAt time.Time `json:"created_at"`
}
