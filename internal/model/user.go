package model

import "time"

// User is an account signed in through GitHub.
//
// GitHubID is the external identity (unique); ID is our own xid so primary
// keys never depend on GitHub's numbering. Email may be empty when the
// GitHub user hides it.
type User struct {
	ID        string    `json:"id"`
	GitHubID  int64     `json:"githubId"`
	Login     string    `json:"login"`
	Email     string    `json:"email"`
	AvatarURL string    `json:"avatarUrl"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
