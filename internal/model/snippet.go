// Package model defines the data structures shared by the service, repository
// and handler layers.
package model

import "time"

// Snippet is a saved piece of preview source.
//
// ComponentType records which component page the snippet was written for.
// It is opaque to the evaluator: it only picks the starter sample and labels
// the rendered preview.
//
// UserID is empty for snippets saved anonymously; anyone may change those.
type Snippet struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	ComponentType string    `json:"componentType"`
	Source        string    `json:"source"`
	Description   string    `json:"description"`
	UserID        string    `json:"userId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// OwnedBy reports whether userID may modify the snippet.
func (s *Snippet) OwnedBy(userID string) bool {
	return s.UserID == "" || s.UserID == userID
}
