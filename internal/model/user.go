package model

import "time"

// User represents a registered user account.
//
// GitHub OAuth is the identity provider, so the primary external identifier
// is the GitHub user ID. We still generate our own internal string ID (xid):
// that ID is the identity recorded as the owner of every posting the user
// creates, so it must not depend on a third party's numbering scheme.
//
// WHY Email string (not *string)?
// GitHub OAuth returns the primary public email, which can be empty if the
// user has hidden it. We use an empty string as the zero value rather than a
// nullable pointer: simpler to work with and safe to display.
type User struct {
	ID        string    `json:"id"        db:"id"`
	GitHubID  int64     `json:"githubId"  db:"github_id"` // GitHub's numeric user ID
	Login     string    `json:"login"     db:"login"`     // GitHub username
	Email     string    `json:"email"     db:"email"`     // Primary public email (may be empty)
	AvatarURL string    `json:"avatarUrl" db:"avatar_url"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
