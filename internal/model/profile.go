// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// Profile is the cached identity record for a GitHub username.
//
// A Profile is created exactly once, on the first successful collection for a
// username, and never mutated afterwards — repeat requests for the same
// username are answered from the cache before any write could happen.
// The UNIQUE constraint on username in the DB is what makes "exactly once"
// hold even if two requests race past the cache check.
//
// WHY DisplayName AND Bio AS PLAIN strings (not *string)?
// GitHub returns null for users who never filled these in. We map null to the
// empty string when decoding the API response — an empty display name renders
// fine, and it keeps the struct simple. Fields where "absent" and "zero"
// genuinely differ (see StatsSnapshot.CollaboratorCount) use pointers instead.
type Profile struct {
	ID          string    `json:"id"          db:"id"`
	Username    string    `json:"username"    db:"username"` // GitHub login, e.g. "torvalds"
	AvatarURL   string    `json:"avatarUrl"   db:"avatar_url"`
	DisplayName string    `json:"displayName" db:"display_name"`
	Bio         string    `json:"bio"         db:"bio"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
}
