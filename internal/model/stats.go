package model

import (
	"strconv"
	"time"
)

// StatsSnapshot is one derived-statistics computation for a Profile.
//
// Snapshots are immutable once created. A profile could in principle
// accumulate several snapshots over time (there is no update-in-place), but
// the pipeline's cache check means at most one is ever created per profile
// unless the cached rows are deleted externally.
//
// WHY *string / *int FOR SOME FIELDS?
// MostUsedLanguage is nil when none of the user's repositories declares a
// language — that's different from "". CollaboratorCount comes from a profile
// field GitHub doesn't actually expose for arbitrary users; we keep it
// nullable rather than inventing a meaning for it.
type StatsSnapshot struct {
	ID                string    `json:"id"                db:"id"`
	ProfileID         string    `json:"profileId"         db:"profile_id"`
	TotalCommits      int       `json:"totalCommits"      db:"total_commits"`
	TotalRepositories int       `json:"totalRepositories" db:"total_repositories"`
	StarsReceived     int       `json:"starsReceived"     db:"stars_received"`
	ContributionScore int       `json:"contributionScore" db:"contribution_score"` // Σ repo size — a simplified proxy, kept on purpose
	MostUsedLanguage  *string   `json:"mostUsedLanguage"  db:"most_used_language"`
	CollaboratorCount *int      `json:"collaboratorCount" db:"collaborator_count"`
	FollowerCount     int       `json:"followerCount"     db:"follower_count"`
	GeneratedAt       time.Time `json:"generatedAt"       db:"generated_at"`
}

// StatName identifies one of the fixed statistics an artifact is generated for.
type StatName string

// The fixed statistic enumeration. AllStatNames is the canonical generation
// order — artifacts are generated and persisted in exactly this sequence, so
// a partially failed run always has a prefix of this list in the store.
const (
	StatTotalCommits      StatName = "Total Commits"
	StatTotalRepositories StatName = "Total Repositories"
	StatStarsReceived     StatName = "Stars Received"
	StatMostUsedLanguage  StatName = "Most Used Language"
	StatContributions     StatName = "Contributions"
	StatCollaborators     StatName = "Collaborators"
	StatFollowers         StatName = "Followers"
)

// AllStatNames lists every StatName in the stable generation order.
func AllStatNames() []StatName {
	return []StatName{
		StatTotalCommits,
		StatTotalRepositories,
		StatStarsReceived,
		StatMostUsedLanguage,
		StatContributions,
		StatCollaborators,
		StatFollowers,
	}
}

// StatValue renders the snapshot's value for the given statistic as display
// text. Nullable statistics with no value render as "N/A".
func (s *StatsSnapshot) StatValue(name StatName) string {
	switch name {
	case StatTotalCommits:
		return strconv.Itoa(s.TotalCommits)
	case StatTotalRepositories:
		return strconv.Itoa(s.TotalRepositories)
	case StatStarsReceived:
		return strconv.Itoa(s.StarsReceived)
	case StatMostUsedLanguage:
		if s.MostUsedLanguage == nil {
			return "N/A"
		}
		return *s.MostUsedLanguage
	case StatContributions:
		return strconv.Itoa(s.ContributionScore)
	case StatCollaborators:
		if s.CollaboratorCount == nil {
			return "N/A"
		}
		return strconv.Itoa(*s.CollaboratorCount)
	case StatFollowers:
		return strconv.Itoa(s.FollowerCount)
	}
	return ""
}
