// Package stats reduces raw collector output into the fixed set of derived
// statistics. Everything here is pure: no I/O, no clock, deterministic for a
// given input — which is what makes it trivially testable.
package stats

import (
	"github.com/sakif/github-wrapped/internal/github"
	"github.com/sakif/github-wrapped/internal/model"
)

// Derive computes a StatsSnapshot value from the collected profile,
// repository list and commit summary. The snapshot is not yet persisted; ID,
// ProfileID and GeneratedAt are filled in by the repository on create.
//
// ContributionScore is the sum of repository sizes. That is an explicitly
// simplified proxy inherited from the stats definition, not a real
// contribution count — do not "fix" it.
func Derive(profile *github.ProfileInfo, repos []github.Repo, commits *github.CommitSummary) *model.StatsSnapshot {
	snapshot := &model.StatsSnapshot{
		TotalRepositories: len(repos),
		MostUsedLanguage:  mostUsedLanguage(repos),
	}

	if commits != nil {
		snapshot.TotalCommits = commits.TotalCount
	}
	if profile != nil {
		snapshot.FollowerCount = profile.Followers
		snapshot.CollaboratorCount = profile.Collaborators
	}

	for _, repo := range repos {
		snapshot.StarsReceived += repo.StargazersCount
		snapshot.ContributionScore += repo.Size
	}

	return snapshot
}

// mostUsedLanguage returns the language declared most frequently across the
// repositories, ignoring repos with no language. Ties are broken by which
// language was encountered first in iteration order. Returns nil when no
// repository declares a language.
func mostUsedLanguage(repos []github.Repo) *string {
	counts := make(map[string]int)
	for _, repo := range repos {
		if repo.Language != nil && *repo.Language != "" {
			counts[*repo.Language]++
		}
	}

	var best string
	found := false
	for _, repo := range repos {
		if repo.Language == nil || *repo.Language == "" {
			continue
		}
		lang := *repo.Language
		if !found || counts[lang] > counts[best] {
			best = lang
			found = true
		}
		// Equal counts never replace best: walking in iteration order means
		// best already holds the earlier first occurrence.
	}

	if !found {
		return nil
	}
	return &best
}
