// Package service contains the business logic layer of the application.
//
// THE PIPELINE LIVES HERE:
// The handler parses HTTP and the repository talks SQL; this layer owns the
// state machine in between — cache check, collect, derive, generate,
// assemble. It depends only on interfaces (repository, collector, generator),
// so every stage can be substituted in tests with plain Go fakes and the
// whole pipeline exercised without a network or a database.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/sakif/github-wrapped/internal/apperror"
	"github.com/sakif/github-wrapped/internal/github"
	"github.com/sakif/github-wrapped/internal/model"
	"github.com/sakif/github-wrapped/internal/repository"
	"github.com/sakif/github-wrapped/internal/stats"
)

// Collector fetches raw profile data from the source-hosting API.
// *github.Client is the production implementation.
type Collector interface {
	Profile(ctx context.Context, username string) (*github.ProfileInfo, error)
	AllRepositories(ctx context.Context, username string) ([]github.Repo, error)
	CommitSummary(ctx context.Context, username string) (*github.CommitSummary, error)
}

// ArtifactGenerator produces one stat card for a statistic.
// *generator.Generator is the production implementation.
type ArtifactGenerator interface {
	Generate(ctx context.Context, statName model.StatName, statValue string) (*model.ArtifactRecord, error)
}

// WrappedResult is the assembled outcome of one pipeline invocation.
type WrappedResult struct {
	Profile   *model.Profile
	Snapshot  *model.StatsSnapshot
	Artifacts []model.ArtifactRecord
	// FromCache is true when the result was replayed from the store without
	// any upstream or generative calls.
	FromCache bool
}

// WrappedService orchestrates the stats-aggregation and generative-art
// pipeline for one username at a time.
type WrappedService struct {
	repo      repository.WrappedRepository
	collector Collector
	generator ArtifactGenerator
	timeout   time.Duration
	logger    *slog.Logger

	// flights collapses concurrent requests for the same username into one
	// pipeline execution. Without it, two requests racing past the cache
	// check would both run the full pipeline and double-spend the paid
	// generative calls — the store's unique constraints would keep the data
	// consistent, but the money would be gone.
	flights singleflight.Group
}

// NewWrappedService creates a WrappedService. timeout bounds one full
// pipeline run; zero means no bound.
func NewWrappedService(
	repo repository.WrappedRepository,
	collector Collector,
	generator ArtifactGenerator,
	timeout time.Duration,
	logger *slog.Logger,
) *WrappedService {
	return &WrappedService{
		repo:      repo,
		collector: collector,
		generator: generator,
		timeout:   timeout,
		logger:    logger,
	}
}

// Generate runs the pipeline for a username, or replays the cached result.
//
// Terminal states: served-from-cache (FromCache true), completed (FromCache
// false), or an error. Repeating a completed username is always served from
// cache — at most one full run per username for the lifetime of the store.
func (s *WrappedService) Generate(ctx context.Context, username string) (*WrappedResult, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}

	// Concurrent callers for the same username share one execution and one
	// result. Note: the shared run uses the FIRST caller's context; a later
	// caller cancelling does not abort it.
	v, err, _ := s.flights.Do(username, func() (any, error) {
		return s.run(ctx, username)
	})
	if err != nil {
		return nil, err
	}
	return v.(*WrappedResult), nil
}

func (s *WrappedService) run(ctx context.Context, username string) (*WrappedResult, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	// === CACHE CHECK ===
	// A profile with at least one snapshot short-circuits the whole run.
	// A profile WITHOUT a snapshot (an earlier run died before deriving)
	// is reused rather than duplicated — get-or-create keyed by username.
	profile, err := s.repo.GetProfileByUsername(ctx, username)
	switch {
	case err == nil:
		snapshot, snapErr := s.repo.LatestSnapshot(ctx, profile.ID)
		if snapErr == nil {
			artifacts, artErr := s.repo.ArtifactsBySnapshot(ctx, snapshot.ID)
			if artErr != nil {
				return nil, artErr
			}
			s.logger.Info("served from cache",
				slog.String("username", username),
				slog.Int("artifacts", len(artifacts)),
			)
			return &WrappedResult{
				Profile:   profile,
				Snapshot:  snapshot,
				Artifacts: artifacts,
				FromCache: true,
			}, nil
		}
		if !errors.Is(snapErr, apperror.ErrNotFound) {
			return nil, snapErr
		}
	case errors.Is(err, apperror.ErrNotFound):
		profile = nil
	default:
		return nil, err
	}

	// === COLLECT ===
	info, err := s.collector.Profile(ctx, username)
	if err != nil {
		return nil, err
	}

	if profile == nil {
		profile = &model.Profile{
			Username:    username,
			AvatarURL:   info.AvatarURL,
			DisplayName: info.Name,
			Bio:         info.Bio,
		}
		if err := s.repo.CreateProfile(ctx, profile); err != nil {
			if !errors.Is(err, apperror.ErrConflict) {
				return nil, err
			}
			// Another process created it between our check and our insert —
			// first writer wins, we adopt their row.
			profile, err = s.repo.GetProfileByUsername(ctx, username)
			if err != nil {
				return nil, err
			}
		}
	}

	// === DERIVE ===
	repos, err := s.collector.AllRepositories(ctx, username)
	if err != nil {
		return nil, err
	}
	summary, err := s.collector.CommitSummary(ctx, username)
	if err != nil {
		return nil, err
	}

	snapshot := stats.Derive(info, repos, summary)
	snapshot.ProfileID = profile.ID
	if err := s.repo.CreateSnapshot(ctx, snapshot); err != nil {
		return nil, err
	}

	s.logger.Info("stats derived",
		slog.String("username", username),
		slog.Int("repositories", snapshot.TotalRepositories),
		slog.Int("commits", snapshot.TotalCommits),
	)

	// === GENERATE ===
	// Fixed order, persist-as-you-go. Each artifact is written the moment it
	// exists, so a failure at stat N leaves stats 1..N-1 in the store — an
	// accepted partial state, never rolled back. Stop on first failure: no
	// point paying for more generations once the run cannot complete.
	artifacts := make([]model.ArtifactRecord, 0, 7)
	for _, statName := range model.AllStatNames() {
		artifact, err := s.generator.Generate(ctx, statName, snapshot.StatValue(statName))
		if err != nil {
			s.logger.Error("artifact generation failed, aborting remaining stats",
				slog.String("username", username),
				slog.String("stat", string(statName)),
				slog.Int("persisted", len(artifacts)),
				slog.String("error", err.Error()),
			)
			return nil, err
		}

		artifact.SnapshotID = snapshot.ID
		if err := s.repo.CreateArtifact(ctx, artifact); err != nil {
			return nil, err
		}
		artifacts = append(artifacts, *artifact)
	}

	// === ASSEMBLE ===
	s.logger.Info("pipeline completed",
		slog.String("username", username),
		slog.Int("artifacts", len(artifacts)),
	)
	return &WrappedResult{
		Profile:   profile,
		Snapshot:  snapshot,
		Artifacts: artifacts,
		FromCache: false,
	}, nil
}
