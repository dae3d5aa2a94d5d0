// Package repository declares the persistence interfaces the service layer
// depends on. The concrete SQLite implementation lives in repository/sqlite;
// tests substitute in-memory fakes.
package repository

import (
	"context"

	"github.com/sakif/github-wrapped/internal/model"
)

// WrappedRepository is the durable result store for the pipeline: profiles,
// their stats snapshots, and the generated artifacts.
//
// Semantics the implementation must provide:
//   - CreateProfile fails with a conflict error when the username already
//     exists (UNIQUE on username) — callers use that for get-or-create.
//   - LatestSnapshot returns a not-found error when the profile has no
//     snapshot yet; that absence is what routes a request into a full run.
//   - CreateArtifact fails with a conflict error for a duplicate
//     (snapshot, stat name) pair, backing the one-artifact-per-stat
//     invariant.
type WrappedRepository interface {
	CreateProfile(ctx context.Context, profile *model.Profile) error
	GetProfileByUsername(ctx context.Context, username string) (*model.Profile, error)

	CreateSnapshot(ctx context.Context, snapshot *model.StatsSnapshot) error
	LatestSnapshot(ctx context.Context, profileID string) (*model.StatsSnapshot, error)

	CreateArtifact(ctx context.Context, artifact *model.ArtifactRecord) error
	ArtifactsBySnapshot(ctx context.Context, snapshotID string) ([]model.ArtifactRecord, error)
}
