package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/github-wrapped/internal/apperror"
	"github.com/sakif/github-wrapped/internal/model"
	"github.com/sakif/github-wrapped/internal/repository"
)

// Compile-time check that *DB implements the repository interface.
// `var _ X = (*Y)(nil)` makes a missing method a build error here rather
// than a surprise at the call site much later.
var _ repository.WrappedRepository = (*DB)(nil)

// isUniqueViolation reports whether err is a SQLite UNIQUE-constraint
// failure. modernc.org/sqlite exposes no typed error for this, so the
// message text is the contract (it is stable across SQLite versions).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// CreateProfile inserts a new profile. A username collision — either a
// previous run or a concurrent one got there first — comes back as a
// conflict error, which callers resolve by re-fetching the existing row.
func (db *DB) CreateProfile(ctx context.Context, profile *model.Profile) error {
	profile.ID = xid.New().String()
	profile.CreatedAt = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO profiles (id, username, avatar_url, display_name, bio, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		profile.ID,
		profile.Username,
		profile.AvatarURL,
		profile.DisplayName,
		profile.Bio,
		profile.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("profile", profile.Username)
		}
		return apperror.PersistenceFailed("profile", err)
	}

	return nil
}

// GetProfileByUsername retrieves a profile by its unique username.
func (db *DB) GetProfileByUsername(ctx context.Context, username string) (*model.Profile, error) {
	var p model.Profile

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, username, avatar_url, display_name, bio, created_at
		 FROM profiles
		 WHERE username = ?`,
		username,
	).Scan(
		&p.ID,
		&p.Username,
		&p.AvatarURL,
		&p.DisplayName,
		&p.Bio,
		&p.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("profile", username)
		}
		return nil, apperror.PersistenceFailed("profile lookup", err)
	}

	return &p, nil
}

// CreateSnapshot inserts a new stats snapshot for a profile.
func (db *DB) CreateSnapshot(ctx context.Context, snapshot *model.StatsSnapshot) error {
	snapshot.ID = xid.New().String()
	snapshot.GeneratedAt = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO stats_snapshots
		 (id, profile_id, total_commits, total_repositories, stars_received,
		  contribution_score, most_used_language, collaborator_count, follower_count, generated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snapshot.ID,
		snapshot.ProfileID,
		snapshot.TotalCommits,
		snapshot.TotalRepositories,
		snapshot.StarsReceived,
		snapshot.ContributionScore,
		snapshot.MostUsedLanguage, // *string → NULL when nil
		snapshot.CollaboratorCount,
		snapshot.FollowerCount,
		snapshot.GeneratedAt,
	)
	if err != nil {
		return apperror.PersistenceFailed("snapshot", err)
	}

	return nil
}

// LatestSnapshot returns the most recent snapshot for a profile, or a
// not-found error when the profile has none yet. xid IDs sort by creation
// time, so (generated_at, id) gives a stable "most recent" even for
// snapshots created within the same clock tick.
func (db *DB) LatestSnapshot(ctx context.Context, profileID string) (*model.StatsSnapshot, error) {
	var (
		s        model.StatsSnapshot
		language sql.NullString
		collab   sql.NullInt64
	)

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, profile_id, total_commits, total_repositories, stars_received,
		        contribution_score, most_used_language, collaborator_count, follower_count, generated_at
		 FROM stats_snapshots
		 WHERE profile_id = ?
		 ORDER BY generated_at DESC, id DESC
		 LIMIT 1`,
		profileID,
	).Scan(
		&s.ID,
		&s.ProfileID,
		&s.TotalCommits,
		&s.TotalRepositories,
		&s.StarsReceived,
		&s.ContributionScore,
		&language,
		&collab,
		&s.FollowerCount,
		&s.GeneratedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("snapshot", profileID)
		}
		return nil, apperror.PersistenceFailed("snapshot lookup", err)
	}

	if language.Valid {
		s.MostUsedLanguage = &language.String
	}
	if collab.Valid {
		n := int(collab.Int64)
		s.CollaboratorCount = &n
	}

	return &s, nil
}

// CreateArtifact inserts one generated artifact. The UNIQUE constraint on
// (snapshot_id, stat_name) turns a duplicate write into a conflict error
// instead of a second row.
func (db *DB) CreateArtifact(ctx context.Context, artifact *model.ArtifactRecord) error {
	artifact.ID = xid.New().String()
	artifact.CreatedAt = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO artifact_records
		 (id, snapshot_id, stat_name, stat_value, prompt, quotation, image_url, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		artifact.ID,
		artifact.SnapshotID,
		string(artifact.StatName),
		artifact.StatValue,
		artifact.Prompt,
		artifact.Quotation,
		artifact.ImageURL,
		artifact.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("artifact", fmt.Sprintf("%s/%s", artifact.SnapshotID, artifact.StatName))
		}
		return apperror.PersistenceFailed("artifact", err)
	}

	return nil
}

// ArtifactsBySnapshot lists a snapshot's artifacts in creation order, which
// is the fixed statistic generation order.
func (db *DB) ArtifactsBySnapshot(ctx context.Context, snapshotID string) ([]model.ArtifactRecord, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, snapshot_id, stat_name, stat_value, prompt, quotation, image_url, created_at
		 FROM artifact_records
		 WHERE snapshot_id = ?
		 ORDER BY id ASC`,
		snapshotID,
	)
	if err != nil {
		return nil, apperror.PersistenceFailed("artifact listing", err)
	}
	defer rows.Close()

	artifacts := make([]model.ArtifactRecord, 0, 7)
	for rows.Next() {
		var a model.ArtifactRecord
		if err := rows.Scan(
			&a.ID, &a.SnapshotID, &a.StatName, &a.StatValue,
			&a.Prompt, &a.Quotation, &a.ImageURL, &a.CreatedAt,
		); err != nil {
			return nil, apperror.PersistenceFailed("artifact scan", err)
		}
		artifacts = append(artifacts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.PersistenceFailed("artifact iteration", err)
	}

	return artifacts, nil
}
