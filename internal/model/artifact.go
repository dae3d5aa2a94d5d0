package model

import "time"

// ArtifactRecord is one generated stat card: the image-generation prompt, the
// remote image URL, and a short quotation for a single named statistic.
//
// Exactly one ArtifactRecord exists per (snapshot, stat name) pair — the
// pipeline walks the fixed statistic list once, and the DB backs that up with
// a UNIQUE(snapshot_id, stat_name) constraint. ImageURL points at the image
// host; we never download or re-host the bytes.
type ArtifactRecord struct {
	ID         string    `json:"id"         db:"id"`
	SnapshotID string    `json:"snapshotId" db:"snapshot_id"`
	StatName   StatName  `json:"statName"   db:"stat_name"`
	StatValue  string    `json:"statValue"  db:"stat_value"`
	Prompt     string    `json:"prompt"     db:"prompt"`
	Quotation  string    `json:"quotation"  db:"quotation"`
	ImageURL   string    `json:"imageUrl"   db:"image_url"`
	CreatedAt  time.Time `json:"createdAt"  db:"created_at"`
}
