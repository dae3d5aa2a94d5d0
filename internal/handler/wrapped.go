package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/github-wrapped/internal/service"
)

// WrappedGenerator is the slice of the service layer this handler needs.
// Declared here (at the consumer) so tests can swap in a fake without
// touching the real pipeline.
type WrappedGenerator interface {
	Generate(ctx context.Context, username string) (*service.WrappedResult, error)
}

// WrappedHandler exposes the stats-and-art pipeline over HTTP.
type WrappedHandler struct {
	service WrappedGenerator
	logger  *slog.Logger
}

// NewWrappedHandler creates a new WrappedHandler.
func NewWrappedHandler(service WrappedGenerator, logger *slog.Logger) *WrappedHandler {
	return &WrappedHandler{service: service, logger: logger}
}

// generateRequest is the expected POST body.
type generateRequest struct {
	Username string `json:"username"`
}

// userPayload is the profile section of the response.
type userPayload struct {
	Username  string `json:"username"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Bio       string `json:"bio,omitempty"`
}

// statsPayload is the derived-statistics section of the response.
// Language and collaborators are pointers so "unknown" serialises as null
// rather than a misleading zero value.
type statsPayload struct {
	TotalCommits      int     `json:"total_commits"`
	TotalRepositories int     `json:"total_repositories"`
	StarsReceived     int     `json:"stars_received"`
	ContributionScore int     `json:"contribution_score"`
	MostUsedLanguage  *string `json:"most_used_language"`
	Collaborators     *int    `json:"collaborators"`
	Followers         int     `json:"followers"`
}

// artPayload is one generated stat card.
type artPayload struct {
	StatName  string `json:"stat_name"`
	StatValue string `json:"stat_value"`
	Prompt    string `json:"prompt"`
	Quotation string `json:"quotation"`
	ImageURL  string `json:"image_url"`
}

// generateResponse is the full response body.
type generateResponse struct {
	User         userPayload  `json:"user"`
	Stats        statsPayload `json:"stats"`
	GeneratedArt []artPayload `json:"generated_art"`
	Cached       bool         `json:"cached"`
}

// HandleGenerate runs (or replays) the wrapped pipeline for a username.
//
// HTTP: POST /api/github-wrapped
// REQUEST BODY: {"username": "torvalds"}
//
// A repeated username returns the stored result with "cached": true and
// costs no upstream or generative calls.
func (h *WrappedHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid generate request JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "request body must be JSON with a username field",
		})
		return
	}

	result, err := h.service.Generate(r.Context(), req.Username)
	if err != nil {
		h.logger.Error("wrapped generation failed",
			slog.String("username", req.Username),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toGenerateResponse(result))
}

func toGenerateResponse(result *service.WrappedResult) generateResponse {
	art := make([]artPayload, 0, len(result.Artifacts))
	for _, a := range result.Artifacts {
		art = append(art, artPayload{
			StatName:  string(a.StatName),
			StatValue: a.StatValue,
			Prompt:    a.Prompt,
			Quotation: a.Quotation,
			ImageURL:  a.ImageURL,
		})
	}

	return generateResponse{
		User: userPayload{
			Username:  result.Profile.Username,
			Name:      result.Profile.DisplayName,
			AvatarURL: result.Profile.AvatarURL,
			Bio:       result.Profile.Bio,
		},
		Stats: statsPayload{
			TotalCommits:      result.Snapshot.TotalCommits,
			TotalRepositories: result.Snapshot.TotalRepositories,
			StarsReceived:     result.Snapshot.StarsReceived,
			ContributionScore: result.Snapshot.ContributionScore,
			MostUsedLanguage:  result.Snapshot.MostUsedLanguage,
			Collaborators:     result.Snapshot.CollaboratorCount,
			Followers:         result.Snapshot.FollowerCount,
		},
		GeneratedArt: art,
		Cached:       result.FromCache,
	}
}
