package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sakif/github-wrapped/internal/apperror"
	"github.com/sakif/github-wrapped/internal/handler"
	"github.com/sakif/github-wrapped/internal/model"
	"github.com/sakif/github-wrapped/internal/service"
)

// MockWrappedService stands in for the pipeline so handler tests cover only
// HTTP concerns: decoding, status mapping, response shape.
type MockWrappedService struct {
	CapturedUsername string
	ReturnResult     *service.WrappedResult
	ReturnErr        error
}

func (m *MockWrappedService) Generate(ctx context.Context, username string) (*service.WrappedResult, error) {
	m.CapturedUsername = username
	if m.ReturnErr != nil {
		return nil, m.ReturnErr
	}
	return m.ReturnResult, nil
}

func sampleResult() *service.WrappedResult {
	lang := "Go"
	return &service.WrappedResult{
		Profile: &model.Profile{
			ID:          "p1",
			Username:    "torvalds",
			DisplayName: "Linus Torvalds",
			AvatarURL:   "https://avatars.example/1",
		},
		Snapshot: &model.StatsSnapshot{
			ID:                "s1",
			ProfileID:         "p1",
			TotalCommits:      250,
			TotalRepositories: 7,
			StarsReceived:     42,
			ContributionScore: 900,
			MostUsedLanguage:  &lang,
			FollowerCount:     1000,
		},
		Artifacts: []model.ArtifactRecord{
			{
				StatName:  model.StatTotalCommits,
				StatValue: "250",
				Prompt:    "an abstract landscape of 250 commits",
				Quotation: "ship it",
				ImageURL:  "https://images.example/commits.png",
			},
		},
	}
}

func TestWrappedHandler_HandleGenerate(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	t.Run("successful generation", func(t *testing.T) {
		mockSvc := &MockWrappedService{ReturnResult: sampleResult()}
		h := handler.NewWrappedHandler(mockSvc, logger)

		reqBody := `{"username":"torvalds"}`
		req := httptest.NewRequest(http.MethodPost, "/api/github-wrapped", bytes.NewBufferString(reqBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		h.HandleGenerate(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "torvalds", mockSvc.CapturedUsername)

		var res map[string]any
		err := json.NewDecoder(rr.Body).Decode(&res)
		assert.NoError(t, err)

		user := res["user"].(map[string]any)
		assert.Equal(t, "torvalds", user["username"])
		assert.Equal(t, "Linus Torvalds", user["name"])

		stats := res["stats"].(map[string]any)
		assert.Equal(t, float64(250), stats["total_commits"])
		assert.Equal(t, "Go", stats["most_used_language"])
		// Unknown collaborator count must serialise as null, not 0.
		assert.Nil(t, stats["collaborators"])

		art := res["generated_art"].([]any)
		assert.Len(t, art, 1)
		card := art[0].(map[string]any)
		assert.Equal(t, "Total Commits", card["stat_name"])
		assert.Equal(t, "https://images.example/commits.png", card["image_url"])

		assert.Equal(t, false, res["cached"])
	})

	t.Run("cached result is flagged", func(t *testing.T) {
		result := sampleResult()
		result.FromCache = true
		mockSvc := &MockWrappedService{ReturnResult: result}
		h := handler.NewWrappedHandler(mockSvc, logger)

		req := httptest.NewRequest(http.MethodPost, "/api/github-wrapped", bytes.NewBufferString(`{"username":"torvalds"}`))
		rr := httptest.NewRecorder()

		h.HandleGenerate(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var res map[string]any
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Equal(t, true, res["cached"])
	})

	t.Run("invalid request body", func(t *testing.T) {
		mockSvc := &MockWrappedService{}
		h := handler.NewWrappedHandler(mockSvc, logger)

		req := httptest.NewRequest(http.MethodPost, "/api/github-wrapped", bytes.NewBufferString(`{"username":`))
		rr := httptest.NewRecorder()

		h.HandleGenerate(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("validation error maps to 400", func(t *testing.T) {
		mockSvc := &MockWrappedService{
			ReturnErr: apperror.ValidationFailed("username", "username is required"),
		}
		h := handler.NewWrappedHandler(mockSvc, logger)

		req := httptest.NewRequest(http.MethodPost, "/api/github-wrapped", bytes.NewBufferString(`{"username":""}`))
		rr := httptest.NewRecorder()

		h.HandleGenerate(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		var res map[string]any
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Equal(t, "validation_error", res["error"])
	})

	t.Run("upstream error maps to 502", func(t *testing.T) {
		mockSvc := &MockWrappedService{
			ReturnErr: apperror.UpstreamFailed("profile", errors.New("503 from api")),
		}
		h := handler.NewWrappedHandler(mockSvc, logger)

		req := httptest.NewRequest(http.MethodPost, "/api/github-wrapped", bytes.NewBufferString(`{"username":"torvalds"}`))
		rr := httptest.NewRecorder()

		h.HandleGenerate(rr, req)

		assert.Equal(t, http.StatusBadGateway, rr.Code)
		var res map[string]any
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Equal(t, "upstream_error", res["error"])
	})

	t.Run("generation error maps to 502", func(t *testing.T) {
		mockSvc := &MockWrappedService{
			ReturnErr: apperror.GenerationFailed("image", errors.New("model overloaded")),
		}
		h := handler.NewWrappedHandler(mockSvc, logger)

		req := httptest.NewRequest(http.MethodPost, "/api/github-wrapped", bytes.NewBufferString(`{"username":"torvalds"}`))
		rr := httptest.NewRecorder()

		h.HandleGenerate(rr, req)

		assert.Equal(t, http.StatusBadGateway, rr.Code)
		var res map[string]any
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Equal(t, "generation_error", res["error"])
	})

	t.Run("unknown error maps to 500", func(t *testing.T) {
		mockSvc := &MockWrappedService{ReturnErr: errors.New("boom")}
		h := handler.NewWrappedHandler(mockSvc, logger)

		req := httptest.NewRequest(http.MethodPost, "/api/github-wrapped", bytes.NewBufferString(`{"username":"torvalds"}`))
		rr := httptest.NewRecorder()

		h.HandleGenerate(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}
