package web

import (
	"encoding/json"
	"net/http"

	"github.com/gatherhq/gather-server/server/auth"
	"github.com/gatherhq/gather-server/server/domain"
	"github.com/gatherhq/gather-server/server/review"
)

type createReviewPayload struct {
	EventID     int64   `json:"event_id"`
	Score       int     `json:"score"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

type updateReviewPayload struct {
	Score       int     `json:"score"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

func validateReviewFields(score int, title string) error {
	if score < 1 || score > 5 {
		return domain.InvalidInputf("score must be between 1 and 5")
	}
	if title == "" {
		return domain.InvalidInputf("title is required")
	}
	return nil
}

func (h *handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload createReviewPayload
	if err := decodeJSON(r, &payload); err != nil {
		respondError(ctx, w, err)
		return
	}
	if err := validateReviewFields(payload.Score, payload.Title); err != nil {
		respondError(ctx, w, err)
		return
	}

	created, err := h.Reviews.Create(ctx, auth.GetPrincipal(r), review.CreateParams{
		EventID:     payload.EventID,
		Score:       payload.Score,
		Title:       payload.Title,
		Description: payload.Description,
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, newReviewResponse(*created))
}

func (h *handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var filter domain.ReviewFilter
	var err error
	if filter.EventID, err = queryID(r, "event_id"); err != nil {
		respondError(ctx, w, err)
		return
	}
	if filter.UserID, err = queryID(r, "user_id"); err != nil {
		respondError(ctx, w, err)
		return
	}

	reviews, err := h.Reviews.List(ctx, auth.GetPrincipal(r), filter)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, newReviewResponses(reviews))
}

func (h *handler) GetReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	reviewID, err := pathID(r, "review_id")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	found, err := h.Reviews.Get(ctx, auth.GetPrincipal(r), reviewID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, newReviewResponse(*found))
}

func (h *handler) PutReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	reviewID, err := pathID(r, "review_id")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var payload updateReviewPayload
	if err = decodeJSON(r, &payload); err != nil {
		respondError(ctx, w, err)
		return
	}
	if err = validateReviewFields(payload.Score, payload.Title); err != nil {
		respondError(ctx, w, err)
		return
	}

	updated, err := h.Reviews.Update(ctx, auth.GetPrincipal(r), reviewID, review.UpdateParams{
		Score:       payload.Score,
		Title:       payload.Title,
		Description: payload.Description,
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, newReviewResponse(*updated))
}

// PatchReview applies a partial update. A field that is present but null is
// rejected; a PATCH cannot clear fields, only replace them.
func (h *handler) PatchReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	reviewID, err := pathID(r, "review_id")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var fields map[string]json.RawMessage
	if err = decodeJSON(r, &fields); err != nil {
		respondError(ctx, w, err)
		return
	}
	if raw, ok := fields["score"]; ok && string(raw) == "null" {
		respondError(ctx, w, domain.InvalidInputf("score cannot be null"))
		return
	}
	if raw, ok := fields["title"]; ok && string(raw) == "null" {
		respondError(ctx, w, domain.InvalidInputf("title cannot be null"))
		return
	}
	if raw, ok := fields["description"]; ok && string(raw) == "null" {
		respondError(ctx, w, domain.InvalidInputf("description cannot be null"))
		return
	}

	var params review.PatchParams
	if raw, ok := fields["score"]; ok {
		var score int
		if err = json.Unmarshal(raw, &score); err != nil {
			respondError(ctx, w, domain.InvalidInputf("invalid score"))
			return
		}
		if score < 1 || score > 5 {
			respondError(ctx, w, domain.InvalidInputf("score must be between 1 and 5"))
			return
		}
		params.Score = &score
	}
	if raw, ok := fields["title"]; ok {
		var title string
		if err = json.Unmarshal(raw, &title); err != nil {
			respondError(ctx, w, domain.InvalidInputf("invalid title"))
			return
		}
		if title == "" {
			respondError(ctx, w, domain.InvalidInputf("title is required"))
			return
		}
		params.Title = &title
	}
	if raw, ok := fields["description"]; ok {
		var description string
		if err = json.Unmarshal(raw, &description); err != nil {
			respondError(ctx, w, domain.InvalidInputf("invalid description"))
			return
		}
		params.Description = &description
	}

	updated, err := h.Reviews.Patch(ctx, auth.GetPrincipal(r), reviewID, params)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, newReviewResponse(*updated))
}

func (h *handler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	reviewID, err := pathID(r, "review_id")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err = h.Reviews.Delete(ctx, auth.GetPrincipal(r), reviewID); err != nil {
		respondError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
