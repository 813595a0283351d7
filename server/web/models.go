package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gatherhq/gather-server/server/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

type clubResponse struct {
	ID          int64  `json:"id"`
	HostID      int64  `json:"host_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MaxPeople   int    `json:"max_people"`
}

func newClubResponse(club domain.Club) clubResponse {
	return clubResponse{
		ID:          club.ID,
		HostID:      club.HostID,
		Name:        club.Name,
		Description: club.Description,
		MaxPeople:   club.MaxPeople,
	}
}

func newClubResponses(clubs []domain.Club) []clubResponse {
	responses := make([]clubResponse, 0, len(clubs))
	for _, club := range clubs {
		responses = append(responses, newClubResponse(club))
	}
	return responses
}

type clubMemberResponse struct {
	ID     int64  `json:"id"`
	ClubID int64  `json:"club_id"`
	UserID int64  `json:"user_id"`
	Status string `json:"status"`
}

func newClubMemberResponses(members []domain.ClubMember) []clubMemberResponse {
	responses := make([]clubMemberResponse, 0, len(members))
	for _, member := range members {
		responses = append(responses, clubMemberResponse{
			ID:     member.ID,
			ClubID: member.ClubID,
			UserID: member.UserID,
			Status: string(member.Status),
		})
	}
	return responses
}

type eventResponse struct {
	ID          int64     `json:"id"`
	HostID      int64     `json:"host_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CategoryID  int64     `json:"category_id"`
	ClubID      *int64    `json:"club_id"`
	CityIDs     []int64   `json:"city_ids"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	MaxPeople   int       `json:"max_people"`
	IsArchived  bool      `json:"is_archived"`
}

func newEventResponse(event domain.Event) eventResponse {
	return eventResponse{
		ID:          event.ID,
		HostID:      event.HostID,
		Title:       event.Title,
		Description: event.Description,
		CategoryID:  event.CategoryID,
		ClubID:      event.ClubID,
		CityIDs:     event.CityIDs,
		StartTime:   event.StartTime,
		EndTime:     event.EndTime,
		MaxPeople:   event.MaxPeople,
		IsArchived:  event.IsArchived,
	}
}

func newEventResponses(events []domain.Event) []eventResponse {
	responses := make([]eventResponse, 0, len(events))
	for _, event := range events {
		responses = append(responses, newEventResponse(event))
	}
	return responses
}

type reviewResponse struct {
	ID          int64   `json:"id"`
	UserID      int64   `json:"user_id"`
	EventID     int64   `json:"event_id"`
	Score       int     `json:"score"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

func newReviewResponse(review domain.Review) reviewResponse {
	return reviewResponse{
		ID:          review.ID,
		UserID:      review.UserID,
		EventID:     review.EventID,
		Score:       review.Score,
		Title:       review.Title,
		Description: review.Description,
	}
}

func newReviewResponses(reviews []domain.Review) []reviewResponse {
	responses := make([]reviewResponse, 0, len(reviews))
	for _, review := range reviews {
		responses = append(responses, newReviewResponse(review))
	}
	return responses
}

type refResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", slog.Any("error", err))
	}
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.InvalidInputf("invalid request body")
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil {
		return 0, domain.InvalidInputf("invalid %s", name)
	}
	return id, nil
}

func queryID(r *http.Request, name string) (*int64, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil, domain.InvalidInputf("invalid %s", name)
	}
	return &id, nil
}
