package web

import (
	"net/http"
	"time"

	"github.com/gatherhq/gather-server/server/auth"
	"github.com/gatherhq/gather-server/server/domain"
	"github.com/gatherhq/gather-server/server/event"
)

type createEventPayload struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CategoryID  int64     `json:"category_id"`
	CityIDs     []int64   `json:"city_ids"`
	ClubID      *int64    `json:"club_id"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	MaxPeople   int       `json:"max_people"`
}

type updateEventPayload struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CategoryID  int64     `json:"category_id"`
	CityIDs     []int64   `json:"city_ids"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	MaxPeople   int       `json:"max_people"`
}

func validateEventFields(title string, cityIDs []int64, maxPeople int) error {
	if title == "" {
		return domain.InvalidInputf("title is required")
	}
	if len(cityIDs) == 0 {
		return domain.InvalidInputf("city_ids must not be empty")
	}
	seen := make(map[int64]bool, len(cityIDs))
	for _, cityID := range cityIDs {
		if seen[cityID] {
			return domain.InvalidInputf("city_ids must not contain duplicates")
		}
		seen[cityID] = true
	}
	if maxPeople < 1 {
		return domain.InvalidInputf("max_people must be at least 1")
	}
	return nil
}

func (h *handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload createEventPayload
	if err := decodeJSON(r, &payload); err != nil {
		respondError(ctx, w, err)
		return
	}
	if err := validateEventFields(payload.Title, payload.CityIDs, payload.MaxPeople); err != nil {
		respondError(ctx, w, err)
		return
	}

	created, err := h.Events.Create(ctx, auth.GetPrincipal(r), event.CreateParams{
		Title:       payload.Title,
		Description: payload.Description,
		CategoryID:  payload.CategoryID,
		CityIDs:     payload.CityIDs,
		ClubID:      payload.ClubID,
		StartTime:   payload.StartTime,
		EndTime:     payload.EndTime,
		MaxPeople:   payload.MaxPeople,
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, newEventResponse(*created))
}

func (h *handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var filter domain.EventFilter
	var err error
	if filter.HostID, err = queryID(r, "host_id"); err != nil {
		respondError(ctx, w, err)
		return
	}
	if filter.CategoryID, err = queryID(r, "category_id"); err != nil {
		respondError(ctx, w, err)
		return
	}
	if filter.CityID, err = queryID(r, "city_id"); err != nil {
		respondError(ctx, w, err)
		return
	}
	if filter.ClubID, err = queryID(r, "club_id"); err != nil {
		respondError(ctx, w, err)
		return
	}

	events, err := h.Events.List(ctx, auth.GetPrincipal(r), filter)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, newEventResponses(events))
}

func (h *handler) MyEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	events, err := h.Events.Mine(ctx, auth.GetPrincipal(r))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, newEventResponses(events))
}

func (h *handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	eventID, err := pathID(r, "event_id")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	found, err := h.Events.Get(ctx, auth.GetPrincipal(r), eventID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, newEventResponse(*found))
}

func (h *handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	eventID, err := pathID(r, "event_id")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var payload updateEventPayload
	if err = decodeJSON(r, &payload); err != nil {
		respondError(ctx, w, err)
		return
	}
	if err = validateEventFields(payload.Title, payload.CityIDs, payload.MaxPeople); err != nil {
		respondError(ctx, w, err)
		return
	}

	updated, err := h.Events.Update(ctx, auth.GetPrincipal(r), eventID, event.UpdateParams{
		Title:       payload.Title,
		Description: payload.Description,
		CategoryID:  payload.CategoryID,
		CityIDs:     payload.CityIDs,
		StartTime:   payload.StartTime,
		EndTime:     payload.EndTime,
		MaxPeople:   payload.MaxPeople,
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, newEventResponse(*updated))
}

func (h *handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	eventID, err := pathID(r, "event_id")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err = h.Events.Delete(ctx, auth.GetPrincipal(r), eventID); err != nil {
		respondError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) JoinEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	eventID, err := pathID(r, "event_id")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err = h.Events.Join(ctx, auth.GetPrincipal(r), eventID); err != nil {
		respondError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) OutEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	eventID, err := pathID(r, "event_id")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err = h.Events.Out(ctx, auth.GetPrincipal(r), eventID); err != nil {
		respondError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
