package web

import (
	"net/http"

	"github.com/gatherhq/gather-server/server/auth"
	"github.com/gatherhq/gather-server/server/club"
	"github.com/gatherhq/gather-server/server/domain"
)

type clubPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	MaxPeople   int    `json:"max_people"`
}

func (p clubPayload) validate() error {
	if p.Name == "" {
		return domain.InvalidInputf("name is required")
	}
	if p.MaxPeople < 1 {
		return domain.InvalidInputf("max_people must be at least 1")
	}
	return nil
}

type applicantsPayload struct {
	UserIDs []int64 `json:"user_ids"`
}

func (p applicantsPayload) validate() error {
	if len(p.UserIDs) == 0 {
		return domain.InvalidInputf("user_ids must not be empty")
	}
	return nil
}

type clubHostPayload struct {
	UserID int64 `json:"user_id"`
}

func (h *handler) CreateClub(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload clubPayload
	if err := decodeJSON(r, &payload); err != nil {
		respondError(ctx, w, err)
		return
	}
	if err := payload.validate(); err != nil {
		respondError(ctx, w, err)
		return
	}

	created, err := h.Clubs.Create(ctx, auth.GetPrincipal(r), club.CreateParams{
		Name:        payload.Name,
		Description: payload.Description,
		MaxPeople:   payload.MaxPeople,
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, newClubResponse(*created))
}

func (h *handler) ListClubs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clubs, err := h.Clubs.List(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, newClubResponses(clubs))
}

func (h *handler) UpdateClub(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clubID, err := pathID(r, "club_id")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var payload clubPayload
	if err = decodeJSON(r, &payload); err != nil {
		respondError(ctx, w, err)
		return
	}
	if err = payload.validate(); err != nil {
		respondError(ctx, w, err)
		return
	}

	updated, err := h.Clubs.Update(ctx, auth.GetPrincipal(r), clubID, club.UpdateParams{
		Name:        payload.Name,
		Description: payload.Description,
		MaxPeople:   payload.MaxPeople,
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, newClubResponse(*updated))
}

func (h *handler) DeleteClub(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clubID, err := pathID(r, "club_id")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err = h.Clubs.Delete(ctx, auth.GetPrincipal(r), clubID); err != nil {
		respondError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) JoinClub(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clubID, err := pathID(r, "club_id")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err = h.Clubs.Join(ctx, auth.GetPrincipal(r), clubID); err != nil {
		respondError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) OutClub(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clubID, err := pathID(r, "club_id")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err = h.Clubs.Out(ctx, auth.GetPrincipal(r), clubID); err != nil {
		respondError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) ClubApplicants(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clubID, err := pathID(r, "club_id")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	applicants, err := h.Clubs.Applicants(ctx, auth.GetPrincipal(r), clubID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, newClubMemberResponses(applicants))
}

func (h *handler) ApproveApplicants(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clubID, err := pathID(r, "club_id")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var payload applicantsPayload
	if err = decodeJSON(r, &payload); err != nil {
		respondError(ctx, w, err)
		return
	}
	if err = payload.validate(); err != nil {
		respondError(ctx, w, err)
		return
	}

	if err = h.Clubs.Approve(ctx, auth.GetPrincipal(r), clubID, payload.UserIDs); err != nil {
		respondError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) RejectApplicants(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clubID, err := pathID(r, "club_id")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var payload applicantsPayload
	if err = decodeJSON(r, &payload); err != nil {
		respondError(ctx, w, err)
		return
	}
	if err = payload.validate(); err != nil {
		respondError(ctx, w, err)
		return
	}

	if err = h.Clubs.Reject(ctx, auth.GetPrincipal(r), clubID, payload.UserIDs); err != nil {
		respondError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) UpdateClubHost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clubID, err := pathID(r, "club_id")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var payload clubHostPayload
	if err = decodeJSON(r, &payload); err != nil {
		respondError(ctx, w, err)
		return
	}

	updated, err := h.Clubs.TransferHost(ctx, auth.GetPrincipal(r), clubID, payload.UserID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, newClubResponse(*updated))
}
