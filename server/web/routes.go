// Package web exposes the engines as a JSON API. It owns payload decoding
// and validation, principal extraction and the mapping from domain error
// kinds to HTTP status codes.
package web

import (
	"net/http"

	"github.com/gatherhq/gather-server/server"
)

type handler struct {
	*server.Server
}

func Routes(srv *server.Server) http.Handler {
	h := &handler{
		Server: srv,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("POST   /api/clubs", h.CreateClub)
	mux.HandleFunc("GET    /api/clubs", h.ListClubs)
	mux.HandleFunc("PUT    /api/clubs/{club_id}", h.UpdateClub)
	mux.HandleFunc("DELETE /api/clubs/{club_id}", h.DeleteClub)
	mux.HandleFunc("POST   /api/clubs/{club_id}/join", h.JoinClub)
	mux.HandleFunc("POST   /api/clubs/{club_id}/out", h.OutClub)
	mux.HandleFunc("GET    /api/clubs/{club_id}/applicants", h.ClubApplicants)
	mux.HandleFunc("POST   /api/clubs/{club_id}/approve", h.ApproveApplicants)
	mux.HandleFunc("POST   /api/clubs/{club_id}/reject", h.RejectApplicants)
	mux.HandleFunc("PUT    /api/clubs/{club_id}/host", h.UpdateClubHost)

	mux.HandleFunc("POST   /api/events", h.CreateEvent)
	mux.HandleFunc("GET    /api/events", h.ListEvents)
	mux.HandleFunc("GET    /api/events/me", h.MyEvents)
	mux.HandleFunc("GET    /api/events/{event_id}", h.GetEvent)
	mux.HandleFunc("PUT    /api/events/{event_id}", h.UpdateEvent)
	mux.HandleFunc("DELETE /api/events/{event_id}", h.DeleteEvent)
	mux.HandleFunc("POST   /api/events/{event_id}/join", h.JoinEvent)
	mux.HandleFunc("POST   /api/events/{event_id}/out", h.OutEvent)

	mux.HandleFunc("POST   /api/reviews", h.CreateReview)
	mux.HandleFunc("GET    /api/reviews", h.ListReviews)
	mux.HandleFunc("GET    /api/reviews/{review_id}", h.GetReview)
	mux.HandleFunc("PUT    /api/reviews/{review_id}", h.PutReview)
	mux.HandleFunc("PATCH  /api/reviews/{review_id}", h.PatchReview)
	mux.HandleFunc("DELETE /api/reviews/{review_id}", h.DeleteReview)

	mux.Handle("GET    /api/categories", cacheControl(h.Categories))
	mux.Handle("GET    /api/cities", cacheControl(h.Cities))

	mux.HandleFunc("/", h.NotFound)

	var root http.Handler = h.auth(mux)
	if srv.Cfg.RateLimit.Enabled {
		root = h.rateLimit(root)
	}
	return root
}

func (h *handler) NotFound(w http.ResponseWriter, r *http.Request) {
	respondJSON(r.Context(), w, http.StatusNotFound, errorResponse{Error: "not found"})
}
