package web

import (
	"net/http"
)

func (h *handler) Categories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	categories, err := h.DB.ListCategories(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	responses := make([]refResponse, 0, len(categories))
	for _, category := range categories {
		responses = append(responses, refResponse{ID: category.ID, Name: category.Name})
	}
	respondJSON(ctx, w, http.StatusOK, responses)
}

func (h *handler) Cities(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cities, err := h.DB.ListCities(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	responses := make([]refResponse, 0, len(cities))
	for _, city := range cities {
		responses = append(responses, refResponse{ID: city.ID, Name: city.Name})
	}
	respondJSON(ctx, w, http.StatusOK, responses)
}
