package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"

	"github.com/xenking/smellandco-storefront/internal/domain/catalog"
)

// PerfumeResponse is the wire form of a catalog entry.
type PerfumeResponse struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	ShortDescription string        `json:"shortDescription"`
	Description      string        `json:"description"`
	Price            float64       `json:"price"`
	Image            string        `json:"image"`
	Notes            NotesResponse `json:"notes"`
	Volume           string        `json:"volume"`
	IsNew            bool          `json:"isNew"`
	IsBestseller     bool          `json:"isBestseller"`
}

// PerfumesResponse is the body of GET /api/perfumes.
type PerfumesResponse []PerfumeResponse

// NotesResponse is the fragrance pyramid of a perfume.
type NotesResponse struct {
	Top    []string `json:"top"`
	Middle []string `json:"middle"`
	Base   []string `json:"base"`
}

func toPerfumeResponse(p catalog.Perfume) PerfumeResponse {
	return PerfumeResponse{
		ID:               p.ID,
		Name:             p.Name,
		ShortDescription: p.ShortDescription,
		Description:      p.Description,
		Price:            p.Price.InexactFloat64(),
		Image:            p.Image,
		Notes: NotesResponse{
			Top:    nonNil(p.Notes.Top),
			Middle: nonNil(p.Notes.Middle),
			Base:   nonNil(p.Notes.Base),
		},
		Volume:       p.Volume,
		IsNew:        p.IsNew,
		IsBestseller: p.IsBestseller,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// ListPerfumes handles GET /api/perfumes. The optional filter query selects
// all, new or bestsellers.
func (h *Handler) ListPerfumes(w http.ResponseWriter, r *http.Request) {
	filter, err := catalog.ParseFilter(r.URL.Query().Get("filter"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	perfumes := catalog.Apply(filter, h.catalog.List(r.Context()))
	resp := make(PerfumesResponse, len(perfumes))
	for i, p := range perfumes {
		resp[i] = toPerfumeResponse(p)
	}
	respondJSON(w, http.StatusOK, resp)
}

// GetPerfume handles GET /api/perfumes/{id}.
func (h *Handler) GetPerfume(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			respondError(w, http.StatusNotFound, "perfume not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondJSON(w, http.StatusOK, toPerfumeResponse(p))
}
