package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/madr-project/apiserver/internal/services"
	"github.com/madr-project/apiserver/internal/store"
	"github.com/madr-project/apiserver/types"
)

// NovelistHandler provides HTTP handlers for novelists.
type NovelistHandler struct {
	novelistService *services.NovelistService
}

func NewNovelistHandler(novelistService *services.NovelistService) *NovelistHandler {
	return &NovelistHandler{novelistService: novelistService}
}

// NovelistRouter registers novelist routes on the given router. Every
// route requires an authenticated caller; any authenticated account may
// mutate any novelist.
func NovelistRouter(r chi.Router, novelistService *services.NovelistService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewNovelistHandler(novelistService)

	r.Use(authMiddleware)
	r.Get("/", handler.List)
	r.Post("/", handler.Create)
	r.Route("/{novelistID}", func(r chi.Router) {
		r.Get("/", handler.Get)
		r.Patch("/", handler.Update)
		r.Delete("/", handler.Delete)
	})
}

func (h *NovelistHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	name := strings.TrimSpace(r.URL.Query().Get("name"))

	items, total, err := h.novelistService.List(r.Context(), name, offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list novelists")
		return
	}

	writeJSON(w, http.StatusOK, NovelistListResponse{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

func (h *NovelistHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "novelistID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	novelist, err := h.novelistService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "novelist not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch novelist")
		return
	}

	writeJSON(w, http.StatusOK, novelist)
}

func (h *NovelistHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, err := decodeNovelistRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	novelist, err := h.novelistService.Create(r.Context(), req.Name)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeError(w, http.StatusConflict, "novelist already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create novelist")
		return
	}

	writeJSON(w, http.StatusCreated, novelist)
}

func (h *NovelistHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "novelistID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	req, err := decodeNovelistRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	novelist, err := h.novelistService.Update(r.Context(), id, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "novelist not found")
		case errors.Is(err, store.ErrConflict):
			writeError(w, http.StatusConflict, "novelist already exists")
		default:
			writeError(w, http.StatusInternalServerError, "failed to update novelist")
		}
		return
	}

	writeJSON(w, http.StatusOK, novelist)
}

func (h *NovelistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "novelistID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.novelistService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "novelist not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete novelist")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "novelist deleted"})
}

// NovelistRequest is the create/update payload.
type NovelistRequest struct {
	Name string `json:"name"`
}

// NovelistListResponse is the paginated list response payload.
type NovelistListResponse struct {
	Items []types.Novelist `json:"items"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
	Total int              `json:"total"`
}

func decodeNovelistRequest(r *http.Request) (NovelistRequest, error) {
	var req NovelistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return NovelistRequest{}, errors.New("invalid request")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return NovelistRequest{}, errors.New("name is required")
	}
	return req, nil
}
