package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/madr-project/apiserver/internal/services"
	"github.com/madr-project/apiserver/internal/store"
	"github.com/madr-project/apiserver/types"
)

const (
	maxCoverMemory = 8 << 20
	maxCoverBytes  = 16 << 20
	formFieldCover = "cover"
)

// BookHandler provides HTTP handlers for books and their cover images.
type BookHandler struct {
	bookService  *services.BookService
	coverService *services.CoverService
}

func NewBookHandler(bookService *services.BookService, coverService *services.CoverService) *BookHandler {
	return &BookHandler{
		bookService:  bookService,
		coverService: coverService,
	}
}

// BookRouter registers book routes on the given router. Every route
// requires an authenticated caller; any authenticated account may mutate
// any book.
func BookRouter(r chi.Router, bookService *services.BookService, coverService *services.CoverService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewBookHandler(bookService, coverService)

	r.Use(authMiddleware)
	r.Get("/", handler.List)
	r.Post("/", handler.Create)
	r.Route("/{bookID}", func(r chi.Router) {
		r.Get("/", handler.Get)
		r.Patch("/", handler.Update)
		r.Delete("/", handler.Delete)
		r.Put("/cover", handler.UploadCover)
		r.Get("/cover", handler.DownloadCover)
	})
}

func (h *BookHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	filter, err := parseBookFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, total, err := h.bookService.List(r.Context(), filter, offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list books")
		return
	}

	writeJSON(w, http.StatusOK, BookListResponse{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

func (h *BookHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "bookID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	book, err := h.bookService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "book not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch book")
		return
	}

	writeJSON(w, http.StatusOK, book)
}

func (h *BookHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || req.NovelistID < 1 {
		writeError(w, http.StatusBadRequest, "title and novelist_id are required")
		return
	}

	book, err := h.bookService.Create(r.Context(), req.Title, req.Year, req.NovelistID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "novelist not found")
		case errors.Is(err, store.ErrConflict):
			writeError(w, http.StatusConflict, "book already exists")
		default:
			writeError(w, http.StatusInternalServerError, "failed to create book")
		}
		return
	}

	writeJSON(w, http.StatusCreated, book)
}

func (h *BookHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "bookID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req UpdateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	book, err := h.bookService.Update(r.Context(), id, services.BookPatch{
		Title:      req.Title,
		Year:       req.Year,
		NovelistID: req.NovelistID,
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "book not found")
		case errors.Is(err, store.ErrConflict):
			writeError(w, http.StatusConflict, "book already exists")
		default:
			writeError(w, http.StatusInternalServerError, "failed to update book")
		}
		return
	}

	writeJSON(w, http.StatusOK, book)
}

func (h *BookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "bookID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.bookService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "book not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete book")
		return
	}

	// The cover is gone with the book; a failure here only leaves an
	// orphaned object behind.
	_ = h.coverService.Remove(r.Context(), id)

	writeJSON(w, http.StatusOK, MessageResponse{Message: "book deleted"})
}

// UploadCover stores a cover image for the book from a multipart form.
func (h *BookHandler) UploadCover(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "bookID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.bookService.Get(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "book not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch book")
		return
	}

	if err := r.ParseMultipartForm(maxCoverMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	files := r.MultipartForm.File[formFieldCover]
	if len(files) != 1 {
		writeError(w, http.StatusBadRequest, "exactly one cover file is required")
		return
	}

	fileHeader := files[0]
	if fileHeader.Size > maxCoverBytes {
		writeError(w, http.StatusBadRequest, "cover file too large")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read cover file")
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	err = h.coverService.Upload(r.Context(), id, file, fileHeader.Size, contentType)
	if err != nil {
		if errors.Is(err, services.ErrNoCoverStorage) {
			writeError(w, http.StatusNotImplemented, "cover storage not configured")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to store cover")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "cover uploaded"})
}

// DownloadCover streams the book's cover image.
func (h *BookHandler) DownloadCover(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "bookID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reader, err := h.coverService.Download(r.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrNoCoverStorage) {
			writeError(w, http.StatusNotImplemented, "cover storage not configured")
			return
		}
		writeError(w, http.StatusNotFound, "cover not found")
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err := io.Copy(w, reader); err != nil {
		// Too late for a status change; the copy already started.
		return
	}
}

// CreateBookRequest is the create payload.
type CreateBookRequest struct {
	Title      string `json:"title"`
	Year       int    `json:"year"`
	NovelistID int    `json:"novelist_id"`
}

// UpdateBookRequest is the partial-update payload; absent fields are left
// unchanged.
type UpdateBookRequest struct {
	Title      *string `json:"title"`
	Year       *int    `json:"year"`
	NovelistID *int    `json:"novelist_id"`
}

// BookListResponse is the paginated list response payload.
type BookListResponse struct {
	Items []types.Book `json:"items"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
	Total int          `json:"total"`
}

func parseBookFilter(r *http.Request) (store.BookFilter, error) {
	filter := store.BookFilter{
		Title: strings.TrimSpace(r.URL.Query().Get("title")),
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("year")); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			return store.BookFilter{}, errors.New("invalid year")
		}
		filter.Year = year
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("novelist_id")); raw != "" {
		novelistID, err := strconv.Atoi(raw)
		if err != nil || novelistID < 1 {
			return store.BookFilter{}, errors.New("invalid novelist_id")
		}
		filter.NovelistID = novelistID
	}

	return filter, nil
}
