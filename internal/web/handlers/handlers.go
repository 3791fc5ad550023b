// Package handlers provides HTTP handlers for the storefront API
package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"trending-block/internal/adslot"
	"trending-block/internal/auth"
	"trending-block/internal/catalog"
	"trending-block/internal/pipeline"
	"trending-block/pkg/models"
)

// maxThumbnailBytes caps uploaded poster images at 2MB
const maxThumbnailBytes = 2 << 20

// Handlers contains all HTTP handlers and their dependencies
type Handlers struct {
	auth     *auth.Service
	catalog  *catalog.Service
	pipeline *pipeline.Pipeline
	adClient adslot.AdSlotClient
	logger   *slog.Logger
}

// NewHandlers creates a new handlers instance
func NewHandlers(authSvc *auth.Service, catalogSvc *catalog.Service, pipe *pipeline.Pipeline, ads adslot.AdSlotClient) *Handlers {
	return &Handlers{
		auth:     authSvc,
		catalog:  catalogSvc,
		pipeline: pipe,
		adClient: ads,
		logger:   slog.Default(),
	}
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}

// requireAdmin resolves the session user and rejects the request unless the
// user holds an admin role. Returns nil after writing the response when the
// check fails.
func (h *Handlers) requireAdmin(w http.ResponseWriter) *models.User {
	user, err := h.auth.CurrentUser()
	if err != nil {
		h.logger.Error("Failed to resolve session", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return nil
	}
	if user == nil {
		h.writeError(w, http.StatusUnauthorized, "authentication required")
		return nil
	}
	if !user.IsAdmin() {
		h.writeError(w, http.StatusForbidden, "admin access required")
		return nil
	}
	return user
}

// ListCatalog returns movies matching the optional q, category and year filters
func (h *Handlers) ListCatalog(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	category := r.URL.Query().Get("category")

	year := 0
	if raw := r.URL.Query().Get("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "year must be a number")
			return
		}
		year = parsed
	}

	movies := h.catalog.Filter(query, category, year)
	h.writeJSON(w, http.StatusOK, movies)
}

// TrendingCatalog returns the movies flagged for the trending carousel
func (h *Handlers) TrendingCatalog(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.catalog.Trending())
}

// CatalogFilters returns the selectable genre, year and quality lists
func (h *Handlers) CatalogFilters(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"genres":    catalog.Genres,
		"years":     catalog.Years,
		"qualities": catalog.Qualities,
	})
}

// Playback resolves a movie into the stream handoff the player needs
func (h *Handlers) Playback(w http.ResponseWriter, r *http.Request) {
	movie, err := h.catalog.Get(r.PathValue("id"))
	if err != nil {
		h.writeError(w, http.StatusNotFound, "movie not found")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"url":   movie.VideoURL,
		"title": movie.Title,
	})
}

// movieFromForm builds a movie from the multipart fields, reusing existing
// values for anything the form leaves blank
func (h *Handlers) movieFromForm(r *http.Request, movie *models.Movie) (int, error) {
	if err := r.ParseMultipartForm(maxThumbnailBytes + 1<<20); err != nil {
		return http.StatusBadRequest, fmt.Errorf("failed to parse form data: %w", err)
	}

	if title := r.FormValue("title"); title != "" {
		movie.Title = title
	}
	if desc := r.FormValue("description"); desc != "" {
		movie.Description = desc
	}
	if category := r.FormValue("category"); category != "" {
		if !models.ValidCategory(models.Category(category)) {
			return http.StatusBadRequest, fmt.Errorf("invalid category %q", category)
		}
		movie.Category = models.Category(category)
	}
	if videoURL := r.FormValue("video_url"); videoURL != "" {
		movie.VideoURL = videoURL
	}
	if raw := r.FormValue("rating"); raw != "" {
		rating, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return http.StatusBadRequest, fmt.Errorf("rating must be a number")
		}
		movie.Rating = rating
	}
	if raw := r.FormValue("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			return http.StatusBadRequest, fmt.Errorf("year must be a number")
		}
		movie.Year = year
	}
	if raw := r.FormValue("genres"); raw != "" {
		genres := strings.Split(raw, ",")
		for i := range genres {
			genres[i] = strings.TrimSpace(genres[i])
		}
		movie.Genres = genres
	}
	if raw := r.FormValue("is_trending"); raw != "" {
		movie.IsTrending = raw == "true"
	}

	file, header, err := r.FormFile("thumbnail")
	if err == nil {
		defer file.Close()

		if header.Size > maxThumbnailBytes {
			return http.StatusRequestEntityTooLarge, fmt.Errorf("thumbnail exceeds the 2MB limit")
		}

		data, err := io.ReadAll(io.LimitReader(file, maxThumbnailBytes))
		if err != nil {
			return http.StatusBadRequest, fmt.Errorf("failed to read thumbnail: %w", err)
		}

		contentType := header.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "image/jpeg"
		}
		movie.Thumbnail = fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data))
	} else if url := r.FormValue("thumbnail_url"); url != "" {
		movie.Thumbnail = url
	}

	return http.StatusOK, nil
}

// CreateMovie adds a catalog entry (admin only)
func (h *Handlers) CreateMovie(w http.ResponseWriter, r *http.Request) {
	if h.requireAdmin(w) == nil {
		return
	}

	movie := models.Movie{Category: models.CategoryMovie}
	if status, err := h.movieFromForm(r, &movie); err != nil {
		h.writeError(w, status, err.Error())
		return
	}

	if movie.Title == "" {
		h.writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	movie.ID = uuid.NewString()
	h.catalog.Add(movie)

	h.logger.Info("Movie added", "movie_id", movie.ID, "title", movie.Title)
	h.writeJSON(w, http.StatusCreated, movie)
}

// UpdateMovie replaces a catalog entry's editable fields (admin only)
func (h *Handlers) UpdateMovie(w http.ResponseWriter, r *http.Request) {
	if h.requireAdmin(w) == nil {
		return
	}

	existing, err := h.catalog.Get(r.PathValue("id"))
	if err != nil {
		h.writeError(w, http.StatusNotFound, "movie not found")
		return
	}

	movie := *existing
	if status, err := h.movieFromForm(r, &movie); err != nil {
		h.writeError(w, status, err.Error())
		return
	}

	if err := h.catalog.Update(movie); err != nil {
		h.writeError(w, http.StatusNotFound, "movie not found")
		return
	}

	h.logger.Info("Movie updated", "movie_id", movie.ID, "title", movie.Title)
	h.writeJSON(w, http.StatusOK, movie)
}

// DeleteMovie removes a catalog entry (admin only). Downloads that reference
// the movie are kept.
func (h *Handlers) DeleteMovie(w http.ResponseWriter, r *http.Request) {
	if h.requireAdmin(w) == nil {
		return
	}

	id := r.PathValue("id")
	if err := h.catalog.Remove(id); err != nil {
		h.writeError(w, http.StatusNotFound, "movie not found")
		return
	}

	h.logger.Info("Movie removed", "movie_id", id)
	w.WriteHeader(http.StatusNoContent)
}

type loginRequest struct {
	Email string `json:"email"`
}

// Login looks up the account for the given email and makes it the session user
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.auth.Login(req.Email)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "no account found for this email")
			return
		}
		h.logger.Error("Login failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, user)
}

type registerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Register creates a USER account and makes it the session user
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.auth.Register(req.Name, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrMissingField):
			h.writeError(w, http.StatusBadRequest, "name and email are required")
		case errors.Is(err, auth.ErrDuplicateEmail):
			h.writeError(w, http.StatusConflict, "an account with this email already exists")
		default:
			h.logger.Error("Registration failed", "error", err)
			h.writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	h.writeJSON(w, http.StatusCreated, user)
}

// Logout clears the session
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(); err != nil {
		h.logger.Error("Logout failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Session returns the current session user, or a null user when signed out
func (h *Handlers) Session(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.CurrentUser()
	if err != nil {
		h.logger.Error("Failed to resolve session", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// ListUsers returns every registered account (admin only)
func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	if h.requireAdmin(w) == nil {
		return
	}

	users, err := h.auth.ListUsers()
	if err != nil {
		h.logger.Error("Failed to list users", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if users == nil {
		users = []models.User{}
	}
	h.writeJSON(w, http.StatusOK, users)
}

type roleRequest struct {
	Role models.UserRole `json:"role"`
}

// UpdateUserRole changes a user's role (admin only). Granting MAIN_ADMIN is
// restricted to MAIN_ADMIN callers.
func (h *Handlers) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	caller := h.requireAdmin(w)
	if caller == nil {
		return
	}

	var req roleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !models.ValidRole(req.Role) {
		h.writeError(w, http.StatusBadRequest, "invalid role")
		return
	}

	if req.Role == models.RoleMainAdmin && caller.Role != models.RoleMainAdmin {
		h.writeError(w, http.StatusForbidden, "only the main admin can grant MAIN_ADMIN")
		return
	}

	id := r.PathValue("id")
	if err := h.auth.UpdateUserRole(id, req.Role); err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "user not found")
			return
		}
		h.logger.Error("Failed to update role", "error", err, "user_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type downloadRequest struct {
	MovieID string `json:"movie_id"`
	Quality string `json:"quality"`
}

// RequestDownload starts the ad gate for a title. The download itself begins
// only after the gate countdown completes.
func (h *Handlers) RequestDownload(w http.ResponseWriter, r *http.Request) {
	var req downloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	movie, err := h.catalog.Get(req.MovieID)
	if err != nil {
		h.writeError(w, http.StatusNotFound, "movie not found")
		return
	}

	quality := req.Quality
	if quality == "" {
		quality = "1080p"
	}

	flight, err := h.pipeline.Request(*movie, quality)
	if err != nil {
		if errors.Is(err, pipeline.ErrAlreadyQueued) {
			h.writeError(w, http.StatusConflict, "already in downloads queue")
			return
		}
		h.logger.Error("Failed to start download", "error", err, "movie_id", req.MovieID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusAccepted, flight)
}

// GateStatus reports the countdown state of an ad-gate flight
func (h *Handlers) GateStatus(w http.ResponseWriter, r *http.Request) {
	flight, err := h.pipeline.Status(r.PathValue("id"))
	if err != nil {
		h.writeError(w, http.StatusNotFound, "flight not found")
		return
	}

	h.writeJSON(w, http.StatusOK, flight)
}

// CancelGate abandons a flight still in its gate countdown
func (h *Handlers) CancelGate(w http.ResponseWriter, r *http.Request) {
	err := h.pipeline.Cancel(r.PathValue("id"))
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, pipeline.ErrFlightNotFound):
		h.writeError(w, http.StatusNotFound, "flight not found")
	case errors.Is(err, pipeline.ErrNotCancellable):
		h.writeError(w, http.StatusConflict, "flight is no longer cancellable")
	default:
		h.logger.Error("Failed to cancel flight", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// ListDownloads returns the persisted download queue
func (h *Handlers) ListDownloads(w http.ResponseWriter, r *http.Request) {
	downloads, err := h.pipeline.Downloads()
	if err != nil {
		h.logger.Error("Failed to list downloads", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if downloads == nil {
		downloads = []models.Download{}
	}
	h.writeJSON(w, http.StatusOK, downloads)
}

// DeleteDownload removes a queue entry. Any local file produced by the
// download stays in the library.
func (h *Handlers) DeleteDownload(w http.ResponseWriter, r *http.Request) {
	if err := h.pipeline.DeleteDownload(r.PathValue("id")); err != nil {
		if errors.Is(err, pipeline.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "download not found")
			return
		}
		h.logger.Error("Failed to delete download", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// libraryEntry decorates a local file with a display size label
type libraryEntry struct {
	models.LocalFile
	SizeLabel string `json:"size_label"`
}

// ListLibrary returns the completed local files
func (h *Handlers) ListLibrary(w http.ResponseWriter, r *http.Request) {
	files, err := h.pipeline.LocalFiles()
	if err != nil {
		h.logger.Error("Failed to list library", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	entries := make([]libraryEntry, 0, len(files))
	for _, f := range files {
		entries = append(entries, libraryEntry{
			LocalFile: f,
			SizeLabel: humanize.Bytes(uint64(f.Size)),
		})
	}
	h.writeJSON(w, http.StatusOK, entries)
}

// DeleteLocalFile removes a library entry. The originating download record is
// left untouched.
func (h *Handlers) DeleteLocalFile(w http.ResponseWriter, r *http.Request) {
	if err := h.pipeline.DeleteLocalFile(r.PathValue("id")); err != nil {
		if errors.Is(err, pipeline.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "file not found")
			return
		}
		h.logger.Error("Failed to delete local file", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AdSlot proxies an ad unit from the provider. Provider failures degrade to an
// empty slot so the page never blocks on ads.
func (h *Handlers) AdSlot(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "auto"
	}
	layout := r.URL.Query().Get("layout")

	slot, err := h.adClient.FetchSlot(r.Context(), format, layout)
	if err != nil {
		h.logger.Warn("Ad slot fetch failed", "error", err, "format", format)
		h.writeJSON(w, http.StatusOK, adslot.Slot{Format: format, Layout: layout})
		return
	}

	h.writeJSON(w, http.StatusOK, slot)
}
