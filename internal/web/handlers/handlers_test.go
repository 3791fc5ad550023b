package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"trending-block/internal/adslot"
	"trending-block/internal/adslot/mocks"
	"trending-block/internal/auth"
	"trending-block/internal/catalog"
	"trending-block/internal/pipeline"
	"trending-block/internal/store"
	"trending-block/pkg/models"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestHandlers(t *testing.T) (*Handlers, *mocks.MockAdSlotClient) {
	t.Helper()

	st, err := store.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	authSvc := auth.NewService(st)
	require.NoError(t, authSvc.BootstrapUsers())

	catalogSvc := catalog.NewService()
	pipe := pipeline.New(st, pipeline.Options{Clock: clockwork.NewFakeClock()})

	ctrl := gomock.NewController(t)
	ads := mocks.NewMockAdSlotClient(ctrl)

	return NewHandlers(authSvc, catalogSvc, pipe, ads), ads
}

func loginAs(t *testing.T, h *Handlers, email string) {
	t.Helper()
	_, err := h.auth.Login(email)
	require.NoError(t, err)
}

func jsonRequest(method, target string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			panic(err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func movieForm(t *testing.T, fields map[string]string, thumbnailSize int) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if thumbnailSize > 0 {
		part, err := writer.CreateFormFile("thumbnail", "poster.jpg")
		require.NoError(t, err)
		_, err = part.Write(bytes.Repeat([]byte{0xFF}, thumbnailSize))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	return &buf, writer.FormDataContentType()
}

func TestNewHandlers(t *testing.T) {
	h, _ := newTestHandlers(t)
	require.NotNil(t, h)
	require.NotNil(t, h.auth)
	require.NotNil(t, h.catalog)
	require.NotNil(t, h.pipeline)
}

func TestHandlers_ListCatalog(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		wantCode   int
		wantTitles []string
	}{
		{
			name:       "no filters returns full catalog",
			target:     "/api/catalog",
			wantCode:   http.StatusOK,
			wantTitles: []string{"DUNE: PART TWO", "THE BOYS: SEASON 4", "OPPENHEIMER", "JUJUTSU KAISEN"},
		},
		{
			name:       "query filter",
			target:     "/api/catalog?q=dune",
			wantCode:   http.StatusOK,
			wantTitles: []string{"DUNE: PART TWO"},
		},
		{
			name:       "category filter",
			target:     "/api/catalog?category=Anime",
			wantCode:   http.StatusOK,
			wantTitles: []string{"JUJUTSU KAISEN"},
		},
		{
			name:       "conjunctive filters with no match",
			target:     "/api/catalog?q=dune&category=Anime",
			wantCode:   http.StatusOK,
			wantTitles: []string{},
		},
		{
			name:       "year filter",
			target:     "/api/catalog?year=2023",
			wantCode:   http.StatusOK,
			wantTitles: []string{"OPPENHEIMER", "JUJUTSU KAISEN"},
		},
		{
			name:     "invalid year",
			target:   "/api/catalog?year=nope",
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandlers(t)

			req := httptest.NewRequest("GET", tt.target, nil)
			w := httptest.NewRecorder()
			h.ListCatalog(w, req)

			require.Equal(t, tt.wantCode, w.Code)
			if tt.wantCode != http.StatusOK {
				return
			}

			var movies []models.Movie
			require.NoError(t, json.NewDecoder(w.Body).Decode(&movies))
			titles := make([]string, 0, len(movies))
			for _, m := range movies {
				titles = append(titles, m.Title)
			}
			require.Equal(t, tt.wantTitles, titles)
		})
	}
}

func TestHandlers_TrendingCatalog(t *testing.T) {
	h, _ := newTestHandlers(t)

	req := httptest.NewRequest("GET", "/api/catalog/trending", nil)
	w := httptest.NewRecorder()
	h.TrendingCatalog(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var movies []models.Movie
	require.NoError(t, json.NewDecoder(w.Body).Decode(&movies))
	require.Len(t, movies, 3)
	for _, m := range movies {
		require.True(t, m.IsTrending)
	}
}

func TestHandlers_CatalogFilters(t *testing.T) {
	h, _ := newTestHandlers(t)

	req := httptest.NewRequest("GET", "/api/catalog/filters", nil)
	w := httptest.NewRecorder()
	h.CatalogFilters(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "1080p")
	require.Contains(t, w.Body.String(), "Anime")
	require.Contains(t, w.Body.String(), "2024")
}

func TestHandlers_Playback(t *testing.T) {
	h, _ := newTestHandlers(t)

	req := httptest.NewRequest("GET", "/api/catalog/1/playback", nil)
	req.SetPathValue("id", "1")
	w := httptest.NewRecorder()
	h.Playback(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var payload map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&payload))
	require.Equal(t, "DUNE: PART TWO", payload["title"])
	require.NotEmpty(t, payload["url"])

	req = httptest.NewRequest("GET", "/api/catalog/missing/playback", nil)
	req.SetPathValue("id", "missing")
	w = httptest.NewRecorder()
	h.Playback(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandlers_CreateMovie(t *testing.T) {
	t.Run("requires authentication", func(t *testing.T) {
		h, _ := newTestHandlers(t)
		require.NoError(t, h.auth.Logout())

		body, contentType := movieForm(t, map[string]string{"title": "NEW FILM"}, 0)
		req := httptest.NewRequest("POST", "/api/catalog", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		h.CreateMovie(w, req)

		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("rejects non-admin users", func(t *testing.T) {
		h, _ := newTestHandlers(t)
		loginAs(t, h, "user@user.com")

		body, contentType := movieForm(t, map[string]string{"title": "NEW FILM"}, 0)
		req := httptest.NewRequest("POST", "/api/catalog", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		h.CreateMovie(w, req)

		require.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("creates movie as admin", func(t *testing.T) {
		h, _ := newTestHandlers(t)
		loginAs(t, h, "admin@admin.com")

		body, contentType := movieForm(t, map[string]string{
			"title":       "NEW FILM",
			"description": "A new release",
			"category":    "Movie",
			"rating":      "7.5",
			"year":        "2024",
			"genres":      "Action, Drama",
			"is_trending": "true",
			"video_url":   "https://example.com/new.mp4",
		}, 128)
		req := httptest.NewRequest("POST", "/api/catalog", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		h.CreateMovie(w, req)

		require.Equal(t, http.StatusCreated, w.Code)

		var movie models.Movie
		require.NoError(t, json.NewDecoder(w.Body).Decode(&movie))
		require.NotEmpty(t, movie.ID)
		require.Equal(t, "NEW FILM", movie.Title)
		require.Equal(t, []string{"Action", "Drama"}, movie.Genres)
		require.True(t, movie.IsTrending)
		require.True(t, strings.HasPrefix(movie.Thumbnail, "data:"))

		_, err := h.catalog.Get(movie.ID)
		require.NoError(t, err)
	})

	t.Run("rejects oversized thumbnail", func(t *testing.T) {
		h, _ := newTestHandlers(t)
		loginAs(t, h, "admin@admin.com")

		body, contentType := movieForm(t, map[string]string{"title": "HUGE POSTER"}, maxThumbnailBytes+1)
		req := httptest.NewRequest("POST", "/api/catalog", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		h.CreateMovie(w, req)

		require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		require.Len(t, h.catalog.List(), 4)
	})

	t.Run("requires a title", func(t *testing.T) {
		h, _ := newTestHandlers(t)
		loginAs(t, h, "admin@admin.com")

		body, contentType := movieForm(t, map[string]string{"description": "no title"}, 0)
		req := httptest.NewRequest("POST", "/api/catalog", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		h.CreateMovie(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandlers_UpdateMovie(t *testing.T) {
	h, _ := newTestHandlers(t)
	loginAs(t, h, "admin@admin.com")

	body, contentType := movieForm(t, map[string]string{"title": "DUNE: PART THREE"}, 0)
	req := httptest.NewRequest("PUT", "/api/catalog/1", body)
	req.Header.Set("Content-Type", contentType)
	req.SetPathValue("id", "1")
	w := httptest.NewRecorder()
	h.UpdateMovie(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	movie, err := h.catalog.Get("1")
	require.NoError(t, err)
	require.Equal(t, "DUNE: PART THREE", movie.Title)
	// Fields left out of the form are preserved
	require.Equal(t, 2024, movie.Year)
}

func TestHandlers_DeleteMovie(t *testing.T) {
	h, _ := newTestHandlers(t)
	loginAs(t, h, "admin@admin.com")

	req := httptest.NewRequest("DELETE", "/api/catalog/1", nil)
	req.SetPathValue("id", "1")
	w := httptest.NewRecorder()
	h.DeleteMovie(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	require.Len(t, h.catalog.List(), 3)

	req = httptest.NewRequest("DELETE", "/api/catalog/1", nil)
	req.SetPathValue("id", "1")
	w = httptest.NewRecorder()
	h.DeleteMovie(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandlers_Login(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		wantCode int
	}{
		{"known account", "admin@admin.com", http.StatusOK},
		{"case-insensitive", "ADMIN@ADMIN.COM", http.StatusOK},
		{"unknown account", "nobody@example.com", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandlers(t)

			w := httptest.NewRecorder()
			h.Login(w, jsonRequest("POST", "/api/auth/login", map[string]string{"email": tt.email}))

			require.Equal(t, tt.wantCode, w.Code)
			if tt.wantCode == http.StatusOK {
				var user models.User
				require.NoError(t, json.NewDecoder(w.Body).Decode(&user))
				require.Equal(t, "2", user.ID)
			}
		})
	}
}

func TestHandlers_Register(t *testing.T) {
	tests := []struct {
		name     string
		payload  map[string]string
		wantCode int
	}{
		{"new account", map[string]string{"name": "New User", "email": "new@example.com"}, http.StatusCreated},
		{"duplicate email", map[string]string{"name": "Clone", "email": "admin@admin.com"}, http.StatusConflict},
		{"missing name", map[string]string{"email": "x@example.com"}, http.StatusBadRequest},
		{"missing email", map[string]string{"name": "X"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandlers(t)

			w := httptest.NewRecorder()
			h.Register(w, jsonRequest("POST", "/api/auth/register", tt.payload))

			require.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestHandlers_LogoutAndSession(t *testing.T) {
	h, _ := newTestHandlers(t)
	loginAs(t, h, "user@user.com")

	w := httptest.NewRecorder()
	h.Session(w, httptest.NewRequest("GET", "/api/auth/session", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var payload struct {
		User *models.User `json:"user"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&payload))
	require.NotNil(t, payload.User)
	require.Equal(t, "3", payload.User.ID)

	w = httptest.NewRecorder()
	h.Logout(w, httptest.NewRequest("POST", "/api/auth/logout", nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	h.Session(w, httptest.NewRequest("GET", "/api/auth/session", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&payload))
	require.Nil(t, payload.User)
}

func TestHandlers_ListUsers(t *testing.T) {
	h, _ := newTestHandlers(t)
	loginAs(t, h, "user@user.com")

	w := httptest.NewRecorder()
	h.ListUsers(w, httptest.NewRequest("GET", "/api/users", nil))
	require.Equal(t, http.StatusForbidden, w.Code)

	loginAs(t, h, "admin@admin.com")
	w = httptest.NewRecorder()
	h.ListUsers(w, httptest.NewRequest("GET", "/api/users", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var users []models.User
	require.NoError(t, json.NewDecoder(w.Body).Decode(&users))
	require.Len(t, users, 3)
}

func TestHandlers_UpdateUserRole(t *testing.T) {
	tests := []struct {
		name     string
		caller   string
		targetID string
		role     string
		wantCode int
	}{
		{"admin promotes user", "admin@admin.com", "3", "ADMIN", http.StatusNoContent},
		{"admin demotes admin", "jd1680711@gmail.com", "2", "USER", http.StatusNoContent},
		{"admin cannot grant main admin", "admin@admin.com", "3", "MAIN_ADMIN", http.StatusForbidden},
		{"main admin grants main admin", "jd1680711@gmail.com", "3", "MAIN_ADMIN", http.StatusNoContent},
		{"invalid role", "admin@admin.com", "3", "SUPERUSER", http.StatusBadRequest},
		{"unknown user", "admin@admin.com", "99", "ADMIN", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandlers(t)
			loginAs(t, h, tt.caller)

			req := jsonRequest("PUT", "/api/users/"+tt.targetID+"/role", map[string]string{"role": tt.role})
			req.SetPathValue("id", tt.targetID)
			w := httptest.NewRecorder()
			h.UpdateUserRole(w, req)

			require.Equal(t, tt.wantCode, w.Code)
		})
	}

	t.Run("regular user is rejected", func(t *testing.T) {
		h, _ := newTestHandlers(t)
		loginAs(t, h, "user@user.com")

		req := jsonRequest("PUT", "/api/users/2/role", map[string]string{"role": "USER"})
		req.SetPathValue("id", "2")
		w := httptest.NewRecorder()
		h.UpdateUserRole(w, req)

		require.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestHandlers_RequestDownload(t *testing.T) {
	h, _ := newTestHandlers(t)

	w := httptest.NewRecorder()
	h.RequestDownload(w, jsonRequest("POST", "/api/downloads", map[string]string{"movie_id": "1", "quality": "4K"}))
	require.Equal(t, http.StatusAccepted, w.Code)

	var flight pipeline.FlightStatus
	require.NoError(t, json.NewDecoder(w.Body).Decode(&flight))
	require.Equal(t, "1", flight.MovieID)
	require.Equal(t, pipeline.StateGatePending, flight.State)
	require.Equal(t, 3, flight.Countdown)

	// Same title again while in flight
	w = httptest.NewRecorder()
	h.RequestDownload(w, jsonRequest("POST", "/api/downloads", map[string]string{"movie_id": "1", "quality": "4K"}))
	require.Equal(t, http.StatusConflict, w.Code)

	// Unknown movie
	w = httptest.NewRecorder()
	h.RequestDownload(w, jsonRequest("POST", "/api/downloads", map[string]string{"movie_id": "missing"}))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandlers_GateStatusAndCancel(t *testing.T) {
	h, _ := newTestHandlers(t)

	w := httptest.NewRecorder()
	h.RequestDownload(w, jsonRequest("POST", "/api/downloads", map[string]string{"movie_id": "1", "quality": "4K"}))
	require.Equal(t, http.StatusAccepted, w.Code)

	var flight pipeline.FlightStatus
	require.NoError(t, json.NewDecoder(w.Body).Decode(&flight))

	req := httptest.NewRequest("GET", "/api/gate/"+flight.ID, nil)
	req.SetPathValue("id", flight.ID)
	w = httptest.NewRecorder()
	h.GateStatus(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest("DELETE", "/api/gate/"+flight.ID, nil)
	req.SetPathValue("id", flight.ID)
	w = httptest.NewRecorder()
	h.CancelGate(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)

	// Cancelled flights disappear
	req = httptest.NewRequest("GET", "/api/gate/"+flight.ID, nil)
	req.SetPathValue("id", flight.ID)
	w = httptest.NewRecorder()
	h.GateStatus(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)

	req = httptest.NewRequest("DELETE", "/api/gate/unknown", nil)
	req.SetPathValue("id", "unknown")
	w = httptest.NewRecorder()
	h.CancelGate(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandlers_ListDownloadsEmpty(t *testing.T) {
	h, _ := newTestHandlers(t)

	w := httptest.NewRecorder()
	h.ListDownloads(w, httptest.NewRequest("GET", "/api/downloads", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "[]\n", w.Body.String())
}

func TestHandlers_DeleteDownloadNotFound(t *testing.T) {
	h, _ := newTestHandlers(t)

	req := httptest.NewRequest("DELETE", "/api/downloads/missing", nil)
	req.SetPathValue("id", "missing")
	w := httptest.NewRecorder()
	h.DeleteDownload(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandlers_ListLibrary(t *testing.T) {
	h, _ := newTestHandlers(t)

	w := httptest.NewRecorder()
	h.ListLibrary(w, httptest.NewRequest("GET", "/api/library", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "[]\n", w.Body.String())
}

func TestHandlers_DeleteLocalFileNotFound(t *testing.T) {
	h, _ := newTestHandlers(t)

	req := httptest.NewRequest("DELETE", "/api/library/missing", nil)
	req.SetPathValue("id", "missing")
	w := httptest.NewRecorder()
	h.DeleteLocalFile(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandlers_AdSlot(t *testing.T) {
	t.Run("returns provider slot", func(t *testing.T) {
		h, ads := newTestHandlers(t)

		ads.EXPECT().
			FetchSlot(gomock.Any(), "fluid", "in-article").
			Return(&adslot.Slot{ID: "slot-1", Format: "fluid", Layout: "in-article", Payload: "<ins/>"}, nil)

		w := httptest.NewRecorder()
		h.AdSlot(w, httptest.NewRequest("GET", "/api/ads/slot?format=fluid&layout=in-article", nil))

		require.Equal(t, http.StatusOK, w.Code)

		var slot adslot.Slot
		require.NoError(t, json.NewDecoder(w.Body).Decode(&slot))
		require.Equal(t, "slot-1", slot.ID)
		require.Equal(t, "<ins/>", slot.Payload)
	})

	t.Run("degrades to empty slot on provider failure", func(t *testing.T) {
		h, ads := newTestHandlers(t)

		ads.EXPECT().
			FetchSlot(gomock.Any(), "auto", "").
			Return(nil, errors.New("provider unreachable"))

		w := httptest.NewRecorder()
		h.AdSlot(w, httptest.NewRequest("GET", "/api/ads/slot", nil))

		require.Equal(t, http.StatusOK, w.Code)

		var slot adslot.Slot
		require.NoError(t, json.NewDecoder(w.Body).Decode(&slot))
		require.Empty(t, slot.ID)
		require.Empty(t, slot.Payload)
		require.Equal(t, "auto", slot.Format)
	})
}
