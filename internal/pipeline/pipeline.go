// Package pipeline implements the simulated request->gate->download->complete
// flow for one title, and the offline library of completed artifacts.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"trending-block/internal/store"
	"trending-block/pkg/models"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/samber/lo"
)

var (
	// ErrAlreadyQueued is returned when a download exists or is in flight
	// for the requested title
	ErrAlreadyQueued = errors.New("already in downloads queue")
	// ErrFlightNotFound is returned when no active flight matches the id
	ErrFlightNotFound = errors.New("flight not found")
	// ErrNotCancellable is returned when cancelling a flight whose gate has
	// already completed
	ErrNotCancellable = errors.New("flight is no longer cancellable")
	// ErrNotFound is returned when deleting a download or local file that
	// does not exist
	ErrNotFound = errors.New("entry not found")
)

// FlightState represents where a download attempt is in its lifecycle
type FlightState string

const (
	StateGatePending FlightState = "gate_pending"
	StateDownloading FlightState = "downloading"
	StateCompleted   FlightState = "completed"
	StateCancelled   FlightState = "cancelled"
)

// qualitySizes maps a requested quality to its nominal size label
var qualitySizes = map[string]string{
	"4K":    "8.2 GB",
	"1080p": "2.4 GB",
	"720p":  "1.1 GB",
	"360p":  "450 MB",
}

const (
	defaultSizeLabel = "2.4 GB"

	// completedFileBytes is the fixed nominal size recorded for every
	// completed artifact
	completedFileBytes = int64(2_400_000_000)

	// maxIncrement bounds the per-tick progress step; the actual step is
	// pseudo-random in [0, maxIncrement) to model variable bandwidth
	maxIncrement = 8.0
)

// flight is one in-flight download attempt with its own timer loop
type flight struct {
	id        string
	movie     models.Movie
	quality   string
	state     FlightState
	countdown int
	done      chan struct{}
}

// FlightStatus is a snapshot of a flight for the polling surface
type FlightStatus struct {
	ID        string      `json:"id"`
	MovieID   string      `json:"movie_id"`
	Quality   string      `json:"quality"`
	State     FlightState `json:"state"`
	Countdown int         `json:"countdown"`
}

// Options configures a Pipeline. Zero values fall back to the production
// defaults: a 3-tick gate, 800ms progress ticks, the real clock and math/rand.
type Options struct {
	GateTicks    int
	ProgressTick time.Duration
	Clock        clockwork.Clock
	Rand         func() float64
}

// Pipeline owns the per-title flights and the persisted download queue and
// local library
type Pipeline struct {
	store  *store.Store
	logger *slog.Logger
	clock  clockwork.Clock
	rand   func() float64

	gateTicks    int
	progressTick time.Duration

	mu      sync.Mutex
	flights map[string]*flight
}

// New creates a new pipeline over the given store
func New(st *store.Store, opts Options) *Pipeline {
	if opts.GateTicks <= 0 {
		opts.GateTicks = 3
	}
	if opts.ProgressTick <= 0 {
		opts.ProgressTick = 800 * time.Millisecond
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Rand == nil {
		opts.Rand = rand.Float64
	}

	return &Pipeline{
		store:        st,
		logger:       slog.Default(),
		clock:        opts.Clock,
		rand:         opts.Rand,
		gateTicks:    opts.GateTicks,
		progressTick: opts.ProgressTick,
		flights:      make(map[string]*flight),
	}
}

// SizeLabel returns the nominal size label for a quality
func SizeLabel(quality string) string {
	if label, ok := qualitySizes[quality]; ok {
		return label
	}
	return defaultSizeLabel
}

// Request starts a new download attempt for the given title. The attempt
// begins with the gate countdown; nothing is persisted until the gate
// completes. Rejected with ErrAlreadyQueued when a download already exists or
// is in flight for the same movie id.
func (p *Pipeline) Request(movie models.Movie, quality string) (*FlightStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, f := range p.flights {
		if f.movie.ID == movie.ID {
			return nil, ErrAlreadyQueued
		}
	}

	downloads, err := p.readDownloads()
	if err != nil {
		return nil, err
	}
	queued := lo.SomeBy(downloads, func(d models.Download) bool { return d.MovieID == movie.ID })
	if queued {
		return nil, ErrAlreadyQueued
	}

	f := &flight{
		id:        uuid.NewString(),
		movie:     movie,
		quality:   quality,
		state:     StateGatePending,
		countdown: p.gateTicks,
		done:      make(chan struct{}),
	}
	p.flights[f.id] = f

	go p.runGate(f)

	p.logger.Info("Download requested", "flight_id", f.id, "movie_id", movie.ID, "quality", quality)
	return p.snapshot(f), nil
}

// Status returns a snapshot of an active flight
func (p *Pipeline) Status(flightID string) (*FlightStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	f, ok := p.flights[flightID]
	if !ok {
		return nil, ErrFlightNotFound
	}

	return p.snapshot(f), nil
}

// Cancel abandons a flight whose gate is still counting down. Nothing was
// persisted yet, so cancellation leaves no trace. Once the gate has completed
// the flight is no longer cancellable.
func (p *Pipeline) Cancel(flightID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	f, ok := p.flights[flightID]
	if !ok {
		return ErrFlightNotFound
	}
	if f.state != StateGatePending {
		return ErrNotCancellable
	}

	f.state = StateCancelled
	close(f.done)
	delete(p.flights, flightID)

	p.logger.Info("Flight cancelled during gate", "flight_id", flightID, "movie_id", f.movie.ID)
	return nil
}

// runGate advances the countdown once per second on the injected clock and
// hands the flight to the download phase exactly once when it reaches zero
func (p *Pipeline) runGate(f *flight) {
	for {
		select {
		case <-f.done:
			return
		case <-p.clock.After(time.Second):
		}

		p.mu.Lock()
		if f.state != StateGatePending {
			p.mu.Unlock()
			return
		}
		f.countdown--
		remaining := f.countdown
		if remaining <= 0 {
			f.state = StateDownloading
		}
		p.mu.Unlock()

		if remaining <= 0 {
			p.startDownload(f)
			return
		}
	}
}

// startDownload creates the persisted queue entry and runs the progress
// simulation until it converges on 100
func (p *Pipeline) startDownload(f *flight) {
	now := p.clock.Now()
	download := models.Download{
		ID:        uuid.NewString(),
		MovieID:   f.movie.ID,
		Title:     fmt.Sprintf("%s (%s)", f.movie.Title, f.quality),
		Thumbnail: f.movie.Thumbnail,
		Progress:  0,
		Status:    models.StatusDownloading,
		Size:      SizeLabel(f.quality),
		CreatedAt: now,
		UpdatedAt: now,
	}

	p.mu.Lock()
	downloads, err := p.readDownloads()
	if err == nil {
		downloads = append(downloads, download)
		err = p.store.Set(store.KeyDownloads, downloads)
	}
	p.mu.Unlock()
	if err != nil {
		p.logger.Error("Failed to persist download", "movie_id", f.movie.ID, "error", err)
		p.removeFlight(f)
		return
	}

	p.logger.Info("Gate completed, download started",
		"flight_id", f.id,
		"download_id", download.ID,
		"size", download.Size)

	p.runProgress(f, download.ID, 0)
}

// runProgress advances the simulated progress on every tick. The increment
// is pseudo-random, so only convergence to exactly 100 is guaranteed; the
// sequence never decreases while the status is downloading.
func (p *Pipeline) runProgress(f *flight, downloadID string, progress float64) {
	for progress < 100 {
		<-p.clock.After(p.progressTick)

		progress += p.rand() * maxIncrement
		if progress >= 100 {
			progress = 100
		}

		if err := p.updateProgress(f, downloadID, progress); err != nil {
			p.logger.Error("Failed to update progress", "download_id", downloadID, "error", err)
			p.removeFlight(f)
			return
		}
	}

	if err := p.complete(f, downloadID); err != nil {
		p.logger.Error("Failed to complete download", "download_id", downloadID, "error", err)
	}
	p.removeFlight(f)
}

// updateProgress persists a single progress tick
func (p *Pipeline) updateProgress(f *flight, downloadID string, progress float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	downloads, err := p.readDownloads()
	if err != nil {
		return err
	}

	for i := range downloads {
		if downloads[i].ID == downloadID {
			downloads[i].Progress = progress
			downloads[i].UpdatedAt = p.clock.Now()
			return p.store.Set(store.KeyDownloads, downloads)
		}
	}

	// The user deleted the entry mid-flight; stop ticking
	return ErrNotFound
}

// complete marks the download completed and creates its local file artifact.
// Runs exactly once per flight, when progress reaches 100.
func (p *Pipeline) complete(f *flight, downloadID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	downloads, err := p.readDownloads()
	if err != nil {
		return err
	}

	for i := range downloads {
		if downloads[i].ID == downloadID {
			downloads[i].Progress = 100
			downloads[i].Status = models.StatusCompleted
			downloads[i].UpdatedAt = p.clock.Now()
			if err := p.store.Set(store.KeyDownloads, downloads); err != nil {
				return err
			}
			break
		}
	}

	files, err := p.readLocalFiles()
	if err != nil {
		return err
	}

	files = append(files, models.LocalFile{
		ID:        uuid.NewString(),
		Name:      fmt.Sprintf("%s (%s).mp4", f.movie.Title, f.quality),
		URL:       f.movie.VideoURL,
		Size:      completedFileBytes,
		Type:      "video/mp4",
		CreatedAt: p.clock.Now(),
	})
	if err := p.store.Set(store.KeyLocalFiles, files); err != nil {
		return err
	}

	f.state = StateCompleted
	p.logger.Info("Download completed", "download_id", downloadID, "movie_id", f.movie.ID)
	return nil
}

// removeFlight drops a finished flight from the active set
func (p *Pipeline) removeFlight(f *flight) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.flights, f.id)
}

// snapshot copies flight state for callers; p.mu must be held
func (p *Pipeline) snapshot(f *flight) *FlightStatus {
	return &FlightStatus{
		ID:        f.id,
		MovieID:   f.movie.ID,
		Quality:   f.quality,
		State:     f.state,
		Countdown: f.countdown,
	}
}

// Downloads returns the persisted queue in insertion order
func (p *Pipeline) Downloads() ([]models.Download, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.readDownloads()
}

// DeleteDownload removes a queue entry. The local file produced by a
// completed download is deliberately left alone.
func (p *Pipeline) DeleteDownload(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	downloads, err := p.readDownloads()
	if err != nil {
		return err
	}

	remaining := lo.Reject(downloads, func(d models.Download, _ int) bool { return d.ID == id })
	if len(remaining) == len(downloads) {
		return ErrNotFound
	}

	return p.store.Set(store.KeyDownloads, remaining)
}

// LocalFiles returns the offline library in insertion order
func (p *Pipeline) LocalFiles() ([]models.LocalFile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.readLocalFiles()
}

// DeleteLocalFile removes a library entry. Any queue entry for the same
// title is deliberately left alone.
func (p *Pipeline) DeleteLocalFile(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	files, err := p.readLocalFiles()
	if err != nil {
		return err
	}

	remaining := lo.Reject(files, func(f models.LocalFile, _ int) bool { return f.ID == id })
	if len(remaining) == len(files) {
		return ErrNotFound
	}

	return p.store.Set(store.KeyLocalFiles, remaining)
}

// readDownloads reads the persisted queue; p.mu must be held
func (p *Pipeline) readDownloads() ([]models.Download, error) {
	var downloads []models.Download
	if err := p.store.Get(store.KeyDownloads, &downloads); err != nil {
		return nil, fmt.Errorf("failed to read downloads: %w", err)
	}
	return downloads, nil
}

// readLocalFiles reads the offline library; p.mu must be held
func (p *Pipeline) readLocalFiles() ([]models.LocalFile, error) {
	var files []models.LocalFile
	if err := p.store.Get(store.KeyLocalFiles, &files); err != nil {
		return nil, fmt.Errorf("failed to read local files: %w", err)
	}
	return files, nil
}
