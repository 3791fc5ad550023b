package pipeline

import (
	"strings"

	"trending-block/pkg/models"

	"github.com/google/uuid"
)

// ResumeOrphaned re-attaches progress flights to queue entries left in the
// downloading state by a previous process, so they still converge to 100
// instead of sitting stuck. Entries whose movie no longer exists in the
// catalog keep going with what the queue entry itself recorded (orphaned
// references are allowed by the model).
func (p *Pipeline) ResumeOrphaned(resolver MovieResolver) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	downloads, err := p.readDownloads()
	if err != nil {
		return err
	}

	resumed := 0
	for _, d := range downloads {
		if d.Status != models.StatusDownloading {
			continue
		}

		title, quality := splitDownloadTitle(d.Title)
		movie := models.Movie{
			ID:        d.MovieID,
			Title:     title,
			Thumbnail: d.Thumbnail,
		}
		if resolved, err := resolver.Get(d.MovieID); err == nil {
			movie = *resolved
		}

		f := &flight{
			id:      uuid.NewString(),
			movie:   movie,
			quality: quality,
			state:   StateDownloading,
			done:    make(chan struct{}),
		}
		p.flights[f.id] = f
		resumed++

		go p.runProgress(f, d.ID, d.Progress)

		p.logger.Info("Resumed orphaned download",
			"download_id", d.ID,
			"movie_id", d.MovieID,
			"progress", d.Progress)
	}

	if resumed > 0 {
		p.logger.Info("Resumed orphaned downloads from previous session", "count", resumed)
	}

	return nil
}

// splitDownloadTitle splits a queue entry title like "DUNE: PART TWO (4K)"
// into the movie title and the requested quality
func splitDownloadTitle(title string) (string, string) {
	open := strings.LastIndex(title, " (")
	if open < 0 || !strings.HasSuffix(title, ")") {
		return title, ""
	}

	return title[:open], title[open+2 : len(title)-1]
}
