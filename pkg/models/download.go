package models

import (
	"time"
)

// DownloadStatus represents the current status of a download
type DownloadStatus string

const (
	StatusDownloading DownloadStatus = "downloading"
	StatusCompleted   DownloadStatus = "completed"
	StatusPaused      DownloadStatus = "paused"
)

// Download represents a queue entry for a title being cached for offline use.
// At most one Download exists per movie id at a time; progress only moves
// forward while the status is downloading.
type Download struct {
	ID        string         `json:"id"`
	MovieID   string         `json:"movie_id"`
	Title     string         `json:"title"`
	Thumbnail string         `json:"thumbnail"`
	Progress  float64        `json:"progress"`
	Status    DownloadStatus `json:"status"`
	Size      string         `json:"size"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// LocalFile represents a completed offline artifact. It is created exactly
// once, when a Download reaches 100, and lives independently of the Download
// that produced it: deleting one never deletes the other.
type LocalFile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	Size      int64     `json:"size"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}
