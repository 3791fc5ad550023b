package models

// Category represents the content type of a catalog entry
type Category string

const (
	CategoryMovie  Category = "Movie"
	CategorySeries Category = "Series"
	CategoryAnime  Category = "Anime"
)

// ValidCategory reports whether the given category is one of the known categories
func ValidCategory(c Category) bool {
	switch c {
	case CategoryMovie, CategorySeries, CategoryAnime:
		return true
	}
	return false
}

// Movie represents a catalog entry. Entries are unique by id and are only
// created, edited or deleted through the admin surface.
type Movie struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Thumbnail   string   `json:"thumbnail"`
	VideoURL    string   `json:"video_url"`
	Rating      float64  `json:"rating"`
	Year        int      `json:"year"`
	Genres      []string `json:"genres"`
	IsTrending  bool     `json:"is_trending,omitempty"`
}
