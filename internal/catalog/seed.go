package catalog

import (
	"trending-block/pkg/models"
)

// Genres, Years and Qualities are the selectable values exposed to the
// browse and admin surfaces.
var (
	Genres    = []string{"Action", "Anime", "Series", "Drama", "Sci-Fi", "History", "Comedy"}
	Years     = []int{2024, 2023, 2022, 2021, 2020}
	Qualities = []string{"4K", "1080p", "720p", "360p"}
)

// seedMovies returns the built-in catalog. The catalog is not persisted, so
// every process start begins from this list.
func seedMovies() []models.Movie {
	return []models.Movie{
		{
			ID:          "1",
			Title:       "DUNE: PART TWO",
			Description: "Paul Atreides unites with Chani and the Fremen while on a warpath of revenge against the conspirators who destroyed his family.",
			Category:    models.CategoryMovie,
			Thumbnail:   "https://picsum.photos/seed/dune/800/450",
			VideoURL:    "http://commondatastorage.googleapis.com/gtv-videos-bucket/sample/BigBuckBunny.mp4",
			Rating:      4.8,
			Year:        2024,
			Genres:      []string{"Action", "Sci-Fi"},
			IsTrending:  true,
		},
		{
			ID:          "2",
			Title:       "THE BOYS: SEASON 4",
			Description: "The world is on the brink. Victoria Neuman is closer than ever to the Oval Office and under the muscly thumb of Homelander.",
			Category:    models.CategorySeries,
			Thumbnail:   "https://picsum.photos/seed/boys/800/450",
			VideoURL:    "http://commondatastorage.googleapis.com/gtv-videos-bucket/sample/ElephantsDream.mp4",
			Rating:      4.7,
			Year:        2024,
			Genres:      []string{"Action", "Drama"},
			IsTrending:  true,
		},
		{
			ID:          "3",
			Title:       "OPPENHEIMER",
			Description: "The story of American scientist J. Robert Oppenheimer and his role in the development of the atomic bomb.",
			Category:    models.CategoryMovie,
			Thumbnail:   "https://picsum.photos/seed/oppen/800/450",
			VideoURL:    "http://commondatastorage.googleapis.com/gtv-videos-bucket/sample/ForBiggerBlazes.mp4",
			Rating:      4.9,
			Year:        2023,
			Genres:      []string{"History", "Drama"},
		},
		{
			ID:          "4",
			Title:       "JUJUTSU KAISEN",
			Description: "A boy swallows a cursed talisman - the finger of a demon - and becomes cursed himself.",
			Category:    models.CategoryAnime,
			Thumbnail:   "https://picsum.photos/seed/jjk/800/450",
			VideoURL:    "http://commondatastorage.googleapis.com/gtv-videos-bucket/sample/ForBiggerEscapes.mp4",
			Rating:      4.9,
			Year:        2023,
			Genres:      []string{"Anime", "Action"},
			IsTrending:  true,
		},
	}
}
