package pipeline

import (
	"trending-block/pkg/models"
)

// MovieResolver looks up catalog entries when re-attaching flights to
// downloads left over from a previous process
type MovieResolver interface {
	Get(id string) (*models.Movie, error)
}
