package recommend

import (
	"context"

	"movieverse/services/tmdb"
)

//go:generate mockgen -source=source.go -destination=mocks/source.go -package=mocks

// MetadataSource is the slice of the metadata API the selector depends on.
type MetadataSource interface {
	DiscoverMovies(ctx context.Context, opts tmdb.DiscoverOptions) (*tmdb.ResultPage, error)
	DiscoverTV(ctx context.Context, opts tmdb.DiscoverOptions) (*tmdb.ResultPage, error)
}

var _ MetadataSource = (*tmdb.Client)(nil)
