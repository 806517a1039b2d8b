package factories

import (
	"fmt"
	"sync"

	"github.com/koltyakov/gosip/api"

	"medianav/domain/contracts"
	"medianav/domain/media"
	"medianav/infrastructure/config"
	"medianav/infrastructure/sources"
	"medianav/infrastructure/spclient"
	"medianav/spauth"
)

// SourceFactory creates the catalog source for a new browse session
type SourceFactory interface {
	CreateSource() (contracts.Source[media.Item], error)
	Kind() string
}

// SourceFactoryImpl picks the source implementation from SOURCE_KIND
type SourceFactoryImpl struct {
	cfg      *config.SourceConfig
	pageSize int
	repo     contracts.MediaRepository

	listOnce sync.Once
	list     []media.Item

	spOnce sync.Once
	sp     *api.SP
	spErr  error
}

// NewSourceFactory creates a new source factory. repo may be nil unless the kind is sqlite.
func NewSourceFactory(cfg *config.SourceConfig, pageSize int, repo contracts.MediaRepository) SourceFactory {
	return &SourceFactoryImpl{cfg: cfg, pageSize: pageSize, repo: repo}
}

// Kind returns the configured source kind
func (f *SourceFactoryImpl) Kind() string {
	return f.cfg.Kind
}

// CreateSource builds a source. Sessions share the underlying catalog or client.
func (f *SourceFactoryImpl) CreateSource() (contracts.Source[media.Item], error) {
	switch f.cfg.Kind {
	case config.SourceKindList:
		f.listOnce.Do(func() { f.list = media.Generate(f.cfg.ListSize) })
		return sources.NewListSource(f.list, f.pageSize), nil

	case config.SourceKindSQLite:
		if f.repo == nil {
			return nil, fmt.Errorf("source kind %q needs a media repository", f.cfg.Kind)
		}
		return sources.NewRepositorySource(f.repo, f.pageSize), nil

	case config.SourceKindHTTP:
		return sources.NewHTTPSource[media.Item](f.cfg.RemoteURL, f.pageSize, sources.HTTPOptions{
			Timeout:       f.cfg.HTTPTimeout,
			RetryAttempts: f.cfg.RetryAttempts,
			RetryDelay:    f.cfg.RetryDelay,
		}), nil

	case config.SourceKindSharePoint:
		f.spOnce.Do(func() { f.sp, f.spErr = spauth.NewSP() })
		if f.spErr != nil {
			return nil, fmt.Errorf("sharepoint client: %w", f.spErr)
		}
		return sources.NewSharePointSource(spclient.NewClient(f.sp), f.cfg.SharePointListID, f.pageSize), nil

	default:
		return nil, fmt.Errorf("unknown source kind %q", f.cfg.Kind)
	}
}
