package paging

import "fmt"

const (
	DefaultPageSize     = 20
	DefaultMaxCacheSize = 1000
	DefaultKeepWindow   = 200
)

// Settings sizes the engine: how many items make up a page, how many cached
// items are tolerated before eviction runs, and how far from the eviction
// anchor an entry may lie and still survive.
type Settings struct {
	PageSize     int `env:"PAGE_SIZE" envDefault:"20"`
	MaxCacheSize int `env:"CACHE_MAX_SIZE" envDefault:"1000"`
	KeepWindow   int `env:"CACHE_KEEP_WINDOW" envDefault:"200"`
}

// DefaultSettings returns the default engine sizing.
func DefaultSettings() Settings {
	return Settings{
		PageSize:     DefaultPageSize,
		MaxCacheSize: DefaultMaxCacheSize,
		KeepWindow:   DefaultKeepWindow,
	}
}

// Validate checks that the cache can always hold at least the page being served.
func (s Settings) Validate() error {
	if s.PageSize < 1 {
		return fmt.Errorf("page_size must be at least 1, got: %d", s.PageSize)
	}
	if s.MaxCacheSize < s.PageSize {
		return fmt.Errorf("cache_max_size must be at least page_size (%d), got: %d", s.PageSize, s.MaxCacheSize)
	}
	if s.KeepWindow < s.PageSize {
		return fmt.Errorf("cache_keep_window must be at least page_size (%d), got: %d", s.PageSize, s.KeepWindow)
	}
	return nil
}

// WithDefaults fills zero values with defaults.
func (s Settings) WithDefaults() Settings {
	if s.PageSize == 0 {
		s.PageSize = DefaultPageSize
	}
	if s.MaxCacheSize == 0 {
		s.MaxCacheSize = DefaultMaxCacheSize
	}
	if s.KeepWindow == 0 {
		s.KeepWindow = DefaultKeepWindow
	}
	return s
}
