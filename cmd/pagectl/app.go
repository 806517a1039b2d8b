package main

import (
	"context"
	"fmt"

	"medianav/database"
	"medianav/domain/contracts"
	"medianav/domain/media"
	"medianav/infrastructure/config"
	"medianav/infrastructure/factories"
	"medianav/logging"
)

// catalog holds what a command opened to reach the configured source.
type catalog struct {
	source contracts.Source[media.Item]
	db     *database.Database
}

func (c *catalog) Close() {
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			logging.Default().Warn("Failed to close database", "error", err)
		}
	}
}

func openDatabase(ctx context.Context) (*database.Database, error) {
	db, err := database.New(ctx, *appConfig.Database, logging.Default().WithComponent("database"))
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", appConfig.Database.Path, err)
	}
	return db, nil
}

// openCatalog builds the configured source. The database is only opened for
// the sqlite kind.
func openCatalog(ctx context.Context) (*catalog, error) {
	c := &catalog{}

	var repo contracts.MediaRepository
	if appConfig.Source.Kind == config.SourceKindSQLite {
		db, err := openDatabase(ctx)
		if err != nil {
			return nil, err
		}
		c.db = db
		repo = factories.NewRepositoryFactory(db).CreateMediaRepository()
	}

	source, err := factories.NewSourceFactory(appConfig.Source, appConfig.Paging.PageSize, repo).CreateSource()
	if err != nil {
		c.Close()
		return nil, err
	}
	c.source = source
	return c, nil
}
