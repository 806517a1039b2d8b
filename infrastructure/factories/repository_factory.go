package factories

import (
	"medianav/database"
	"medianav/domain/contracts"
	"medianav/infrastructure/repositories"
)

// RepositoryFactory creates repositories over one database
type RepositoryFactory interface {
	GetBaseRepository() *repositories.BaseRepository
	CreateMediaRepository() contracts.MediaRepository
}

// RepositoryFactoryImpl implements the factory
type RepositoryFactoryImpl struct {
	db       *database.Database
	baseRepo *repositories.BaseRepository
}

// NewRepositoryFactory creates a new repository factory
func NewRepositoryFactory(db *database.Database) RepositoryFactory {
	return &RepositoryFactoryImpl{
		db:       db,
		baseRepo: repositories.NewBaseRepository(db),
	}
}

// GetBaseRepository returns the shared base repository
func (f *RepositoryFactoryImpl) GetBaseRepository() *repositories.BaseRepository {
	return f.baseRepo
}

// CreateMediaRepository creates the catalog repository
func (f *RepositoryFactoryImpl) CreateMediaRepository() contracts.MediaRepository {
	return repositories.NewSQLMediaRepository(f.db)
}
