package repository

import (
	"time"

	"github.com/tejaspavanb/DeepFake/internal/model"
)

// HashRecord pairs a stored analysis with its perceptual hash.
type HashRecord struct {
	ID        int64
	Hash      string
	Filename  string
	CreatedAt time.Time
}

// AnalysisRepository defines the interface for analysis history operations.
type AnalysisRepository interface {
	// Create operations
	Insert(a *model.Analysis) (int64, error)

	// Read operations
	GetByID(id int64) (*model.Analysis, error)
	GetAll(filter *model.AnalysisFilter) ([]model.Analysis, error)
	GetTotalCount(filter *model.AnalysisFilter) (int, error)
	GetHashes(kind model.MediaKind) ([]HashRecord, error)
	GetStats() (*model.AnalysisStats, error)

	// Delete operations
	Delete(id int64) error
	DeleteAll() error
	DeleteByStoredNames(names []string) (int64, error)
}
