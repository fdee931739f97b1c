package category

import (
	"context"
	"sync"
	"time"

	"github.com/FlashGalatine/xivdyetools-api/internal/models"
	"gorm.io/gorm"
)

const cacheTTL = 60 * time.Second

// Service serves the category list and the live allow-list used to validate
// submissions. Reads go through a short in-process cache, refreshed lazily on
// expiry; when a refresh fails a stale copy is served rather than erroring.
type Service struct {
	db *gorm.DB

	mu        sync.Mutex
	cached    []models.CategoryModel
	fetchedAt time.Time
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// List returns all categories in display order.
func (s *Service) List(ctx context.Context) ([]models.CategoryModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil && time.Since(s.fetchedAt) < cacheTTL {
		return s.cached, nil
	}

	var items []models.CategoryModel
	if err := s.db.WithContext(ctx).Order("sort_order ASC, id ASC").Find(&items).Error; err != nil {
		if s.cached != nil {
			return s.cached, nil
		}
		return nil, err
	}

	s.cached = items
	s.fetchedAt = time.Now()
	return items, nil
}

// IsValid reports whether id names an existing category.
func (s *Service) IsValid(ctx context.Context, id string) (bool, error) {
	items, err := s.List(ctx)
	if err != nil {
		return false, err
	}
	for _, cat := range items {
		if cat.ID == id {
			return true, nil
		}
	}
	return false, nil
}
