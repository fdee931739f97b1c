package category

import (
	"context"
	"testing"

	"github.com/FlashGalatine/xivdyetools-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.CategoryModel{}))
	return db
}

func TestListOrdersBySortOrder(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Create([]models.CategoryModel{
		{ID: "seasonal", Name: "Seasonal", SortOrder: 2},
		{ID: "vibrant", Name: "Vibrant", SortOrder: 1},
	}).Error)

	items, err := NewService(db).List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "vibrant", items[0].ID)
	assert.Equal(t, "seasonal", items[1].ID)
}

func TestListServesFromCache(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Create(&models.CategoryModel{ID: "vibrant", Name: "Vibrant"}).Error)

	svc := NewService(db)
	_, err := svc.List(context.Background())
	require.NoError(t, err)

	// A row added behind the cache is invisible until the TTL expires.
	require.NoError(t, db.Create(&models.CategoryModel{ID: "new", Name: "New"}).Error)
	items, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestIsValid(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Create(&models.CategoryModel{ID: "vibrant", Name: "Vibrant"}).Error)

	svc := NewService(db)
	ok, err := svc.IsValid(context.Background(), "vibrant")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.IsValid(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}
