package preset

import (
	"context"
	"testing"
	"time"

	"github.com/FlashGalatine/xivdyetools-api/internal/models"
	"github.com/FlashGalatine/xivdyetools-api/internal/modules/category"
	"github.com/FlashGalatine/xivdyetools-api/internal/pkg/discord"
	"github.com/FlashGalatine/xivdyetools-api/internal/pkg/filter"
	"github.com/FlashGalatine/xivdyetools-api/internal/pkg/pagination"
	"github.com/FlashGalatine/xivdyetools-api/internal/pkg/screening"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.CategoryModel{},
		&models.PresetModel{},
		&models.VoteModel{},
		&models.ModerationLogModel{},
		&models.BannedUserModel{},
	))
	require.NoError(t, db.Create(&models.CategoryModel{ID: "vibrant", Name: "Vibrant"}).Error)
	return db
}

func newTestService(t *testing.T, db *gorm.DB, bannedPhrases ...string) *Service {
	t.Helper()
	f, err := filter.Compile(map[string][]string{"en": bannedPhrases})
	require.NoError(t, err)
	screen := screening.New(f, nil, zap.NewNop())
	svc := NewService(db, screen, category.NewService(db), discord.New("", zap.NewNop()), zap.NewNop())
	return svc
}

func paginationQuery() pagination.Query {
	return pagination.Query{Page: 1, Size: 20}
}

func validDTO() *CreatePresetDTO {
	return &CreatePresetDTO{
		Name:        "Sunset Glam",
		Description: "A warm orange and gold combination.",
		CategoryID:  "vibrant",
		Dyes:        []int{14, 7, 22},
		Tags:        []string{"warm", "casual"},
	}
}

func TestDyeSignatureOrderIndependent(t *testing.T) {
	assert.Equal(t, DyeSignature([]int{3, 1, 2}), DyeSignature([]int{2, 3, 1}))
	assert.Equal(t, "[1,2,3]", DyeSignature([]int{3, 1, 2}))
	assert.NotEqual(t, DyeSignature([]int{1, 2}), DyeSignature([]int{1, 2, 3}))
}

func TestCreateApprovesCleanContent(t *testing.T) {
	svc := newTestService(t, openTestDB(t), "slur")

	res, err := svc.Create(context.Background(), "user-1", "Khloe", validDTO())
	require.NoError(t, err)

	assert.False(t, res.Duplicate)
	assert.Equal(t, models.PresetApproved, res.Preset.Status)
	assert.Equal(t, "[7,14,22]", res.Preset.DyeSignature)
	assert.Equal(t, "Khloe", res.Preset.AuthorName)
	require.NotNil(t, res.Preset.AuthorID)
	assert.Equal(t, "user-1", *res.Preset.AuthorID)
	assert.True(t, res.Screening.Passed)
}

func TestCreatePendsFilteredContent(t *testing.T) {
	svc := newTestService(t, openTestDB(t), "slur")

	dto := validDTO()
	dto.Name = "Contains slur here"
	res, err := svc.Create(context.Background(), "user-1", "Khloe", dto)
	require.NoError(t, err)

	assert.Equal(t, models.PresetPending, res.Preset.Status)
	assert.False(t, res.Screening.Passed)
	assert.Equal(t, "name", res.Screening.Field)
}

func TestCreateRejectsUnknownCategory(t *testing.T) {
	svc := newTestService(t, openTestDB(t))

	dto := validDTO()
	dto.CategoryID = "no-such-category"
	_, err := svc.Create(context.Background(), "user-1", "Khloe", dto)

	var vErr ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestCreateDuplicateBecomesVote(t *testing.T) {
	svc := newTestService(t, openTestDB(t))
	ctx := context.Background()

	first, err := svc.Create(ctx, "user-1", "Khloe", validDTO())
	require.NoError(t, err)

	// Same dyes in a different order from another user.
	dto := validDTO()
	dto.Name = "Totally Different Name"
	dto.Dyes = []int{22, 14, 7}
	res, err := svc.Create(ctx, "user-2", "Soren", dto)
	require.NoError(t, err)

	assert.True(t, res.Duplicate)
	assert.True(t, res.VoteAdded)
	assert.Equal(t, first.Preset.ID, res.Preset.ID)
	assert.Equal(t, 1, res.Preset.VoteCount)

	// The same user submitting again adds no second vote.
	res, err = svc.Create(ctx, "user-2", "Soren", dto)
	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	assert.False(t, res.VoteAdded)
	assert.Equal(t, 1, res.Preset.VoteCount)
}

// A rejected preset keeps its row and signature; resubmitting that dye set
// conflicts without anything votable to redirect to.
func TestCreateInsertRaceBecomesVote(t *testing.T) {
	db := openTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	first, err := svc.Create(ctx, "user-1", "Khloe", validDTO())
	require.NoError(t, err)

	// Blind the first duplicate lookup so the submission reaches the insert,
	// the way a rival commit between lookup and insert would. The unique
	// index rejects the row and the re-query finds the winner.
	lookup := svc.findActive
	calls := 0
	svc.findActive = func(ctx context.Context, sig, excludeID string) (*models.PresetModel, error) {
		calls++
		if calls == 1 {
			return nil, nil
		}
		return lookup(ctx, sig, excludeID)
	}

	dto := validDTO()
	dto.Name = "Racing Submission"
	res, err := svc.Create(ctx, "user-2", "Soren", dto)
	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	assert.True(t, res.VoteAdded)
	assert.Equal(t, first.Preset.ID, res.Preset.ID)
	assert.Equal(t, 1, res.Preset.VoteCount)
	assert.Equal(t, 2, calls)

	voted, err := svc.HasVoted(ctx, first.Preset.ID, "user-2")
	require.NoError(t, err)
	assert.True(t, voted)
}

func TestCreateConflictsWithRejectedSignature(t *testing.T) {
	db := openTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	res, err := svc.Create(ctx, "user-1", "Khloe", validDTO())
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.PresetModel{}).
		Where("id = ?", res.Preset.ID).
		Update("status", models.PresetRejected).Error)

	_, err = svc.Create(ctx, "user-2", "Soren", validDTO())
	var dupErr *DuplicateError
	require.ErrorAs(t, err, &dupErr)
	assert.Nil(t, dupErr.Existing)
}

func TestAddVoteIdempotent(t *testing.T) {
	svc := newTestService(t, openTestDB(t))
	ctx := context.Background()

	res, err := svc.Create(ctx, "user-1", "Khloe", validDTO())
	require.NoError(t, err)
	id := res.Preset.ID

	count, added, err := svc.AddVote(ctx, id, "voter-1")
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, 1, count)

	count, added, err = svc.AddVote(ctx, id, "voter-1")
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, 1, count, "double vote must not bump the count")

	count, added, err = svc.AddVote(ctx, id, "voter-2")
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, 2, count)
}

func TestAddVoteUnknownPreset(t *testing.T) {
	svc := newTestService(t, openTestDB(t))
	_, _, err := svc.AddVote(context.Background(), "missing-id", "voter-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveVote(t *testing.T) {
	svc := newTestService(t, openTestDB(t))
	ctx := context.Background()

	res, err := svc.Create(ctx, "user-1", "Khloe", validDTO())
	require.NoError(t, err)
	id := res.Preset.ID

	_, _, err = svc.AddVote(ctx, id, "voter-1")
	require.NoError(t, err)

	count, removed, err := svc.RemoveVote(ctx, id, "voter-1")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, 0, count)

	// Removing again is a no-op, and the count never goes negative.
	count, removed, err = svc.RemoveVote(ctx, id, "voter-1")
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, 0, count)
}

func TestHasVoted(t *testing.T) {
	svc := newTestService(t, openTestDB(t))
	ctx := context.Background()

	res, err := svc.Create(ctx, "user-1", "Khloe", validDTO())
	require.NoError(t, err)

	voted, err := svc.HasVoted(ctx, res.Preset.ID, "voter-1")
	require.NoError(t, err)
	assert.False(t, voted)

	_, _, err = svc.AddVote(ctx, res.Preset.ID, "voter-1")
	require.NoError(t, err)

	voted, err = svc.HasVoted(ctx, res.Preset.ID, "voter-1")
	require.NoError(t, err)
	assert.True(t, voted)
}

func TestQuotaResetsAtUTCMidnight(t *testing.T) {
	db := openTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	// 23:30 UTC, half an hour before rollover.
	current := time.Date(2025, 6, 1, 23, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return current }

	for i := 0; i < DailySubmissionCap; i++ {
		dto := validDTO()
		dto.Dyes = []int{50 + i, 70 + i}
		_, err := svc.Create(ctx, "user-1", "Khloe", dto)
		require.NoError(t, err)
	}
	// GORM stamps created_at with the wall clock; pin the rows into the
	// simulated day so the window math is deterministic.
	require.NoError(t, db.Model(&models.PresetModel{}).
		Where("author_id = ?", "user-1").
		UpdateColumn("created_at", time.Date(2025, 6, 1, 23, 0, 0, 0, time.UTC)).Error)

	used, remaining, reset, err := svc.Quota(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, DailySubmissionCap, used)
	assert.Equal(t, 0, remaining)
	assert.Equal(t, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), reset)

	// Another user is unaffected.
	_, remaining, _, err = svc.Quota(ctx, "user-2")
	require.NoError(t, err)
	assert.Equal(t, DailySubmissionCap, remaining)

	// Crossing UTC midnight resets the calendar-day window.
	current = time.Date(2025, 6, 2, 0, 0, 1, 0, time.UTC)
	_, remaining, _, err = svc.Quota(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, DailySubmissionCap, remaining)
}

func TestUpdateOwnerOnly(t *testing.T) {
	svc := newTestService(t, openTestDB(t))
	ctx := context.Background()

	res, err := svc.Create(ctx, "user-1", "Khloe", validDTO())
	require.NoError(t, err)

	newName := "Renamed Preset"
	_, _, err = svc.Update(ctx, res.Preset.ID, "someone-else", &UpdatePresetDTO{Name: &newName})
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestUpdateRecomputesSignature(t *testing.T) {
	svc := newTestService(t, openTestDB(t))
	ctx := context.Background()

	res, err := svc.Create(ctx, "user-1", "Khloe", validDTO())
	require.NoError(t, err)

	newDyes := []int{90, 91, 92}
	p, scr, err := svc.Update(ctx, res.Preset.ID, "user-1", &UpdatePresetDTO{Dyes: &newDyes})
	require.NoError(t, err)
	assert.True(t, scr.Passed)
	assert.Equal(t, "[90,91,92]", p.DyeSignature)
	assert.Equal(t, models.PresetApproved, p.Status)
}

func TestUpdateRejectsDuplicateDyes(t *testing.T) {
	svc := newTestService(t, openTestDB(t))
	ctx := context.Background()

	_, err := svc.Create(ctx, "user-1", "Khloe", validDTO())
	require.NoError(t, err)

	other := validDTO()
	other.Dyes = []int{1, 2, 3}
	res, err := svc.Create(ctx, "user-1", "Khloe", other)
	require.NoError(t, err)

	colliding := []int{22, 7, 14} // first preset's dyes, reordered
	_, _, err = svc.Update(ctx, res.Preset.ID, "user-1", &UpdatePresetDTO{Dyes: &colliding})

	var dupErr *DuplicateError
	require.ErrorAs(t, err, &dupErr)
	require.NotNil(t, dupErr.Existing)
	assert.Equal(t, "[7,14,22]", dupErr.Existing.DyeSignature)
}

func TestUpdateFailedScreenSnapshotsPreEditValues(t *testing.T) {
	svc := newTestService(t, openTestDB(t), "slur")
	ctx := context.Background()

	res, err := svc.Create(ctx, "user-1", "Khloe", validDTO())
	require.NoError(t, err)

	bad := "Now with slur inside"
	p, scr, err := svc.Update(ctx, res.Preset.ID, "user-1", &UpdatePresetDTO{Name: &bad})
	require.NoError(t, err)
	assert.False(t, scr.Passed)
	assert.Equal(t, models.PresetPending, p.Status)
	require.NotNil(t, p.PreviousValues)
	assert.Equal(t, "Sunset Glam", p.PreviousValues.Name)

	// A second failing edit snapshots the state it is replacing.
	worse := "Another slur again"
	p, scr, err = svc.Update(ctx, res.Preset.ID, "user-1", &UpdatePresetDTO{Name: &worse})
	require.NoError(t, err)
	assert.False(t, scr.Passed)
	require.NotNil(t, p.PreviousValues)
	assert.Equal(t, "Now with slur inside", p.PreviousValues.Name)
}

func TestUpdateCleanEditKeepsSnapshot(t *testing.T) {
	svc := newTestService(t, openTestDB(t), "slur")
	ctx := context.Background()

	res, err := svc.Create(ctx, "user-1", "Khloe", validDTO())
	require.NoError(t, err)

	bad := "Now with slur inside"
	_, _, err = svc.Update(ctx, res.Preset.ID, "user-1", &UpdatePresetDTO{Name: &bad})
	require.NoError(t, err)

	clean := "Perfectly Fine Name"
	p, scr, err := svc.Update(ctx, res.Preset.ID, "user-1", &UpdatePresetDTO{Name: &clean})
	require.NoError(t, err)
	assert.True(t, scr.Passed)
	require.NotNil(t, p.PreviousValues)
	assert.Equal(t, "Sunset Glam", p.PreviousValues.Name)
}

func TestUpdatePreservesVoteCount(t *testing.T) {
	svc := newTestService(t, openTestDB(t))
	ctx := context.Background()

	res, err := svc.Create(ctx, "user-1", "Khloe", validDTO())
	require.NoError(t, err)
	_, _, err = svc.AddVote(ctx, res.Preset.ID, "voter-1")
	require.NoError(t, err)

	newName := "Renamed But Still Voted"
	p, _, err := svc.Update(ctx, res.Preset.ID, "user-1", &UpdatePresetDTO{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, 1, p.VoteCount)
}

func TestDeleteCascadesVotes(t *testing.T) {
	db := openTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	res, err := svc.Create(ctx, "user-1", "Khloe", validDTO())
	require.NoError(t, err)
	_, _, err = svc.AddVote(ctx, res.Preset.ID, "voter-1")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, res.Preset.ID))

	_, err = svc.GetByID(ctx, res.Preset.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var votes int64
	require.NoError(t, db.Model(&models.VoteModel{}).Where("preset_id = ?", res.Preset.ID).Count(&votes).Error)
	assert.Zero(t, votes)

	// The freed signature can be submitted again.
	_, err = svc.Create(ctx, "user-2", "Soren", validDTO())
	assert.NoError(t, err)
}

func TestListHidesNonApprovedFromPublic(t *testing.T) {
	svc := newTestService(t, openTestDB(t), "slur")
	ctx := context.Background()

	_, err := svc.Create(ctx, "user-1", "Khloe", validDTO())
	require.NoError(t, err)

	pending := validDTO()
	pending.Name = "Contains slur sadly"
	pending.Dyes = []int{1, 2}
	_, err = svc.Create(ctx, "user-1", "Khloe", pending)
	require.NoError(t, err)

	items, pag, err := svc.List(ctx, ListQuery{}, paginationQuery(), false)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.EqualValues(t, 1, pag.Total)

	// Moderators can ask for the pending ones explicitly.
	items, _, err = svc.List(ctx, ListQuery{Status: models.PresetPending}, paginationQuery(), true)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, models.PresetPending, items[0].Status)
}

func TestFeaturedOrdersByVotes(t *testing.T) {
	svc := newTestService(t, openTestDB(t))
	ctx := context.Background()

	a, err := svc.Create(ctx, "user-1", "Khloe", validDTO())
	require.NoError(t, err)

	dto := validDTO()
	dto.Dyes = []int{1, 2}
	b, err := svc.Create(ctx, "user-1", "Khloe", dto)
	require.NoError(t, err)

	_, _, err = svc.AddVote(ctx, b.Preset.ID, "voter-1")
	require.NoError(t, err)

	items, err := svc.Featured(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, b.Preset.ID, items[0].ID)
	assert.Equal(t, a.Preset.ID, items[1].ID)
}

func TestRefreshDisplayName(t *testing.T) {
	svc := newTestService(t, openTestDB(t))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		dto := validDTO()
		dto.Dyes = []int{10 + i, 20 + i}
		_, err := svc.Create(ctx, "user-1", "OldName", dto)
		require.NoError(t, err)
	}

	n, err := svc.RefreshDisplayName(ctx, "user-1", "NewName")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	items, _, err := svc.Mine(ctx, "user-1", paginationQuery())
	require.NoError(t, err)
	for _, p := range items {
		assert.Equal(t, "NewName", p.AuthorName)
	}
}
