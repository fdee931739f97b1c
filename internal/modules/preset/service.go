package preset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/FlashGalatine/xivdyetools-api/internal/models"
	"github.com/FlashGalatine/xivdyetools-api/internal/modules/category"
	"github.com/FlashGalatine/xivdyetools-api/internal/pkg/discord"
	"github.com/FlashGalatine/xivdyetools-api/internal/pkg/pagination"
	"github.com/FlashGalatine/xivdyetools-api/internal/pkg/response"
	"github.com/FlashGalatine/xivdyetools-api/internal/pkg/screening"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// DailySubmissionCap is the number of presets a user may submit per UTC
	// calendar day. The count resets at UTC midnight, not on a rolling window.
	DailySubmissionCap = 10

	featuredCount = 10
)

var (
	ErrNotFound = errors.New("preset not found")
	ErrNotOwner = errors.New("not the preset owner")
)

// DyeSignature returns the canonical duplicate fingerprint of a dye set: the
// JSON encoding of the sorted ids. Order-independent by construction.
func DyeSignature(dyes []int) string {
	sorted := append([]int(nil), dyes...)
	sort.Ints(sorted)
	b, _ := json.Marshal(sorted)
	return string(b)
}

// Service implements the preset lifecycle: create with duplicate detection,
// edit with re-screening, voting, deletion, quotas.
type Service struct {
	db         *gorm.DB
	screen     *screening.Service
	categories *category.Service
	notifier   *discord.Notifier
	log        *zap.Logger
	now        func() time.Time
	findActive func(ctx context.Context, sig, excludeID string) (*models.PresetModel, error)
}

func NewService(db *gorm.DB, screen *screening.Service, categories *category.Service, notifier *discord.Notifier, log *zap.Logger) *Service {
	s := &Service{
		db:         db,
		screen:     screen,
		categories: categories,
		notifier:   notifier,
		log:        log,
		now:        time.Now,
	}
	s.findActive = s.findActiveBySignature
	return s
}

// Create validates and submits a preset. An existing non-rejected preset with
// the same dye signature short-circuits into a vote on that preset. Two
// submitters racing the identical dye set can both pass the lookup; the
// unique index on dye_signature is the backstop, and the duplicate-key
// failure falls back to the vote-on-duplicate path instead of surfacing a 500.
func (s *Service) Create(ctx context.Context, userID, userName string, dto *CreatePresetDTO) (*CreateResult, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	ok, err := s.categories.IsValid(ctx, dto.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("category lookup: %w", err)
	}
	if !ok {
		return nil, ValidationError(fmt.Sprintf("unknown category %q", dto.CategoryID))
	}

	sig := DyeSignature(dto.Dyes)

	if existing, err := s.findActive(ctx, sig, ""); err != nil {
		return nil, err
	} else if existing != nil {
		return s.voteOnDuplicate(ctx, existing, userID)
	}

	scr := s.screen.Check(ctx, dto.Name, dto.Description)
	status := models.PresetApproved
	if !scr.Passed {
		status = models.PresetPending
	}

	p := &models.PresetModel{
		Name:         dto.Name,
		Description:  dto.Description,
		CategoryID:   dto.CategoryID,
		Dyes:         models.IntArray(dto.Dyes),
		DyeSignature: sig,
		Tags:         models.StringArray(dto.Tags),
		AuthorID:     &userID,
		AuthorName:   userName,
		Status:       status,
	}

	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the race: someone committed the same signature between our
			// lookup and the insert.
			existing, qerr := s.findActive(ctx, sig, "")
			if qerr != nil {
				return nil, qerr
			}
			if existing == nil {
				// The conflicting row is flagged or rejected, so there is
				// nothing to vote on.
				return nil, &DuplicateError{}
			}
			return s.voteOnDuplicate(ctx, existing, userID)
		}
		return nil, err
	}

	s.notifyAsync(discord.Embed{
		Title:       "New preset submitted",
		Description: p.Name,
		Color:       0x5865F2,
		Fields: []discord.EmbedField{
			{Name: "Status", Value: string(p.Status), Inline: true},
			{Name: "Author", Value: userName, Inline: true},
			{Name: "Dyes", Value: sig, Inline: true},
		},
	})

	return &CreateResult{Preset: p, Duplicate: false, Screening: scr}, nil
}

func (s *Service) voteOnDuplicate(ctx context.Context, existing *models.PresetModel, userID string) (*CreateResult, error) {
	count, added, err := s.AddVote(ctx, existing.ID, userID)
	if err != nil {
		return nil, err
	}
	existing.VoteCount = count
	return &CreateResult{
		Preset:    existing,
		Duplicate: true,
		VoteAdded: added,
		Screening: screening.Result{Passed: true, Method: "skipped"},
	}, nil
}

// findActiveBySignature looks up a non-rejected (approved or pending) preset
// with the given signature, optionally excluding one id.
func (s *Service) findActiveBySignature(ctx context.Context, sig, excludeID string) (*models.PresetModel, error) {
	q := s.db.WithContext(ctx).
		Where("dye_signature = ?", sig).
		Where("status IN ?", []models.PresetStatus{models.PresetApproved, models.PresetPending})
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var p models.PresetModel
	if err := q.First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// GetByID returns one preset.
func (s *Service) GetByID(ctx context.Context, id string) (*models.PresetModel, error) {
	var p models.PresetModel
	if err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// List returns presets matching q. Non-moderators only ever see approved
// presets regardless of the requested status filter.
func (s *Service) List(ctx context.Context, q ListQuery, pq pagination.Query, isModerator bool) ([]models.PresetModel, response.Pagination, error) {
	db := s.db.WithContext(ctx).Model(&models.PresetModel{})

	if !isModerator {
		db = db.Where("status = ?", models.PresetApproved)
	} else if q.Status != "" {
		db = db.Where("status = ?", q.Status)
	}
	if q.CategoryID != "" {
		db = db.Where("category_id = ?", q.CategoryID)
	}
	if q.Curated != nil {
		db = db.Where("curated = ?", *q.Curated)
	}
	if q.Search != "" {
		like := "%" + q.Search + "%"
		db = db.Where("name LIKE ? OR description LIKE ?", like, like)
	}

	switch q.Sort {
	case "popular":
		db = db.Order("vote_count DESC, created_at DESC")
	case "name":
		db = db.Order("name ASC")
	default: // recent
		db = db.Order("created_at DESC")
	}

	var items []models.PresetModel
	pag, err := pagination.Paginate(db, pq, &items)
	return items, pag, err
}

// Featured returns the top presets by vote count.
func (s *Service) Featured(ctx context.Context) ([]models.PresetModel, error) {
	var items []models.PresetModel
	err := s.db.WithContext(ctx).
		Where("status = ?", models.PresetApproved).
		Order("vote_count DESC, created_at DESC").
		Limit(featuredCount).
		Find(&items).Error
	return items, err
}

// Mine returns the caller's own presets, any status.
func (s *Service) Mine(ctx context.Context, userID string, pq pagination.Query) ([]models.PresetModel, response.Pagination, error) {
	db := s.db.WithContext(ctx).Model(&models.PresetModel{}).
		Where("author_id = ?", userID).
		Order("created_at DESC")
	var items []models.PresetModel
	pag, err := pagination.Paginate(db, pq, &items)
	return items, pag, err
}

// Quota reports the caller's submissions within the current UTC calendar day
// and when the window resets. Crossing into a new UTC day resets the count,
// independent of the submitter's local time zone.
func (s *Service) Quota(ctx context.Context, userID string) (used, remaining int, reset time.Time, err error) {
	now := s.now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	reset = dayStart.Add(24 * time.Hour)

	var n int64
	err = s.db.WithContext(ctx).Model(&models.PresetModel{}).
		Where("author_id = ? AND created_at >= ?", userID, dayStart).
		Count(&n).Error
	if err != nil {
		return 0, 0, reset, err
	}
	used = int(n)
	remaining = DailySubmissionCap - used
	if remaining < 0 {
		remaining = 0
	}
	return used, remaining, reset, nil
}

// Update edits an owned preset. A dye change re-runs duplicate detection
// excluding the preset itself; a name or description change re-runs the
// moderation pipeline against the prospective values. A failing screen
// snapshots the pre-edit fields into previous_values and sets status
// pending; a passing screen leaves any earlier snapshot untouched.
// Vote counts are never touched by edits.
func (s *Service) Update(ctx context.Context, id, userID string, dto *UpdatePresetDTO) (*models.PresetModel, screening.Result, error) {
	scr := screening.Result{Passed: true, Method: "skipped"}

	if err := dto.Validate(); err != nil {
		return nil, scr, err
	}

	p, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, scr, err
	}
	if p.AuthorID == nil || *p.AuthorID != userID {
		return nil, scr, ErrNotOwner
	}

	snapshot := models.PresetSnapshot{
		Name:        p.Name,
		Description: p.Description,
		Dyes:        p.Dyes,
		Tags:        p.Tags,
	}

	cols := []string{"name", "description", "dyes", "dye_signature", "tags", "updated_at"}

	if dto.Dyes != nil {
		newSig := DyeSignature(*dto.Dyes)
		if newSig != p.DyeSignature {
			dup, err := s.findActive(ctx, newSig, p.ID)
			if err != nil {
				return nil, scr, err
			}
			if dup != nil {
				return nil, scr, &DuplicateError{Existing: dup}
			}
		}
		p.Dyes = models.IntArray(*dto.Dyes)
		p.DyeSignature = newSig
	}
	if dto.Tags != nil {
		p.Tags = models.StringArray(*dto.Tags)
	}

	contentChanged := (dto.Name != nil && *dto.Name != p.Name) ||
		(dto.Description != nil && *dto.Description != p.Description)
	if dto.Name != nil {
		p.Name = *dto.Name
	}
	if dto.Description != nil {
		p.Description = *dto.Description
	}

	if contentChanged {
		scr = s.screen.Check(ctx, p.Name, p.Description)
		if !scr.Passed {
			p.Status = models.PresetPending
			cols = append(cols, "status", "previous_values")
			p.PreviousValues = &snapshot
		}
	}

	err = s.db.WithContext(ctx).Model(&models.PresetModel{}).
		Where("id = ?", p.ID).
		Select(cols).
		Updates(p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			dup, qerr := s.findActive(ctx, p.DyeSignature, p.ID)
			if qerr != nil {
				return nil, scr, qerr
			}
			return nil, scr, &DuplicateError{Existing: dup}
		}
		return nil, scr, err
	}

	if !scr.Passed {
		s.notifyAsync(discord.Embed{
			Title:       "Preset flagged on edit",
			Description: p.Name,
			Color:       0xED4245,
			Fields: []discord.EmbedField{
				{Name: "Reason", Value: scr.Reason, Inline: true},
				{Name: "Preset", Value: p.ID, Inline: true},
			},
		})
	}

	// Reload so serializer columns reflect what was actually stored.
	updated, err := s.GetByID(ctx, p.ID)
	return updated, scr, err
}

// Delete removes a preset and its votes as one atomic unit; a crash between
// the two statements can never leave orphaned votes.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.PresetModel
		if err := tx.First(&p, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := tx.Where("preset_id = ?", id).Delete(&models.VoteModel{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.PresetModel{}, "id = ?", id).Error
	})
}

// AddVote registers a vote. The insert is a no-op on conflict rather than a
// read-then-write check, which closes the race where two concurrent requests
// from the same user both believe "not yet voted". Zero rows affected means
// already voted: the count is returned unchanged.
func (s *Service) AddVote(ctx context.Context, presetID, userID string) (count int, added bool, err error) {
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.PresetModel
		if err := tx.First(&p, "id = ?", presetID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		res := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.VoteModel{PresetID: presetID, UserID: userID})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			count, added = p.VoteCount, false
			return nil
		}

		if err := tx.Model(&models.PresetModel{}).Where("id = ?", presetID).
			UpdateColumn("vote_count", gorm.Expr("vote_count + 1")).Error; err != nil {
			return err
		}
		added = true
		return tx.Model(&models.PresetModel{}).Select("vote_count").
			Where("id = ?", presetID).Scan(&count).Error
	})
	return count, added, err
}

// RemoveVote is the inverse: a delete that reports rows affected. Zero means
// nothing to remove; the decrement is floored at zero so the count can never
// go negative.
func (s *Service) RemoveVote(ctx context.Context, presetID, userID string) (count int, removed bool, err error) {
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.PresetModel
		if err := tx.First(&p, "id = ?", presetID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		res := tx.Where("preset_id = ? AND user_id = ?", presetID, userID).
			Delete(&models.VoteModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			count, removed = p.VoteCount, false
			return nil
		}

		if err := tx.Model(&models.PresetModel{}).
			Where("id = ? AND vote_count > 0", presetID).
			UpdateColumn("vote_count", gorm.Expr("vote_count - 1")).Error; err != nil {
			return err
		}
		removed = true
		return tx.Model(&models.PresetModel{}).Select("vote_count").
			Where("id = ?", presetID).Scan(&count).Error
	})
	return count, removed, err
}

// HasVoted reports whether the user has voted for the preset.
func (s *Service) HasVoted(ctx context.Context, presetID, userID string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.VoteModel{}).
		Where("preset_id = ? AND user_id = ?", presetID, userID).
		Count(&n).Error
	return n > 0, err
}

// RefreshDisplayName updates the stored author name on all of the caller's
// presets and returns how many rows changed.
func (s *Service) RefreshDisplayName(ctx context.Context, userID, displayName string) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.PresetModel{}).
		Where("author_id = ?", userID).
		Update("author_name", displayName)
	return res.RowsAffected, res.Error
}

func (s *Service) notifyAsync(embed discord.Embed) {
	if !s.notifier.Enabled() {
		return
	}
	go s.notifier.Send(embed)
}
