package preset

import (
	"fmt"
	"strings"

	"github.com/FlashGalatine/xivdyetools-api/internal/models"
	"github.com/FlashGalatine/xivdyetools-api/internal/pkg/screening"
)

const (
	nameMinLen = 2
	nameMaxLen = 50
	descMinLen = 10
	descMaxLen = 200
	dyesMin    = 2
	dyesMax    = 5
	tagsMax    = 10
	tagMaxLen  = 30
)

// ValidationError marks malformed or out-of-range input. Handlers surface the
// message verbatim with a 400.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

// DuplicateError reports that a dye combination already exists. Existing may
// be nil when the conflicting row is not publicly visible (flagged/rejected).
type DuplicateError struct {
	Existing *models.PresetModel
}

func (e *DuplicateError) Error() string {
	if e.Existing != nil {
		return fmt.Sprintf("dye combination already exists as preset %s", e.Existing.ID)
	}
	return "dye combination already exists"
}

// CreatePresetDTO is the submission payload.
type CreatePresetDTO struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	CategoryID  string   `json:"category_id"`
	Dyes        []int    `json:"dyes"`
	Tags        []string `json:"tags"`
}

func (d *CreatePresetDTO) Validate() error {
	d.Name = strings.TrimSpace(d.Name)
	d.Description = strings.TrimSpace(d.Description)
	d.CategoryID = strings.TrimSpace(d.CategoryID)

	if err := validateName(d.Name); err != nil {
		return err
	}
	if err := validateDescription(d.Description); err != nil {
		return err
	}
	if d.CategoryID == "" {
		return ValidationError("category_id is required")
	}
	if err := validateDyes(d.Dyes); err != nil {
		return err
	}
	tags, err := validateTags(d.Tags)
	if err != nil {
		return err
	}
	d.Tags = tags
	return nil
}

// UpdatePresetDTO is the edit payload; at least one field must be supplied.
type UpdatePresetDTO struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Dyes        *[]int    `json:"dyes"`
	Tags        *[]string `json:"tags"`
}

func (d *UpdatePresetDTO) Validate() error {
	if d.Name == nil && d.Description == nil && d.Dyes == nil && d.Tags == nil {
		return ValidationError("at least one of name, description, dyes, tags must be supplied")
	}
	if d.Name != nil {
		*d.Name = strings.TrimSpace(*d.Name)
		if err := validateName(*d.Name); err != nil {
			return err
		}
	}
	if d.Description != nil {
		*d.Description = strings.TrimSpace(*d.Description)
		if err := validateDescription(*d.Description); err != nil {
			return err
		}
	}
	if d.Dyes != nil {
		if err := validateDyes(*d.Dyes); err != nil {
			return err
		}
	}
	if d.Tags != nil {
		tags, err := validateTags(*d.Tags)
		if err != nil {
			return err
		}
		*d.Tags = tags
	}
	return nil
}

func validateName(name string) error {
	if n := len([]rune(name)); n < nameMinLen || n > nameMaxLen {
		return ValidationError(fmt.Sprintf("name must be %d-%d characters", nameMinLen, nameMaxLen))
	}
	return nil
}

func validateDescription(desc string) error {
	if n := len([]rune(desc)); n < descMinLen || n > descMaxLen {
		return ValidationError(fmt.Sprintf("description must be %d-%d characters", descMinLen, descMaxLen))
	}
	return nil
}

func validateDyes(dyes []int) error {
	if len(dyes) < dyesMin || len(dyes) > dyesMax {
		return ValidationError(fmt.Sprintf("dyes must contain %d-%d entries", dyesMin, dyesMax))
	}
	for _, id := range dyes {
		if id <= 0 {
			return ValidationError("dye ids must be positive integers")
		}
	}
	return nil
}

func validateTags(tags []string) ([]string, error) {
	if len(tags) > tagsMax {
		return nil, ValidationError(fmt.Sprintf("at most %d tags allowed", tagsMax))
	}
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if len([]rune(tag)) > tagMaxLen {
			return nil, ValidationError(fmt.Sprintf("tags must be at most %d characters", tagMaxLen))
		}
		out = append(out, tag)
	}
	return out, nil
}

// ListQuery holds parsed list filters.
type ListQuery struct {
	CategoryID string
	Search     string
	Status     models.PresetStatus
	Sort       string // popular | recent | name
	Curated    *bool
}

// CreateResult is the outcome of a submission: either a freshly created
// preset, or the existing duplicate with the submitter registered as a voter.
type CreateResult struct {
	Preset    *models.PresetModel `json:"preset"`
	Duplicate bool                `json:"duplicate"`
	VoteAdded bool                `json:"vote_added,omitempty"`
	Screening screening.Result    `json:"screening"`
}
