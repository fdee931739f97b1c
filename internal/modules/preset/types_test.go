package preset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateDTOValidation(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*CreatePresetDTO)
		wantErr string
	}{
		{"valid", func(d *CreatePresetDTO) {}, ""},
		{"name too short", func(d *CreatePresetDTO) { d.Name = "x" }, "name must be 2-50 characters"},
		{"name too long", func(d *CreatePresetDTO) { d.Name = strings.Repeat("a", 51) }, "name must be 2-50 characters"},
		{"name whitespace only", func(d *CreatePresetDTO) { d.Name = "   " }, "name must be 2-50 characters"},
		{"description too short", func(d *CreatePresetDTO) { d.Description = "short" }, "description must be 10-200 characters"},
		{"description too long", func(d *CreatePresetDTO) { d.Description = strings.Repeat("a", 201) }, "description must be 10-200 characters"},
		{"missing category", func(d *CreatePresetDTO) { d.CategoryID = " " }, "category_id is required"},
		{"one dye", func(d *CreatePresetDTO) { d.Dyes = []int{5} }, "dyes must contain 2-5 entries"},
		{"six dyes", func(d *CreatePresetDTO) { d.Dyes = []int{1, 2, 3, 4, 5, 6} }, "dyes must contain 2-5 entries"},
		{"non-positive dye id", func(d *CreatePresetDTO) { d.Dyes = []int{1, 0} }, "dye ids must be positive integers"},
		{"too many tags", func(d *CreatePresetDTO) {
			d.Tags = make([]string, 11)
			for i := range d.Tags {
				d.Tags[i] = "t"
			}
		}, "at most 10 tags allowed"},
		{"tag too long", func(d *CreatePresetDTO) { d.Tags = []string{strings.Repeat("a", 31)} }, "tags must be at most 30 characters"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dto := validDTO()
			tc.mutate(dto)
			err := dto.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var vErr ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tc.wantErr, vErr.Error())
		})
	}
}

func TestCreateDTOTrimsAndDropsEmptyTags(t *testing.T) {
	dto := validDTO()
	dto.Name = "  Sunset Glam  "
	dto.Tags = []string{" warm ", "", "  "}

	require.NoError(t, dto.Validate())
	assert.Equal(t, "Sunset Glam", dto.Name)
	assert.Equal(t, []string{"warm"}, dto.Tags)
}

func TestUpdateDTORequiresAField(t *testing.T) {
	err := (&UpdatePresetDTO{}).Validate()
	var vErr ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestUpdateDTOValidatesSuppliedFields(t *testing.T) {
	bad := "x"
	err := (&UpdatePresetDTO{Name: &bad}).Validate()
	var vErr ValidationError
	require.ErrorAs(t, err, &vErr)

	good := "Renamed"
	assert.NoError(t, (&UpdatePresetDTO{Name: &good}).Validate())
}
