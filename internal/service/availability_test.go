package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixtrack/fixtrack-api/internal/dto"
	"github.com/fixtrack/fixtrack-api/internal/models"
	appErrors "github.com/fixtrack/fixtrack-api/pkg/errors"
)

func TestNormalizeSlots(t *testing.T) {
	slots, err := NormalizeSlots([]dto.AvailabilitySlotInput{
		{Type: models.SlotSpecific, Date: "2026-09-12", TimeFrom: "09:00", TimeTo: "11:30"},
		{Type: models.SlotWeekend, TimeFrom: "10:00"},
		{Type: "WEEKDAY", TimeFrom: "8:15", TimeTo: "17:00"},
	})
	require.NoError(t, err)
	require.Len(t, slots, 3)

	assert.Equal(t, models.SlotSpecific, slots[0].Type)
	assert.Equal(t, "2026-09-12", slots[0].Date)

	// time_to defaults to time_from
	assert.Equal(t, "10:00", slots[1].TimeTo)

	// type is case-insensitive
	assert.Equal(t, models.SlotWeekday, slots[2].Type)
}

func TestNormalizeSlotsLegacyDatetime(t *testing.T) {
	cases := []string{
		"2026-09-12T14:30",
		"2026-09-12 14:30",
		"2026-09-12T14:30:00Z",
	}
	for _, raw := range cases {
		slots, err := NormalizeSlots([]dto.AvailabilitySlotInput{{Legacy: raw}})
		require.NoError(t, err, raw)
		require.Len(t, slots, 1)
		assert.Equal(t, models.SlotSpecific, slots[0].Type)
		assert.Equal(t, "2026-09-12", slots[0].Date)
		assert.Equal(t, "14:30", slots[0].TimeFrom)
		assert.Equal(t, slots[0].TimeFrom, slots[0].TimeTo)
	}
}

func TestNormalizeSlotsRejectsMalformed(t *testing.T) {
	cases := []dto.AvailabilitySlotInput{
		{Type: models.SlotSpecific, TimeFrom: "09:00"},                      // missing date
		{Type: models.SlotSpecific, Date: "12/09/2026", TimeFrom: "09:00"}, // wrong date format
		{Type: models.SlotWeekend},                                         // missing time_from
		{Type: models.SlotWeekend, TimeFrom: "25:00"},                      // invalid hour
		{Type: "someday", TimeFrom: "09:00"},                               // unknown type
		{Legacy: "next tuesday"},                                           // unparseable legacy value
	}
	for _, input := range cases {
		_, err := NormalizeSlots([]dto.AvailabilitySlotInput{input})
		assert.True(t, appErrors.Is(err, appErrors.ErrValidation), "%+v", input)
	}
}

func TestNormalizeSlotsAllowsDuplicates(t *testing.T) {
	slot := dto.AvailabilitySlotInput{Type: models.SlotWeekend, TimeFrom: "09:00"}
	slots, err := NormalizeSlots([]dto.AvailabilitySlotInput{slot, slot})
	require.NoError(t, err)
	assert.Len(t, slots, 2)
}
