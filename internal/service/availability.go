package service

import (
	"regexp"
	"strings"
	"time"

	"github.com/fixtrack/fixtrack-api/internal/dto"
	"github.com/fixtrack/fixtrack-api/internal/models"
	appErrors "github.com/fixtrack/fixtrack-api/pkg/errors"
)

var timeOfDayPattern = regexp.MustCompile(`^([01]?\d|2[0-3]):[0-5]\d$`)

// NormalizeSlots converts renter-supplied availability input, including the
// legacy free-form datetime string variant, into the canonical slot union.
// The engine only ever operates on the normalized form.
//
// Rules: specific slots require a date and time_from; weekend and weekday
// slots require only time_from; time_to defaults to time_from (a zero-length
// slot is a point-in-time preference). Duplicates are allowed.
func NormalizeSlots(inputs []dto.AvailabilitySlotInput) (models.AvailabilitySlots, error) {
	slots := make(models.AvailabilitySlots, 0, len(inputs))
	for _, input := range inputs {
		if legacy := strings.TrimSpace(input.Legacy); legacy != "" {
			slot, err := normalizeLegacy(legacy)
			if err != nil {
				return nil, err
			}
			slots = append(slots, slot)
			continue
		}

		slotType := models.SlotType(strings.ToLower(strings.TrimSpace(string(input.Type))))
		timeFrom := strings.TrimSpace(input.TimeFrom)
		timeTo := strings.TrimSpace(input.TimeTo)

		if timeFrom == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "availability slot requires time_from")
		}
		if !timeOfDayPattern.MatchString(timeFrom) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "time_from must be HH:MM")
		}
		if timeTo == "" {
			timeTo = timeFrom
		} else if !timeOfDayPattern.MatchString(timeTo) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "time_to must be HH:MM")
		}

		switch slotType {
		case models.SlotSpecific:
			date := strings.TrimSpace(input.Date)
			if date == "" {
				return nil, appErrors.Clone(appErrors.ErrValidation, "specific slot requires a date")
			}
			if _, err := time.Parse("2006-01-02", date); err != nil {
				return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
			}
			slots = append(slots, models.AvailabilitySlot{Type: models.SlotSpecific, Date: date, TimeFrom: timeFrom, TimeTo: timeTo})
		case models.SlotWeekend, models.SlotWeekday:
			slots = append(slots, models.AvailabilitySlot{Type: slotType, TimeFrom: timeFrom, TimeTo: timeTo})
		default:
			return nil, appErrors.Clone(appErrors.ErrValidation, "availability slot type must be specific, weekend, or weekday")
		}
	}
	return slots, nil
}

// normalizeLegacy parses the historic plain datetime-string form
// ("2024-06-01T09:00" or "2024-06-01 09:00") into a specific slot.
func normalizeLegacy(raw string) (models.AvailabilitySlot, error) {
	candidate := strings.Replace(raw, " ", "T", 1)
	for _, layout := range []string{"2006-01-02T15:04", "2006-01-02T15:04:05", time.RFC3339} {
		if ts, err := time.Parse(layout, candidate); err == nil {
			return models.AvailabilitySlot{
				Type:     models.SlotSpecific,
				Date:     ts.Format("2006-01-02"),
				TimeFrom: ts.Format("15:04"),
				TimeTo:   ts.Format("15:04"),
			}, nil
		}
	}
	return models.AvailabilitySlot{}, appErrors.Clone(appErrors.ErrValidation, "unrecognized availability value: "+raw)
}
