package service

import (
	"regexp"
	"strings"
	"time"

	"github.com/noah-isme/datecheck-bot/internal/models"
	appErrors "github.com/noah-isme/datecheck-bot/pkg/errors"
)

var datePattern = regexp.MustCompile(`^\d{2}\.\d{2}\.\d{4}$`)

// ParseDate validates user input as DD.MM.YYYY and returns the normalised date.
// The shape check rejects wrong separators and digit counts; the calendar parse
// then rejects days that do not exist, such as 31.02.2025 or 00.01.2025.
func ParseDate(raw string) (models.Date, error) {
	text := strings.TrimSpace(raw)
	if !datePattern.MatchString(text) {
		return models.Date{}, appErrors.ErrInvalidDateFormat
	}

	parsed, err := time.Parse(models.DateLayout, text)
	if err != nil {
		return models.Date{}, appErrors.WrapAs(err, appErrors.ErrInvalidDateFormat, "")
	}
	// Year 0000 parses in Go but is not a calendar year.
	if parsed.Year() < 1 {
		return models.Date{}, appErrors.ErrInvalidDateFormat
	}

	return models.NewDate(parsed), nil
}
