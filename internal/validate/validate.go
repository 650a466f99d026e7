// Package validate checks and normalizes user-entered booking fields.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"salonbot/internal/models"
)

// Error is a recoverable field validation failure. Message is shown to
// the user as the re-prompt.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(msg string) error { return &Error{Message: msg} }

// Working hours and slot grid.
const (
	OpenHour  = 8
	CloseHour = 20
	GridStep  = 15 // minutes
)

var (
	nameRe  = regexp.MustCompile(`^[\p{L}\s\-.]+$`)
	dateRe  = regexp.MustCompile(`^\d{2}\.\d{2}\.\d{4}$`)
	timeRe  = regexp.MustCompile(`^\d{2}:\d{2}$`)
	digitRe = regexp.MustCompile(`\D`)
)

// Sanitize strips non-printable runes, markup brackets and collapses
// whitespace, truncating to maxLen runes.
func Sanitize(text string, maxLen int) string {
	var b strings.Builder
	for _, r := range text {
		if unicode.IsPrint(r) && r < 10000 {
			b.WriteRune(r)
		}
	}
	s := strings.Join(strings.Fields(b.String()), " ")
	s = strings.ReplaceAll(s, "<", "")
	s = strings.ReplaceAll(s, ">", "")
	runes := []rune(s)
	if len(runes) > maxLen {
		s = string(runes[:maxLen])
	}
	return strings.TrimSpace(s)
}

// FullName validates a client name: 2-100 characters, letters, spaces,
// hyphens and dots only.
func FullName(input string) (string, error) {
	name := Sanitize(input, 100)
	if len([]rune(name)) < 2 {
		return "", newError("ФИО должно содержать минимум 2 символа")
	}
	if !nameRe.MatchString(name) {
		return "", newError("ФИО может содержать только буквы, пробелы, дефисы и точки")
	}
	return name, nil
}

// Phone normalizes a Russian phone number to the canonical
// "+7 (XXX) XXX-XX-XX" form. A leading 8 is treated as the 7 prefix.
func Phone(input string) (string, error) {
	raw := Sanitize(input, 20)
	if raw == "" {
		return "", newError("Номер телефона обязателен")
	}
	digits := digitRe.ReplaceAllString(raw, "")
	if strings.HasPrefix(digits, "8") {
		digits = "7" + digits[1:]
	}
	if !strings.HasPrefix(digits, "7") || len(digits) != 11 {
		return "", newError("Неверный формат номера телефона. Используйте: +7 (999) 123-45-67")
	}
	return fmt.Sprintf("+7 (%s) %s-%s-%s", digits[1:4], digits[4:7], digits[7:9], digits[9:11]), nil
}

// Date validates a DD.MM.YYYY date key: well-formed, not in the past,
// at most a year ahead. now anchors "today".
func Date(input string, now time.Time) (string, error) {
	s := Sanitize(input, 20)
	if !dateRe.MatchString(s) {
		return "", newError("Неверный формат даты. Используйте: ДД.ММ.ГГГГ")
	}
	d, err := time.ParseInLocation(models.DateLayout, s, now.Location())
	if err != nil {
		return "", newError("Неверная дата")
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if d.Before(today) {
		return "", newError("Нельзя записаться на прошедшую дату")
	}
	if d.After(today.AddDate(1, 0, 0)) {
		return "", newError("Нельзя записаться более чем на год вперед")
	}
	return s, nil
}

// Time validates an HH:MM time key on the 15-minute grid within
// working hours (08:00-20:00 inclusive).
func Time(input string) (string, error) {
	s := Sanitize(input, 10)
	if !timeRe.MatchString(s) {
		return "", newError("Неверный формат времени. Используйте: ЧЧ:ММ")
	}
	var hour, minute int
	if _, err := fmt.Sscanf(s, "%d:%d", &hour, &minute); err != nil {
		return "", newError("Неверное время")
	}
	if minute < 0 || minute > 59 || hour < OpenHour || hour > CloseHour || (hour == CloseHour && minute > 0) {
		return "", newError("Время работы: с 8:00 до 20:00")
	}
	if minute%GridStep != 0 {
		return "", newError("Запись возможна каждые 15 минут (00, 15, 30, 45)")
	}
	return s, nil
}

// IsValidationError reports whether err is a field validation failure.
func IsValidationError(err error) bool {
	_, ok := err.(*Error)
	return ok
}
