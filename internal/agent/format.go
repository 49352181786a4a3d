package agent

import (
	"strings"
	"time"

	"github.com/concierge/concierge/internal/models"
)

// Formatter applies tone, language, and time-of-day flourishes to an
// already-merged answer. It runs strictly after synthesis so the merge
// logic stays testable without clock or locale concerns.
type Formatter struct {
	now func() time.Time
}

// NewFormatter creates a formatter using the wall clock
func NewFormatter() *Formatter {
	return &Formatter{now: time.Now}
}

// NewFormatterAt creates a formatter pinned to a fixed clock, for tests
func NewFormatterAt(now func() time.Time) *Formatter {
	return &Formatter{now: now}
}

// Format decorates the merged body with a greeting and register suited to
// the intent and user context
func (f *Formatter) Format(body string, intent models.Intent, userCtx models.UserContext) string {
	var b strings.Builder

	b.WriteString(f.greeting(userCtx))
	b.WriteString("\n\n")
	b.WriteString(body)

	if intent.Urgency == models.UrgencyHigh {
		if userCtx.Language == "id" {
			b.WriteString("\n\nKami prioritaskan permintaan Anda; tim kami akan menindaklanjuti hari ini.")
		} else {
			b.WriteString("\n\nWe are treating this as a priority and will follow up today.")
		}
	}

	if intent.Formality == models.FormalityRespectful {
		if userCtx.Language == "id" {
			b.WriteString("\n\nHormat kami.")
		} else {
			b.WriteString("\n\nWith our respects.")
		}
	}

	return b.String()
}

// Fallback is the safe, domain-agnostic answer used when no provider
// responded
func (f *Formatter) Fallback(userCtx models.UserContext) string {
	if userCtx.Language == "id" {
		return f.greeting(userCtx) + "\n\nMaaf, kami belum bisa menjawab pertanyaan itu secara spesifik saat ini. Tim spesialis kami akan menghubungi Anda dengan jawaban lengkap."
	}
	return f.greeting(userCtx) + "\n\nI can't give you a specific answer on that just yet, but our specialist team will come back to you with the full picture shortly."
}

// greeting picks a time-of-day opener in the user's language
func (f *Formatter) greeting(userCtx models.UserContext) string {
	hour := f.now().Hour()

	if userCtx.Language == "id" {
		switch {
		case hour < 11:
			return "Selamat pagi!"
		case hour < 15:
			return "Selamat siang!"
		case hour < 19:
			return "Selamat sore!"
		default:
			return "Selamat malam!"
		}
	}

	switch {
	case hour < 12:
		return "Good morning!"
	case hour < 18:
		return "Good afternoon!"
	default:
		return "Good evening!"
	}
}
