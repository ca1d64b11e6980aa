package app

import (
	"fmt"
	"math/rand/v2"
	"slices"
)

// Notification kinds.
const (
	NotifyReminder      = "reminder"
	NotifyStreak        = "streak"
	NotifyEncouragement = "encouragement"
)

var notificationTexts = map[string][]string{
	NotifyReminder: {
		"Got a minute? Log your last meal while it is fresh.",
		"Quick check-in: what did you have for lunch?",
		"A few taps now keeps today's picture complete.",
	},
	NotifyStreak: {
		"Your streak is still going. Log today to keep it alive!",
		"Another day, another entry. Keep the streak rolling!",
		"Consistency is paying off. Add today's meals to your streak.",
	},
	NotifyEncouragement: {
		"Progress is rarely a straight line. You are doing great.",
		"Every meal you log teaches you something about your habits.",
		"Small steps add up. Be proud of showing up today.",
	},
}

// Chooser picks an index in [0, n).
type Chooser interface {
	IntN(n int) int
}

type randChooser struct{}

func (randChooser) IntN(n int) int { return rand.IntN(n) }

// NotificationPicker selects notification text variants.
type NotificationPicker struct {
	choose Chooser
}

// NewNotificationPicker creates a picker. A nil chooser uses math/rand.
func NewNotificationPicker(c Chooser) *NotificationPicker {
	if c == nil {
		c = randChooser{}
	}
	return &NotificationPicker{choose: c}
}

// Candidates returns every variant for kind.
func (p *NotificationPicker) Candidates(kind string) []string {
	return slices.Clone(notificationTexts[kind])
}

// Pick returns one variant for kind.
func (p *NotificationPicker) Pick(kind string) (string, error) {
	texts := notificationTexts[kind]
	if len(texts) == 0 {
		return "", fmt.Errorf("unknown notification kind %q", kind)
	}
	return texts[p.choose.IntN(len(texts))], nil
}
