package domain

// Tone is the register a feedback message is written in.
type Tone string

const (
	TonePositive      Tone = "positive"
	ToneNeutral       Tone = "neutral"
	ToneInformative   Tone = "informative"
	ToneCompassionate Tone = "compassionate"
	ToneConcerned     Tone = "concerned"
	ToneCelebratory   Tone = "celebratory"
)

// Food is a logged item with the nutrient facts the feedback generator reads.
type Food struct {
	Name           string   `json:"name"`
	Calories       int      `json:"calories"`
	ProteinG       float64  `json:"proteinG"`
	CarbsG         float64  `json:"carbsG"`
	FatG           float64  `json:"fatG"`
	FiberG         float64  `json:"fiberG"`
	Micronutrients []string `json:"micronutrients,omitempty"`
	Tags           []string `json:"tags,omitempty"`
}

// FoodFeedback is the display text for a single food.
type FoodFeedback struct {
	Message string   `json:"message"`
	Tone    Tone     `json:"tone"`
	Facts   []string `json:"facts,omitempty"`
}

// Feedback is the end-of-day message for calories versus target.
type Feedback struct {
	Message         string  `json:"message"`
	Tone            Tone    `json:"tone"`
	DeviationPct    float64 `json:"deviationPct"`
	EducationalNote string  `json:"educationalNote,omitempty"`
	Question        string  `json:"question,omitempty"`
	FlagForReview   bool    `json:"flagForReview"`
}

// Streak summarises logging consistency.
type Streak struct {
	CurrentStreak     int     `json:"currentStreak"`
	LongestStreak     int     `json:"longestStreak"`
	FreezesRemaining  int     `json:"freezesRemaining"`
	WeeklyConsistency float64 `json:"weeklyConsistency"`
	Message           string  `json:"message"`
}
