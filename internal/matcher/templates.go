package matcher

import (
	"fmt"
	"math/rand"
	"strings"
)

// Picker returns an index in [0, n).
type Picker func(n int) int

// Templates holds the message texts of a bot variant. It is a plain value and
// never mutated after construction.
type Templates struct {
	Jokes             []string
	Rejections        []string
	HowItWorks        []string
	ExtraRequirements []string
}

var defaultJokes = []string{
	"Your code survived 3 rounds of load shedding ⚡",
	"Approved by 9/10 street cows of Kathmandu 🐄",
	"Contains pure momo energy - handle with care! 🥟",
}

var defaultRejections = []string{
	"Account younger than Nepal's average power cut ⏳",
	"Come back after your account survives TIA WiFi ☕",
	"Age requirement: Survived 5+ internet shutdowns",
}

// ScheduledTemplates are the short texts used by the scheduled job.
func ScheduledTemplates() Templates {
	return Templates{
		Jokes:      defaultJokes,
		Rejections: defaultRejections,
		HowItWorks: []string{
			"Results in 3-5 days",
			"Lose code = match with AutoMod",
			"Valid during outages",
		},
	}
}

// ImmediateTemplates are the longer texts used when answering right after
// sign-up.
func ImmediateTemplates() Templates {
	return Templates{
		Jokes:      defaultJokes,
		Rejections: defaultRejections,
		HowItWorks: []string{
			"Results in 3-5 days (need to consult Bagmati River dolphins 🐬)",
			"Lose code = match with r/Nepal AutoModerator",
			"Valid during strikes, protests, and NTC outages",
		},
		ExtraRequirements: []string{
			"Minimum 1 meme posted (optional but encouraged)",
		},
	}
}

func (t Templates) Acceptance(code string, pick Picker) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎉 Your Match Code: %s\n\n🔮 How this works:\n", code)
	for i, step := range t.HowItWorks {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}
	if joke := choose(t.Jokes, pick); joke != "" {
		b.WriteString("\n" + joke)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (t Templates) Rejection(minAgeDays int, pick Picker) string {
	var b strings.Builder
	b.WriteString("🚨 Disqualified!\n\n")
	if reason := choose(t.Rejections, pick); reason != "" {
		b.WriteString(reason + "\n\n")
	}
	fmt.Fprintf(&b, "Requirements:\n- Account age ≥ %d days", minAgeDays)
	for _, r := range t.ExtraRequirements {
		b.WriteString("\n- " + r)
	}
	return b.String()
}

func choose(pool []string, pick Picker) string {
	if len(pool) == 0 {
		return ""
	}
	if pick == nil {
		pick = rand.Intn
	}
	return pool[pick(len(pool))]
}
