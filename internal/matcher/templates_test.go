package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func first(int) int { return 0 }

func TestTemplates_Acceptance(t *testing.T) {
	msg := ScheduledTemplates().Acceptance("AB12CD34", first)

	expected := "🎉 Your Match Code: AB12CD34\n\n🔮 How this works:\n" +
		"1. Results in 3-5 days\n2. Lose code = match with AutoMod\n3. Valid during outages\n\n" +
		"Your code survived 3 rounds of load shedding ⚡"
	assert.Equal(t, expected, msg)
}

func TestTemplates_Rejection(t *testing.T) {
	t.Run("scheduled", func(t *testing.T) {
		msg := ScheduledTemplates().Rejection(90, first)
		expected := "🚨 Disqualified!\n\nAccount younger than Nepal's average power cut ⏳\n\n" +
			"Requirements:\n- Account age ≥ 90 days"
		assert.Equal(t, expected, msg)
	})

	t.Run("immediate lists the extra requirement", func(t *testing.T) {
		msg := ImmediateTemplates().Rejection(30, first)
		assert.Contains(t, msg, "- Account age ≥ 30 days\n- Minimum 1 meme posted (optional but encouraged)")
	})
}

func TestTemplates_PickerSelectsFromPool(t *testing.T) {
	last := func(n int) int { return n - 1 }
	msg := ImmediateTemplates().Acceptance("X", last)
	assert.Contains(t, msg, "Contains pure momo energy - handle with care! 🥟")
	assert.Contains(t, msg, "Bagmati River dolphins")
}

func TestTemplates_EmptyPools(t *testing.T) {
	msg := Templates{}.Acceptance("X", nil)
	assert.Equal(t, "🎉 Your Match Code: X\n\n🔮 How this works:", msg)
}
