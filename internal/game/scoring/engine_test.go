package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/triviarena/backend/internal/db/model"
)

func TestPointsByDifficulty(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	tests := []struct {
		name          string
		difficulty    string
		timeRemaining float64
		timeLimit     float64
		want          int
	}{
		{"easy instant answer", model.DifficultyEasy, 30, 30, 200},
		{"easy at timeout", model.DifficultyEasy, 0, 30, 100},
		{"medium half time", model.DifficultyMedium, 15, 30, 250},
		{"hard half time", model.DifficultyHard, 15, 30, 350},
		{"hard instant answer", model.DifficultyHard, 30, 30, 400},
		{"unknown difficulty falls back to easy base", "extreme", 0, 30, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, engine.Points(tt.difficulty, tt.timeRemaining, tt.timeLimit))
		})
	}
}

func TestPointsClampsTimeRatio(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	assert.Equal(t, 200, engine.Points(model.DifficultyEasy, 45, 30), "excess time clamps to full bonus")
	assert.Equal(t, 100, engine.Points(model.DifficultyEasy, -3, 30), "negative remaining clamps to zero bonus")
	assert.Equal(t, 100, engine.Points(model.DifficultyEasy, 10, 0), "zero limit yields no bonus")
}

func TestPointsRounding(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	// 10/30 of 100 is 33.33, rounds to 33.
	assert.Equal(t, 133, engine.Points(model.DifficultyEasy, 10, 30))
	// 20/30 of 100 is 66.67, rounds to 67.
	assert.Equal(t, 167, engine.Points(model.DifficultyEasy, 20, 30))
}

func TestValidateAnswer(t *testing.T) {
	tests := []struct {
		name      string
		submitted []string
		correct   []string
		want      bool
	}{
		{"single correct", []string{"a"}, []string{"a"}, true},
		{"single wrong", []string{"b"}, []string{"a"}, false},
		{"multi correct any order", []string{"c", "a"}, []string{"a", "c"}, true},
		{"multi missing one", []string{"a"}, []string{"a", "c"}, false},
		{"multi with extra", []string{"a", "b", "c"}, []string{"a", "c"}, false},
		{"empty submission", nil, []string{"a"}, false},
		{"both empty", nil, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateAnswer(tt.submitted, tt.correct))
		})
	}
}

func TestValidateAnswerDoesNotMutateInputs(t *testing.T) {
	submitted := []string{"c", "a", "b"}
	correct := []string{"b", "c", "a"}

	assert.True(t, ValidateAnswer(submitted, correct))
	assert.Equal(t, []string{"c", "a", "b"}, submitted)
	assert.Equal(t, []string{"b", "c", "a"}, correct)
}
