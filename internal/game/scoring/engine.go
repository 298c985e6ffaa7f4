package scoring

import (
	"math"
	"sort"

	"github.com/triviarena/backend/internal/db/model"
)

// Config holds the scoring constants per difficulty level.
type Config struct {
	BaseEasy     int // default: 100
	BaseMedium   int // default: 200
	BaseHard     int // default: 300
	MaxTimeBonus int // default: 100
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		BaseEasy:     100,
		BaseMedium:   200,
		BaseHard:     300,
		MaxTimeBonus: 100,
	}
}

// Engine computes server-side scores with configurable constants.
type Engine struct {
	config Config
}

// NewEngine creates a scoring engine with the provided config.
func NewEngine(config Config) *Engine {
	return &Engine{config: config}
}

// Points computes points for a single correct answer.
// Formula: base(difficulty) + time bonus, where the time bonus decays
// linearly from MaxTimeBonus at instant answers to 0 at timeout, rounded
// half away from zero. Incorrect answers score 0; callers gate on
// correctness before calling.
func (e *Engine) Points(difficulty string, timeRemaining, timeLimit float64) int {
	base := e.config.BaseEasy
	switch difficulty {
	case model.DifficultyMedium:
		base = e.config.BaseMedium
	case model.DifficultyHard:
		base = e.config.BaseHard
	}

	bonus := 0.0
	if timeLimit > 0 {
		ratio := timeRemaining / timeLimit
		if ratio > 1.0 {
			ratio = 1.0
		}
		if ratio < 0.0 {
			ratio = 0.0
		}
		bonus = float64(e.config.MaxTimeBonus) * ratio
	}

	return int(math.Round(float64(base) + bonus))
}

// ValidateAnswer reports whether the submitted answer ids exactly match the
// correct set. Order does not matter; cardinality does, so a multi-correct
// question is only right when every correct option is selected and nothing
// else.
func ValidateAnswer(submitted, correct []string) bool {
	if len(submitted) != len(correct) {
		return false
	}

	s := make([]string, len(submitted))
	copy(s, submitted)
	c := make([]string, len(correct))
	copy(c, correct)
	sort.Strings(s)
	sort.Strings(c)

	for i := range s {
		if s[i] != c[i] {
			return false
		}
	}
	return true
}
