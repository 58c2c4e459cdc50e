package substitute

// Default scoring weights and daily cap. The values moved around over time, so they
// are exposed through Config rather than treated as fixed.
const (
	DefaultDailyCap             = 4
	DefaultSubjectBonus         = 2.0
	DefaultLevelMatchBonus      = 5.0
	DefaultLevelMismatchPenalty = 2.0
	DefaultDailyLoadWeight      = 2.0
	DefaultHistoryWeight        = 1.0
	DefaultTermLoadWeight       = 0.5
	DefaultLastResortPenalty    = 50.0
)

// Weights are the soft-constraint terms of the scorer. Penalties are positive numbers
// that get subtracted.
type Weights struct {
	SubjectBonus         float64
	LevelMatchBonus      float64
	LevelMismatchPenalty float64
	DailyLoad            float64
	History              float64
	TermLoad             float64
	LastResortPenalty    float64
}

// Config governs engine behaviour.
type Config struct {
	// DailyCap is the hard ceiling on periods (regular + substitute) per teacher per day.
	// Zero or negative disables the cap.
	DailyCap           int
	Weights            Weights
	LastResortTeachers []string
}

// DefaultWeights returns the weights used in production.
func DefaultWeights() Weights {
	return Weights{
		SubjectBonus:         DefaultSubjectBonus,
		LevelMatchBonus:      DefaultLevelMatchBonus,
		LevelMismatchPenalty: DefaultLevelMismatchPenalty,
		DailyLoad:            DefaultDailyLoadWeight,
		History:              DefaultHistoryWeight,
		TermLoad:             DefaultTermLoadWeight,
		LastResortPenalty:    DefaultLastResortPenalty,
	}
}

// DefaultConfig returns the default cap and weights with no last-resort teachers.
func DefaultConfig() Config {
	return Config{
		DailyCap: DefaultDailyCap,
		Weights:  DefaultWeights(),
	}
}
