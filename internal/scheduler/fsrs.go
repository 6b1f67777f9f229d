// Package scheduler implements the FSRS spaced-repetition memory model.
//
// The model tracks two quantities per card: stability (days until recall
// probability drops to the target retention) and difficulty (intrinsic
// hardness, 1-10). Each review maps the current state plus a rating to a new
// state and the next due date. Schedule is a pure function and is safe to
// call from any goroutine.
package scheduler

import (
	"math"
	"time"

	"github.com/scrypster/recall/pkg/types"
)

// Parameters holds the FSRS model weights and scheduling bounds.
type Parameters struct {
	// W holds the model weights. W[0..3] are the initial stabilities for
	// Again..Easy; the rest parameterize the difficulty and stability
	// update formulas.
	W [17]float64

	// Decay is the exponent of the forgetting curve.
	Decay float64

	// Factor scales elapsed time in the forgetting curve.
	Factor float64

	// RequestRetention is the target recall probability at the next review.
	RequestRetention float64

	// MaximumInterval caps the scheduled interval in days.
	MaximumInterval int
}

// DefaultParameters returns the optimized FSRS-4.5 weights.
func DefaultParameters() Parameters {
	return Parameters{
		W: [17]float64{
			0.4,  // initial stability: Again
			0.6,  // initial stability: Hard
			2.4,  // initial stability: Good
			5.8,  // initial stability: Easy
			4.93, // initial difficulty baseline
			0.94, // initial difficulty rating slope
			0.86, // difficulty update slope
			0.01, // difficulty mean reversion
			1.49, // success stability gain
			0.14, // success stability saturation
			0.94, // success retrievability gain
			2.18, // failure stability base
			0.05, // failure difficulty exponent
			0.34, // failure stability exponent
			1.26, // failure retrievability gain
			0.29, // hard penalty
			2.61, // easy bonus
		},
		Decay:            -0.5,
		Factor:           19.0 / 81.0,
		RequestRetention: 0.9,
		MaximumInterval:  36500,
	}
}

// Retrievability returns the modeled probability of successful recall after
// elapsedDays given the card's stability. It is 1.0 at zero elapsed time and
// decays toward zero; at elapsedDays == stability it is the 90% target.
func (p Parameters) Retrievability(elapsedDays, stability float64) float64 {
	if stability <= 0 {
		return 0
	}
	return math.Pow(1.0+p.Factor*elapsedDays/stability, p.Decay)
}

// initDifficulty computes the difficulty implied by a first rating.
func (p Parameters) initDifficulty(rating types.Rating) float64 {
	g := float64(rating)
	return clamp(p.W[4]-(g-3.0)*p.W[5], 1.0, 10.0)
}

// nextDifficulty updates difficulty after a review, mean-reverting toward
// the rating's implied difficulty.
func (p Parameters) nextDifficulty(d float64, rating types.Rating) float64 {
	g := float64(rating)
	dNew := d - p.W[6]*(g-3.0)
	return clamp(p.W[7]*p.initDifficulty(rating)+(1.0-p.W[7])*dNew, 1.0, 10.0)
}

// nextStabilitySuccess computes post-review stability for Hard/Good/Easy.
func (p Parameters) nextStabilitySuccess(d, s, r float64, rating types.Rating) float64 {
	hardPenalty := 1.0
	if rating == types.RatingHard {
		hardPenalty = p.W[15]
	}
	easyBonus := 1.0
	if rating == types.RatingEasy {
		easyBonus = p.W[16]
	}

	sNew := s * (1.0 +
		math.Exp(p.W[8])*
			(11.0-d)*
			math.Pow(s, -p.W[9])*
			(math.Exp((1.0-r)*p.W[10])-1.0)*
			hardPenalty*
			easyBonus)

	return math.Max(sNew, 0.1)
}

// nextStabilityFailure computes post-lapse stability. The result never
// exceeds the pre-review stability.
func (p Parameters) nextStabilityFailure(d, s, r float64) float64 {
	sNew := p.W[11] *
		math.Pow(d, -p.W[12]) *
		(math.Pow(s+1.0, p.W[13]) - 1.0) *
		math.Exp((1.0-r)*p.W[14])

	return clamp(sNew, 0.1, s)
}

// Interval converts a stability into a scheduled interval in days at the
// target retention, clamped to [1, MaximumInterval].
func (p Parameters) Interval(stability float64) int {
	interval := (stability / p.Factor) * (math.Pow(p.RequestRetention, 1.0/p.Decay) - 1.0)
	days := int(math.Round(interval))
	if days < 1 {
		return 1
	}
	if days > p.MaximumInterval {
		return p.MaximumInterval
	}
	return days
}

// Schedule applies a review rating to a card's memory state at the given
// time and returns the new state with the next due date. It never fails;
// out-of-range difficulty on the input is clamped defensively.
func Schedule(state types.MemoryState, rating types.Rating, now time.Time) types.MemoryState {
	return ScheduleWithParams(state, rating, now, DefaultParameters())
}

// ScheduleWithParams is Schedule with explicit model parameters.
func ScheduleWithParams(state types.MemoryState, rating types.Rating, now time.Time, p Parameters) types.MemoryState {
	elapsedDays := 0.0
	if state.LastReview != nil {
		elapsedDays = math.Max(now.Sub(*state.LastReview).Seconds()/86400.0, 0.0)
	}

	var stability, difficulty float64
	var lapses int

	if state.Repetitions == 0 {
		// First exposure: state comes entirely from the rating.
		stability = p.W[int(rating)]
		difficulty = p.initDifficulty(rating)
		lapses = 0
		if rating == types.RatingAgain {
			lapses = 1
		}
	} else {
		d := clamp(state.Difficulty, 1.0, 10.0)
		r := p.Retrievability(elapsedDays, state.Stability)
		difficulty = p.nextDifficulty(d, rating)

		if rating == types.RatingAgain {
			stability = p.nextStabilityFailure(d, state.Stability, r)
			lapses = state.Lapses + 1
		} else {
			stability = p.nextStabilitySuccess(d, state.Stability, r, rating)
			lapses = state.Lapses
		}
	}

	interval := p.Interval(stability)
	reviewedAt := now

	return types.MemoryState{
		Stability:        stability,
		Difficulty:       difficulty,
		Repetitions:      state.Repetitions + 1,
		Lapses:           lapses,
		IntervalDays:     interval,
		LegacyEaseFactor: LegacyEaseFactor(difficulty),
		LastReview:       &reviewedAt,
		NextReview:       now.AddDate(0, 0, interval),
	}
}

// LegacyEaseFactor maps difficulty back to the old SM-2 ease-factor scale
// for consumers that still display it. Informational only.
func LegacyEaseFactor(difficulty float64) float64 {
	return clamp(2.5-(difficulty-1.0)*0.17, 1.3, 3.0)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
