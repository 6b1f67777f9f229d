package scheduler

import (
	"math"
	"testing"
	"time"

	"github.com/scrypster/recall/pkg/types"
)

func newCardState() types.MemoryState {
	return types.NewMemoryState(time.Now().UTC())
}

func reviewedState(stability, difficulty float64, reps, lapses int, daysAgo float64) types.MemoryState {
	last := time.Now().UTC().Add(-time.Duration(daysAgo*24) * time.Hour)
	return types.MemoryState{
		Stability:   stability,
		Difficulty:  difficulty,
		Repetitions: reps,
		Lapses:      lapses,
		LastReview:  &last,
		NextReview:  last,
	}
}

func TestSchedule_FirstReviewGood(t *testing.T) {
	now := time.Now().UTC()
	next := Schedule(newCardState(), types.RatingGood, now)

	if next.Stability <= 0 {
		t.Errorf("First review should initialize stability, got %f", next.Stability)
	}
	if next.Difficulty < 1.0 || next.Difficulty > 10.0 {
		t.Errorf("Difficulty out of range: %f", next.Difficulty)
	}
	if next.Repetitions != 1 {
		t.Errorf("Repetitions should be 1, got %d", next.Repetitions)
	}
	if next.Lapses != 0 {
		t.Errorf("Good first review should not create a lapse, got %d", next.Lapses)
	}
	if !next.NextReview.After(now) {
		t.Errorf("NextReview %v should be after now %v", next.NextReview, now)
	}
}

func TestSchedule_FirstReviewAgainCreatesLapse(t *testing.T) {
	next := Schedule(newCardState(), types.RatingAgain, time.Now().UTC())

	if next.Repetitions != 1 {
		t.Errorf("Repetitions should be 1, got %d", next.Repetitions)
	}
	if next.Lapses != 1 {
		t.Errorf("Again on first exposure should record a lapse, got %d", next.Lapses)
	}
}

func TestSchedule_InitialStabilityTable(t *testing.T) {
	p := DefaultParameters()
	for rating := types.RatingAgain; rating <= types.RatingEasy; rating++ {
		next := Schedule(newCardState(), rating, time.Now().UTC())
		if math.Abs(next.Stability-p.W[int(rating)]) > 1e-9 {
			t.Errorf("Rating %v: initial stability = %f, want %f", rating, next.Stability, p.W[int(rating)])
		}
	}
}

func TestSchedule_IntervalBounds(t *testing.T) {
	now := time.Now().UTC()
	p := DefaultParameters()

	states := []types.MemoryState{
		newCardState(),
		reviewedState(5.0, 5.0, 2, 0, 5),
		reviewedState(3000.0, 1.0, 50, 0, 3000),
	}
	for _, state := range states {
		for rating := types.RatingAgain; rating <= types.RatingEasy; rating++ {
			next := ScheduleWithParams(state, rating, now, p)
			if next.IntervalDays < 1 || next.IntervalDays > p.MaximumInterval {
				t.Errorf("Interval %d out of [1, %d]", next.IntervalDays, p.MaximumInterval)
			}
			if !next.NextReview.After(now) {
				t.Errorf("NextReview %v not after now", next.NextReview)
			}
		}
	}
}

func TestSchedule_StabilityOrderingByRating(t *testing.T) {
	now := time.Now().UTC()
	state := reviewedState(5.0, 5.0, 2, 0, 5)

	hard := Schedule(state, types.RatingHard, now)
	good := Schedule(state, types.RatingGood, now)
	easy := Schedule(state, types.RatingEasy, now)

	if !(easy.Stability >= good.Stability && good.Stability >= hard.Stability) {
		t.Errorf("Stability ordering violated: easy=%f good=%f hard=%f",
			easy.Stability, good.Stability, hard.Stability)
	}
}

func TestSchedule_AgainReducesStability(t *testing.T) {
	now := time.Now().UTC()
	state := reviewedState(30.0, 5.0, 5, 0, 30)

	next := Schedule(state, types.RatingAgain, now)

	if next.Stability >= state.Stability {
		t.Errorf("Again should reduce stability: %f -> %f", state.Stability, next.Stability)
	}
	if next.IntervalDays >= 30 {
		t.Errorf("Again should schedule a shorter interval than the prior 30d, got %d", next.IntervalDays)
	}
	if next.Lapses != 1 {
		t.Errorf("Lapses should increment to 1, got %d", next.Lapses)
	}
}

func TestSchedule_DifficultyBounded(t *testing.T) {
	now := time.Now().UTC()

	// 20 consecutive Easy ratings must not push difficulty below 1.
	state := Schedule(newCardState(), types.RatingEasy, now)
	for i := 0; i < 20; i++ {
		state = Schedule(state, types.RatingEasy, now.AddDate(0, 0, i+1))
		if state.Difficulty < 1.0 {
			t.Fatalf("Difficulty fell below 1 after %d Easy ratings: %f", i+1, state.Difficulty)
		}
	}

	// 20 consecutive Again ratings must not push difficulty above 10.
	state = Schedule(newCardState(), types.RatingAgain, now)
	for i := 0; i < 20; i++ {
		state = Schedule(state, types.RatingAgain, now.AddDate(0, 0, i+1))
		if state.Difficulty > 10.0 {
			t.Fatalf("Difficulty exceeded 10 after %d Again ratings: %f", i+1, state.Difficulty)
		}
	}
}

func TestRetrievability_DecreasesOverTime(t *testing.T) {
	p := DefaultParameters()
	stability := 10.0

	r1 := p.Retrievability(1.0, stability)
	r5 := p.Retrievability(5.0, stability)
	r10 := p.Retrievability(10.0, stability)

	if !(r1 > r5 && r5 > r10) {
		t.Errorf("Retrievability should strictly decrease: r1=%f r5=%f r10=%f", r1, r5, r10)
	}
	// At elapsed == stability, retrievability sits at the 90% target.
	if math.Abs(r10-0.9) > 0.05 {
		t.Errorf("Retrievability at stability should be ~0.9, got %f", r10)
	}
}

func TestRetrievability_ZeroStability(t *testing.T) {
	p := DefaultParameters()
	if r := p.Retrievability(1.0, 0.0); r != 0.0 {
		t.Errorf("Zero stability should give zero retrievability, got %f", r)
	}
}

func TestSchedule_ClampsOutOfRangeDifficulty(t *testing.T) {
	now := time.Now().UTC()
	state := reviewedState(5.0, 42.0, 2, 0, 5)

	next := Schedule(state, types.RatingGood, now)

	if next.Difficulty < 1.0 || next.Difficulty > 10.0 {
		t.Errorf("Difficulty should be clamped into [1,10], got %f", next.Difficulty)
	}
}

func TestLegacyEaseFactor(t *testing.T) {
	cases := []struct {
		difficulty float64
		want       float64
	}{
		{1.0, 2.5},
		{10.0, 1.3}, // 2.5 - 9*0.17 = 0.97, clamps to 1.3
		{5.0, 2.5 - 4.0*0.17},
	}
	for _, tc := range cases {
		got := LegacyEaseFactor(tc.difficulty)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("LegacyEaseFactor(%f) = %f, want %f", tc.difficulty, got, tc.want)
		}
	}
	if got := LegacyEaseFactor(5.0); got < 1.3 || got > 3.0 {
		t.Errorf("LegacyEaseFactor out of [1.3, 3.0]: %f", got)
	}
}

func TestSchedule_EasyLongerIntervalThanGood(t *testing.T) {
	now := time.Now().UTC()
	state := reviewedState(6.0, 5.0, 2, 0, 6)

	easy := Schedule(state, types.RatingEasy, now)
	good := Schedule(state, types.RatingGood, now)

	if easy.IntervalDays < good.IntervalDays {
		t.Errorf("Easy interval %d should be >= Good interval %d", easy.IntervalDays, good.IntervalDays)
	}
}
