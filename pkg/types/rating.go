package types

// Rating grades a recall attempt, ordered by recall quality.
// The numeric values index into the scheduler's initial-stability table.
type Rating int

const (
	RatingAgain Rating = 0 // Complete blackout
	RatingHard  Rating = 1 // Struggled but recalled
	RatingGood  Rating = 2 // Correct with effort
	RatingEasy  Rating = 3 // Effortless recall
)

// String returns the wire representation used in client messages and
// provider responses ("again", "hard", "good", "easy").
func (r Rating) String() string {
	switch r {
	case RatingAgain:
		return "again"
	case RatingHard:
		return "hard"
	case RatingGood:
		return "good"
	case RatingEasy:
		return "easy"
	default:
		return "good"
	}
}

// ParseRating maps a wire string to a Rating. Unrecognized values map to
// RatingGood; this is the documented fallback, not an error.
func ParseRating(s string) Rating {
	switch s {
	case "again":
		return RatingAgain
	case "hard":
		return RatingHard
	case "good":
		return RatingGood
	case "easy":
		return RatingEasy
	default:
		return RatingGood
	}
}

// RatingFromInt converts a stored numeric rating back to a Rating.
// Out-of-range values map to RatingGood.
func RatingFromInt(v int) Rating {
	if v < int(RatingAgain) || v > int(RatingEasy) {
		return RatingGood
	}
	return Rating(v)
}
