package graph

import (
	"errors"
	"math"
)

// ErrOverflow is returned when a weight operation would overflow int64.
// Unlike a missing-vertex error this is a legitimate computed outcome: an
// attacker-controlled program can drive difference-bound constraints past the
// representable range, and the domain logic is expected to catch this and
// fall back to a conservative result instead of crashing the run.
var ErrOverflow = errors.New("arithmetic overflow")

// Weight is an edge weight encoding a difference-bound constraint. All
// arithmetic is overflow-checked; a silently wrapped weight would corrupt
// the soundness of the safety proof built on top of it.
type Weight int64

// Add returns w + o, or ErrOverflow.
func (w Weight) Add(o Weight) (Weight, error) {
	r := w + o
	if (o > 0 && r < w) || (o < 0 && r > w) {
		return 0, ErrOverflow
	}
	return r, nil
}

// Sub returns w - o, or ErrOverflow.
func (w Weight) Sub(o Weight) (Weight, error) {
	r := w - o
	if (o < 0 && r < w) || (o > 0 && r > w) {
		return 0, ErrOverflow
	}
	return r, nil
}

// Neg returns -w, or ErrOverflow for the minimum value.
func (w Weight) Neg() (Weight, error) {
	if w == math.MinInt64 {
		return 0, ErrOverflow
	}
	return -w, nil
}

func minWeight(a, b Weight) Weight {
	if a < b {
		return a
	}
	return b
}
