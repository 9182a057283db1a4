// Package dice implements Fate dice (4dF) rolling for the FateX engine.
package dice

import (
	"context"
	"math/rand"
	"sync"
)

// NumDice is the number of Fate dice in a standard check.
const NumDice = 4

// Fate die face symbols.
const (
	FacePlus  = "+"
	FaceMinus = "-"
	FaceBlank = "0"
)

// Face returns the display symbol for a rolled Fate die value.
// Positive values show "+", negative "-", zero "0".
func Face(value int) string {
	if value > 0 {
		return FacePlus
	}
	if value < 0 {
		return FaceMinus
	}
	return FaceBlank
}

// DieResult is one rolled Fate die. Immutable once produced.
type DieResult struct {
	Value int
	Face  string
}

// RollRequest describes a seed-deterministic 4dF roll.
type RollRequest struct {
	Seed int64
}

// RollResult captures an ordered 4dF outcome.
//
// Dice appear in roll order, which is significant for display. RawTotal is
// the arithmetic sum of the die values and always lies in [-4, +4].
type RollResult struct {
	Dice     []DieResult
	RawTotal int
}

// Roll rolls four Fate dice deterministically from the request seed.
//
// Given the same Seed, Roll always produces the same RollResult. Each die is
// uniform over {-1, 0, +1}.
func Roll(request RollRequest) RollResult {
	rng := rand.New(rand.NewSource(request.Seed))

	var values [NumDice]int
	for i := range values {
		values[i] = rng.Intn(3) - 1
	}
	return Results(values)
}

// Results converts raw die values into an ordered RollResult.
func Results(values [NumDice]int) RollResult {
	out := RollResult{Dice: make([]DieResult, 0, NumDice)}
	for _, value := range values {
		out.Dice = append(out.Dice, DieResult{Value: value, Face: Face(value)})
		out.RawTotal += value
	}
	return out
}

// Source produces Fate die values. The host's randomness service implements
// this; tests substitute a deterministic stub.
type Source interface {
	Roll4dF(ctx context.Context) ([NumDice]int, error)
}

// SeededSource is a Source backed by a locally seeded generator. It is safe
// for concurrent use.
type SeededSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeededSource creates a deterministic Source from a seed.
func NewSeededSource(seed int64) *SeededSource {
	return &SeededSource{rng: rand.New(rand.NewSource(seed))}
}

// Roll4dF draws four Fate die values.
func (s *SeededSource) Roll4dF(context.Context) ([NumDice]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var values [NumDice]int
	for i := range values {
		values[i] = s.rng.Intn(3) - 1
	}
	return values, nil
}
