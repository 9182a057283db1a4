// Package item models the rollable sheet items of the FateX system.
//
// Attributes, skills, and resources share one resolution contract: a named
// rank on the ladder. The closed Kind set replaces per-type dispatch; every
// kind rolls through the same orchestrator.
package item

import (
	"strings"

	apperrors "github.com/fatexengine/fatex/internal/errors"
)

// Kind describes the kind of rollable item on a sheet.
type Kind int

const (
	// KindUnspecified represents an invalid item kind value.
	KindUnspecified Kind = iota
	// KindAttribute is an innate trait.
	KindAttribute
	// KindSkill is a trained competence.
	KindSkill
	// KindResource is an expendable asset.
	KindResource
)

func (k Kind) String() string {
	switch k {
	case KindAttribute:
		return "attribute"
	case KindSkill:
		return "skill"
	case KindResource:
		return "resource"
	default:
		return "unspecified"
	}
}

// ParseKind resolves a kind from its wire name.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "attribute":
		return KindAttribute, nil
	case "skill":
		return KindSkill, nil
	case "resource":
		return KindResource, nil
	default:
		return KindUnspecified, apperrors.WithMetadata(
			apperrors.CodeItemInvalidKind,
			"unknown item kind "+name,
			map[string]string{"Kind": name},
		)
	}
}

// Rank bounds for sheet items.
const (
	MinRank = -9
	MaxRank = 9
)

// Rollable is a sheet item that contributes a rank to a roll.
type Rollable struct {
	Kind Kind
	Name string
	Rank int
}

// New validates and builds a Rollable. Ranks outside [MinRank, MaxRank]
// saturate to the nearest bound.
func New(kind Kind, name string, rank int) (Rollable, error) {
	if kind == KindUnspecified {
		return Rollable{}, apperrors.New(apperrors.CodeItemInvalidKind, "item kind is required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Rollable{}, apperrors.New(apperrors.CodeItemNameEmpty, "item name is required")
	}
	return Rollable{Kind: kind, Name: name, Rank: clampRank(rank)}, nil
}

// IncrementRank returns a copy with the rank stepped up, saturating at MaxRank.
func (r Rollable) IncrementRank() Rollable {
	r.Rank = clampRank(r.Rank + 1)
	return r
}

// DecrementRank returns a copy with the rank stepped down, saturating at MinRank.
func (r Rollable) DecrementRank() Rollable {
	r.Rank = clampRank(r.Rank - 1)
	return r
}

// IsNegative reports whether the rank sits below zero.
func (r Rollable) IsNegative() bool { return r.Rank < 0 }

// IsPositive reports whether the rank sits at or above zero.
func (r Rollable) IsPositive() bool { return r.Rank >= 0 }

// IsNeutral reports whether the rank is exactly zero.
func (r Rollable) IsNeutral() bool { return r.Rank == 0 }

// AvailableRanks lists the rank choices offered by sheet pickers.
func AvailableRanks() []int {
	ranks := make([]int, 0, 10)
	for rank := 0; rank <= 9; rank++ {
		ranks = append(ranks, rank)
	}
	return ranks
}

func clampRank(rank int) int {
	if rank > MaxRank {
		return MaxRank
	}
	if rank < MinRank {
		return MinRank
	}
	return rank
}
