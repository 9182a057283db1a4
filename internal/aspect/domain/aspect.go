// Package domain models scene aspects and their free invoke boxes.
package domain

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/fatexengine/fatex/internal/errors"
	"github.com/fatexengine/fatex/internal/platform/id"
)

// Box is one checkable free invoke attached to an aspect. Labels are
// 1-based sequence numbers; only the Checked flag mutates after creation.
type Box struct {
	ID      string
	Label   int
	Checked bool
}

// Aspect is a narrative fact about a scene with a fixed set of free invoke
// boxes. The tracker store owns the authoritative copy; published chat
// entries hold only a rendering of it.
type Aspect struct {
	ID          string
	Name        string
	Description string
	Boxes       []Box
}

// CreateAspectInput describes the caller-supplied aspect fields.
type CreateAspectInput struct {
	Name        string
	Description string
}

// NormalizeCreateAspectInput trims and validates aspect input.
func NormalizeCreateAspectInput(input CreateAspectInput) (CreateAspectInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return CreateAspectInput{}, apperrors.New(apperrors.CodeAspectNameEmpty, "aspect name is required")
	}
	input.Description = strings.TrimSpace(input.Description)
	return input, nil
}

// NewAspect builds an aspect with numBoxes unchecked boxes labeled 1..n.
// Every identifier comes from idGenerator; box identifiers must stay unique
// across the whole store, so the generator is never reused per label.
func NewAspect(input CreateAspectInput, numBoxes int, idGenerator func() (string, error)) (Aspect, error) {
	if idGenerator == nil {
		idGenerator = id.NewID
	}
	if numBoxes < 0 {
		return Aspect{}, apperrors.WithMetadata(
			apperrors.CodeAspectInvalidBoxCount,
			"free invoke count must be >= 0",
			map[string]string{"Count": strconv.Itoa(numBoxes)},
		)
	}

	normalized, err := NormalizeCreateAspectInput(input)
	if err != nil {
		return Aspect{}, err
	}

	aspectID, err := idGenerator()
	if err != nil {
		return Aspect{}, fmt.Errorf("generate aspect id: %w", err)
	}

	boxes := make([]Box, 0, numBoxes)
	for label := 1; label <= numBoxes; label++ {
		boxID, err := idGenerator()
		if err != nil {
			return Aspect{}, fmt.Errorf("generate box id: %w", err)
		}
		boxes = append(boxes, Box{ID: boxID, Label: label})
	}

	return Aspect{
		ID:          aspectID,
		Name:        normalized.Name,
		Description: normalized.Description,
		Boxes:       boxes,
	}, nil
}

// BoxIndex returns the position of a box by identifier, or -1.
func (a Aspect) BoxIndex(boxID string) int {
	for i, box := range a.Boxes {
		if box.ID == boxID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy so callers cannot alias the store's boxes.
func (a Aspect) Clone() Aspect {
	boxes := make([]Box, len(a.Boxes))
	copy(boxes, a.Boxes)
	a.Boxes = boxes
	return a
}
