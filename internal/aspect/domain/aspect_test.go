package domain

import (
	"fmt"
	"testing"

	apperrors "github.com/fatexengine/fatex/internal/errors"
)

func sequentialIDs() func() (string, error) {
	next := 0
	return func() (string, error) {
		next++
		return fmt.Sprintf("id-%d", next), nil
	}
}

func TestNewAspectBuildsBoxes(t *testing.T) {
	aspect, err := NewAspect(CreateAspectInput{Name: "On Fire"}, 3, sequentialIDs())
	if err != nil {
		t.Fatalf("new aspect: %v", err)
	}

	if aspect.Name != "On Fire" {
		t.Fatalf("name = %q", aspect.Name)
	}
	if len(aspect.Boxes) != 3 {
		t.Fatalf("box count = %d, want 3", len(aspect.Boxes))
	}

	seen := map[string]bool{aspect.ID: true}
	for i, box := range aspect.Boxes {
		if box.Label != i+1 {
			t.Fatalf("box %d label = %d, want %d", i, box.Label, i+1)
		}
		if box.Checked {
			t.Fatalf("box %d starts checked", i)
		}
		if seen[box.ID] {
			t.Fatalf("duplicate identifier %q", box.ID)
		}
		seen[box.ID] = true
	}
}

func TestNewAspectZeroBoxes(t *testing.T) {
	aspect, err := NewAspect(CreateAspectInput{Name: "Dim Light"}, 0, sequentialIDs())
	if err != nil {
		t.Fatalf("new aspect: %v", err)
	}
	if len(aspect.Boxes) != 0 {
		t.Fatalf("box count = %d, want 0", len(aspect.Boxes))
	}
}

func TestNewAspectRejectsNegativeBoxCount(t *testing.T) {
	_, err := NewAspect(CreateAspectInput{Name: "On Fire"}, -1, sequentialIDs())
	if !apperrors.IsCode(err, apperrors.CodeAspectInvalidBoxCount) {
		t.Fatalf("error = %v, want invalid box count", err)
	}
}

func TestNewAspectRequiresName(t *testing.T) {
	_, err := NewAspect(CreateAspectInput{Name: "   "}, 2, sequentialIDs())
	if !apperrors.IsCode(err, apperrors.CodeAspectNameEmpty) {
		t.Fatalf("error = %v, want empty name", err)
	}
}

func TestNewAspectTrimsFields(t *testing.T) {
	aspect, err := NewAspect(CreateAspectInput{
		Name:        "  Slippery Floor ",
		Description: " oil everywhere ",
	}, 1, sequentialIDs())
	if err != nil {
		t.Fatalf("new aspect: %v", err)
	}
	if aspect.Name != "Slippery Floor" || aspect.Description != "oil everywhere" {
		t.Fatalf("fields not trimmed: %+v", aspect)
	}
}

func TestNewAspectDefaultIDGenerator(t *testing.T) {
	aspect, err := NewAspect(CreateAspectInput{Name: "On Fire"}, 2, nil)
	if err != nil {
		t.Fatalf("new aspect: %v", err)
	}
	if len(aspect.ID) != 26 {
		t.Fatalf("id length = %d, want 26", len(aspect.ID))
	}
	if aspect.Boxes[0].ID == aspect.Boxes[1].ID {
		t.Fatal("box ids collide")
	}
}

func TestBoxIndex(t *testing.T) {
	aspect, err := NewAspect(CreateAspectInput{Name: "On Fire"}, 2, sequentialIDs())
	if err != nil {
		t.Fatalf("new aspect: %v", err)
	}
	if idx := aspect.BoxIndex(aspect.Boxes[1].ID); idx != 1 {
		t.Fatalf("index = %d, want 1", idx)
	}
	if idx := aspect.BoxIndex("missing"); idx != -1 {
		t.Fatalf("index = %d, want -1", idx)
	}
}

func TestCloneDoesNotAliasBoxes(t *testing.T) {
	aspect, err := NewAspect(CreateAspectInput{Name: "On Fire"}, 1, sequentialIDs())
	if err != nil {
		t.Fatalf("new aspect: %v", err)
	}
	clone := aspect.Clone()
	clone.Boxes[0].Checked = true
	if aspect.Boxes[0].Checked {
		t.Fatal("clone aliases original boxes")
	}
}
