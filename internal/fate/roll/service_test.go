package roll

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"testing"

	apperrors "github.com/fatexengine/fatex/internal/errors"
	"github.com/fatexengine/fatex/internal/fate/dice"
	"github.com/fatexengine/fatex/internal/fate/item"
	"github.com/fatexengine/fatex/internal/host"
)

type stubSource struct {
	values [dice.NumDice]int
	err    error
}

func (s *stubSource) Roll4dF(context.Context) ([dice.NumDice]int, error) {
	return s.values, s.err
}

type fakeTranscript struct {
	created []host.Entry
	updated []host.Entry
	err     error
}

func (t *fakeTranscript) CreateEntry(_ context.Context, entry host.Entry) (string, error) {
	if t.err != nil {
		return "", t.err
	}
	t.created = append(t.created, entry)
	return fmt.Sprintf("entry-%d", len(t.created)), nil
}

func (t *fakeTranscript) UpdateEntry(_ context.Context, id string, entry host.Entry) error {
	if t.err != nil {
		return t.err
	}
	t.updated = append(t.updated, entry)
	return nil
}

type fakeRenderer struct {
	err error
}

func (r *fakeRenderer) Render(_ context.Context, templateRef string, data any) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return "rendered:" + templateRef, nil
}

type recordingAnimator struct {
	shown [][]int
}

func (a *recordingAnimator) ShowRoll(_ context.Context, dice []int) {
	a.shown = append(a.shown, dice)
}

func mustItem(t *testing.T, kind item.Kind, name string, rank int) item.Rollable {
	t.Helper()
	rollable, err := item.New(kind, name, rank)
	if err != nil {
		t.Fatalf("new item: %v", err)
	}
	return rollable
}

// TestCheckEndToEnd exercises the documented fixture: rank 3, no modifier,
// dice [1,1,0,-1].
func TestCheckEndToEnd(t *testing.T) {
	source := &stubSource{values: [dice.NumDice]int{1, 1, 0, -1}}
	transcript := &fakeTranscript{}
	animator := &recordingAnimator{}
	service := NewService(source, transcript, &fakeRenderer{}, animator, "en-US")

	outcome, err := service.Check(context.Background(), CheckRequest{
		Item:    mustItem(t, item.KindSkill, "Fight", 3),
		Speaker: "Zoya",
	})
	if err != nil {
		t.Fatalf("check: %v", err)
	}

	if outcome.RawTotal != 1 {
		t.Fatalf("raw total = %d, want 1", outcome.RawTotal)
	}
	if outcome.GrandTotal != 4 {
		t.Fatalf("grand total = %d, want 4", outcome.GrandTotal)
	}
	if outcome.TotalString != "+4" {
		t.Fatalf("total string = %q, want +4", outcome.TotalString)
	}
	if outcome.LadderLabel != "Great" {
		t.Fatalf("ladder label = %q, want Great", outcome.LadderLabel)
	}
	if outcome.EntryID != "entry-1" {
		t.Fatalf("entry id = %q, want entry-1", outcome.EntryID)
	}

	if len(transcript.created) != 1 {
		t.Fatalf("created %d entries, want 1", len(transcript.created))
	}
	entry := transcript.created[0]
	if entry.Kind != "roll" || entry.Speaker != "Zoya" {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if entry.Content != "rendered:"+host.TemplateRollCheck {
		t.Fatalf("entry content = %q", entry.Content)
	}

	if len(animator.shown) != 1 {
		t.Fatalf("animator called %d times, want 1", len(animator.shown))
	}
	want := []int{1, 1, 0, -1}
	for i, value := range animator.shown[0] {
		if value != want[i] {
			t.Fatalf("animated dice %v, want %v", animator.shown[0], want)
		}
	}
}

func TestCheckAppliesModifier(t *testing.T) {
	source := &stubSource{values: [dice.NumDice]int{0, 0, 0, 0}}
	transcript := &fakeTranscript{}
	service := NewService(source, transcript, &fakeRenderer{}, nil, "en-US")

	outcome, err := service.Check(context.Background(), CheckRequest{
		Item:     mustItem(t, item.KindAttribute, "Vigor", 1),
		Modifier: 2,
	})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if outcome.GrandTotal != 3 {
		t.Fatalf("grand total = %d, want 3", outcome.GrandTotal)
	}
	if outcome.LadderLabel != "Good" {
		t.Fatalf("ladder label = %q, want Good", outcome.LadderLabel)
	}
}

func TestCheckGrandTotalSaturatesLadder(t *testing.T) {
	source := &stubSource{values: [dice.NumDice]int{1, 1, 1, 1}}
	service := NewService(source, &fakeTranscript{}, &fakeRenderer{}, nil, "en-US")

	outcome, err := service.Check(context.Background(), CheckRequest{
		Item:     mustItem(t, item.KindSkill, "Lore", 9),
		Modifier: 3,
	})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	// The grand total itself is reported unclamped; only the label saturates.
	if outcome.GrandTotal != 16 {
		t.Fatalf("grand total = %d, want 16", outcome.GrandTotal)
	}
	if outcome.TotalString != "+16" {
		t.Fatalf("total string = %q, want +16", outcome.TotalString)
	}
	if outcome.LadderLabel != "Legendary" {
		t.Fatalf("ladder label = %q, want Legendary", outcome.LadderLabel)
	}
}

func TestCheckDiceSourceFailure(t *testing.T) {
	source := &stubSource{err: errors.New("rng offline")}
	transcript := &fakeTranscript{}
	service := NewService(source, transcript, &fakeRenderer{}, nil, "en-US")

	_, err := service.Check(context.Background(), CheckRequest{
		Item: mustItem(t, item.KindSkill, "Fight", 1),
	})
	if !apperrors.IsCode(err, apperrors.CodeDiceSourceFailed) {
		t.Fatalf("error = %v, want dice source failed", err)
	}
	if len(transcript.created) != 0 {
		t.Fatal("no chat entry may be created on failure")
	}
}

func TestCheckTranscriptFailure(t *testing.T) {
	source := &stubSource{values: [dice.NumDice]int{0, 0, 0, 0}}
	transcript := &fakeTranscript{err: errors.New("chat down")}
	service := NewService(source, transcript, &fakeRenderer{}, nil, "en-US")

	_, err := service.Check(context.Background(), CheckRequest{
		Item: mustItem(t, item.KindSkill, "Fight", 1),
	})
	if !apperrors.IsCode(err, apperrors.CodeChatEntryFailed) {
		t.Fatalf("error = %v, want chat entry failed", err)
	}
}

func TestParseModifier(t *testing.T) {
	tcs := []struct {
		expr string
		want int
	}{
		{"", 0},
		{"   ", 0},
		{"2", 2},
		{"+2", 2},
		{"-1", -1},
		{" +3 ", 3},
		{"50", MaxModifier},
		{"-50", MinModifier},
	}
	for _, tc := range tcs {
		got, err := ParseModifier(tc.expr)
		if err != nil {
			t.Fatalf("ParseModifier(%q): %v", tc.expr, err)
		}
		if got != tc.want {
			t.Fatalf("ParseModifier(%q) = %d, want %d", tc.expr, got, tc.want)
		}
	}
}

func TestParseModifierRejectsMalformed(t *testing.T) {
	exprs := []string{
		"two", "1d6", "+-2", "2+2",
		"51", "-51",
		strconv.Itoa(math.MaxInt),
		strconv.Itoa(math.MinInt),
		"9223372036854775808",
	}
	for _, expr := range exprs {
		_, err := ParseModifier(expr)
		if !apperrors.IsCode(err, apperrors.CodeRollFormulaInvalid) {
			t.Fatalf("ParseModifier(%q) error = %v, want roll formula invalid", expr, err)
		}
	}
}
