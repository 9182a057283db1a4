// Package roll orchestrates Fate checks: dice, rank, and modifier combined
// into a rendered chat entry.
package roll

import (
	"context"

	apperrors "github.com/fatexengine/fatex/internal/errors"
	"github.com/fatexengine/fatex/internal/fate/dice"
	"github.com/fatexengine/fatex/internal/fate/item"
	"github.com/fatexengine/fatex/internal/fate/ladder"
	"github.com/fatexengine/fatex/internal/host"
)

// CheckRequest describes one roll action.
type CheckRequest struct {
	Item     item.Rollable
	Modifier int
	Speaker  string
}

// Outcome is the complete result record for one check. It is constructed
// once per roll, consumed by the render step, and never persisted.
type Outcome struct {
	Item        item.Rollable
	Dice        []dice.DieResult
	RawTotal    int
	Modifier    int
	GrandTotal  int
	TotalString string
	LadderLabel string
	EntryID     string
}

// ChatPayload is the render payload for a check's chat entry.
type ChatPayload struct {
	Item        item.Rollable
	Speaker     string
	Dice        []dice.DieResult
	Rank        int
	Modifier    int
	TotalString string
	LadderLabel string
}

// Service resolves checks against the host's capabilities.
type Service struct {
	source     dice.Source
	transcript host.Transcript
	renderer   host.Renderer
	animator   host.Animator
	locale     string
}

// NewService creates a roll service. The animator may be nil when the host
// has no dice animation.
func NewService(source dice.Source, transcript host.Transcript, renderer host.Renderer, animator host.Animator, locale string) *Service {
	return &Service{
		source:     source,
		transcript: transcript,
		renderer:   renderer,
		animator:   animator,
		locale:     locale,
	}
}

// Check rolls 4dF for the request's item and posts the outcome to chat.
//
// The dice animation is fire-and-forget; chat entry creation is awaited so
// the entry exists before Check returns. On any failure no partial result
// reaches the transcript.
func (s *Service) Check(ctx context.Context, request CheckRequest) (Outcome, error) {
	values, err := s.source.Roll4dF(ctx)
	if err != nil {
		return Outcome{}, apperrors.Wrap(apperrors.CodeDiceSourceFailed, "roll 4dF", err)
	}
	rolled := dice.Results(values)

	grandTotal := rolled.RawTotal + request.Item.Rank + request.Modifier
	label, err := ladder.Label(s.locale, grandTotal)
	if err != nil {
		return Outcome{}, err
	}

	outcome := Outcome{
		Item:        request.Item,
		Dice:        rolled.Dice,
		RawTotal:    rolled.RawTotal,
		Modifier:    request.Modifier,
		GrandTotal:  grandTotal,
		TotalString: ladder.FormatSigned(grandTotal),
		LadderLabel: label,
	}

	if s.animator != nil {
		s.animator.ShowRoll(ctx, dieValues(rolled.Dice))
	}

	payload := ChatPayload{
		Item:        request.Item,
		Speaker:     request.Speaker,
		Dice:        rolled.Dice,
		Rank:        request.Item.Rank,
		Modifier:    request.Modifier,
		TotalString: outcome.TotalString,
		LadderLabel: outcome.LadderLabel,
	}
	content, err := s.renderer.Render(ctx, host.TemplateRollCheck, payload)
	if err != nil {
		return Outcome{}, apperrors.Wrap(apperrors.CodeChatEntryFailed, "render roll entry", err)
	}

	entryID, err := s.transcript.CreateEntry(ctx, host.Entry{
		Kind:    "roll",
		Speaker: request.Speaker,
		Content: content,
		Data:    payload,
	})
	if err != nil {
		return Outcome{}, apperrors.Wrap(apperrors.CodeChatEntryFailed, "create roll entry", err)
	}
	outcome.EntryID = entryID

	return outcome, nil
}

func dieValues(results []dice.DieResult) []int {
	values := make([]int, 0, len(results))
	for _, die := range results {
		values = append(values, die.Value)
	}
	return values
}
