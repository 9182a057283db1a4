// Package render produces the HTML chat entries the table host posts to its
// transcript. Copy is localized through the embedded message catalogs; the
// markup itself is shared across locales.
package render

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/fatexengine/fatex/internal/aspect/domain"
	aspectservice "github.com/fatexengine/fatex/internal/aspect/service"
	"github.com/fatexengine/fatex/internal/fate/dice"
	"github.com/fatexengine/fatex/internal/fate/ladder"
	"github.com/fatexengine/fatex/internal/fate/roll"
	"github.com/fatexengine/fatex/internal/host"
	"github.com/fatexengine/fatex/internal/platform/i18n/catalog"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

// Renderer renders chat entry templates with copy from one locale.
type Renderer struct {
	locale string
}

// New creates a renderer for the given locale. Locales without a catalog
// fall back per message key.
func New(locale string) *Renderer {
	return &Renderer{locale: locale}
}

type dieView struct {
	Face  string
	Class string
}

type rollView struct {
	Title          string
	Speaker        string
	ItemName       string
	RankString     string
	Dice           []dieView
	Modifier       int
	ModifierString string
	ModifierLabel  string
	TotalString    string
	LadderLabel    string
}

type boxView struct {
	ID      string
	Label   int
	Checked bool
}

type aspectView struct {
	Title        string
	Name         string
	Description  string
	InvokesLabel string
	Boxes        []boxView
}

// Render implements the host renderer contract for the built-in templates.
func (r *Renderer) Render(_ context.Context, templateRef string, data any) (string, error) {
	var name string
	var view any

	switch templateRef {
	case host.TemplateRollCheck:
		payload, ok := data.(roll.ChatPayload)
		if !ok {
			return "", fmt.Errorf("render %s: unexpected payload type %T", templateRef, data)
		}
		name = "roll-check.html"
		view = r.rollView(payload)
	case host.TemplateAspect:
		payload, ok := data.(aspectservice.ChatPayload)
		if !ok {
			return "", fmt.Errorf("render %s: unexpected payload type %T", templateRef, data)
		}
		name = "aspect.html"
		view = r.aspectView(payload.Aspect)
	default:
		return "", fmt.Errorf("render: unknown template %q", templateRef)
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, view); err != nil {
		return "", fmt.Errorf("render %s: %w", templateRef, err)
	}
	return buf.String(), nil
}

func (r *Renderer) rollView(payload roll.ChatPayload) rollView {
	views := make([]dieView, 0, len(payload.Dice))
	for _, die := range payload.Dice {
		views = append(views, dieView{Face: die.Face, Class: dieClass(die.Face)})
	}
	return rollView{
		Title:          r.message("chat.roll.title"),
		Speaker:        payload.Speaker,
		ItemName:       payload.Item.Name,
		RankString:     ladder.FormatSigned(payload.Rank),
		Dice:           views,
		Modifier:       payload.Modifier,
		ModifierString: ladder.FormatSigned(payload.Modifier),
		ModifierLabel:  r.message("chat.roll.modifier"),
		TotalString:    payload.TotalString,
		LadderLabel:    payload.LadderLabel,
	}
}

func (r *Renderer) aspectView(aspect domain.Aspect) aspectView {
	boxes := make([]boxView, 0, len(aspect.Boxes))
	for _, box := range aspect.Boxes {
		boxes = append(boxes, boxView{ID: box.ID, Label: box.Label, Checked: box.Checked})
	}
	return aspectView{
		Title:        r.message("chat.aspect.title"),
		Name:         aspect.Name,
		Description:  aspect.Description,
		InvokesLabel: r.message("chat.aspect.invokes"),
		Boxes:        boxes,
	}
}

func (r *Renderer) message(key string) string {
	if value, ok := catalog.Default().Message(r.locale, key); ok {
		return value
	}
	return key
}

func dieClass(face string) string {
	switch face {
	case dice.FacePlus:
		return "plus"
	case dice.FaceMinus:
		return "minus"
	default:
		return "blank"
	}
}
