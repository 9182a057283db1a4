// Package ladder resolves roll totals against the Fate ladder, the bounded
// narrative scale that maps an integer result to a descriptive label.
package ladder

import (
	"strconv"

	apperrors "github.com/fatexengine/fatex/internal/errors"
	"github.com/fatexengine/fatex/internal/platform/i18n/catalog"
)

// Ladder bounds. Totals outside this interval saturate to the nearest bound.
const (
	Min = -4
	Max = 8
)

// Clamp saturates a total onto the ladder interval [Min, Max].
func Clamp(total int) int {
	if total > Max {
		return Max
	}
	if total < Min {
		return Min
	}
	return total
}

// FormatSigned renders a total as an explicitly signed decimal string.
// Zero formats as "+0", never "-0". Chat output and ladder lookup keys
// both depend on this convention.
func FormatSigned(total int) string {
	if total < 0 {
		return strconv.Itoa(total)
	}
	return "+" + strconv.Itoa(total)
}

// LabelKey returns the localization key for a total, after clamping.
func LabelKey(total int) string {
	return "ladder." + FormatSigned(Clamp(total))
}

// Label returns the localized ladder label for a total.
//
// The total is clamped onto [Min, Max] first, so any integer resolves to a
// label. A missing catalog entry is a configuration error: the embedded
// catalogs are expected to be complete and Validate guards this at startup.
func Label(locale string, total int) (string, error) {
	key := LabelKey(total)
	label, ok := catalog.Default().Message(locale, key)
	if !ok {
		return "", apperrors.WithMetadata(
			apperrors.CodeLadderLabelMissing,
			"missing ladder label "+key,
			map[string]string{
				"Rank":   FormatSigned(Clamp(total)),
				"Locale": locale,
			},
		)
	}
	return label, nil
}

// Validate checks that a locale resolves a label for every ladder step.
// Call it once at startup; a failure means the deployment is misconfigured.
func Validate(locale string) error {
	for step := Min; step <= Max; step++ {
		if _, err := Label(locale, step); err != nil {
			return err
		}
	}
	return nil
}
