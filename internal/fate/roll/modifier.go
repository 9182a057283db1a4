package roll

import (
	"strconv"
	"strings"

	apperrors "github.com/fatexengine/fatex/internal/errors"
)

// Modifier bounds. The ladder tops out far below these, so anything outside
// is a malformed formula rather than a playable bonus.
const (
	MinModifier = -50
	MaxModifier = 50
)

// ParseModifier evaluates a situational modifier expression from the sheet.
//
// Accepted forms are the empty string (no modifier), an optionally signed
// decimal ("2", "+2", "-1") within [MinModifier, MaxModifier], and
// surrounding whitespace. Anything else fails with CodeRollFormulaInvalid
// and the roll must be aborted before any chat entry is created.
func ParseModifier(expr string) (int, error) {
	trimmed := strings.TrimSpace(expr)
	if trimmed == "" {
		return 0, nil
	}

	value, err := strconv.Atoi(strings.TrimPrefix(trimmed, "+"))
	if err != nil || value < MinModifier || value > MaxModifier {
		return 0, apperrors.WithMetadata(
			apperrors.CodeRollFormulaInvalid,
			"invalid roll modifier "+expr,
			map[string]string{"Expression": expr},
		)
	}
	return value, nil
}
