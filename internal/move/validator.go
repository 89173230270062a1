package move

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

// strict policy removes all HTML/scripts
var sanitizePolicy = bluemonday.StrictPolicy()

// SanitizeString strips markup from client-supplied text (usernames, chat)
func SanitizeString(s string) string {
	return sanitizePolicy.Sanitize(s)
}

// Validator: validation of inbound moves before they touch room state
type Validator struct {
	validate      *validator.Validate
	maxPathPoints int
	maxImageBytes int
}

func NewValidator(maxPathPoints, maxImageBytes int) *Validator {
	return &Validator{
		validate:      validator.New(validator.WithRequiredStructEnabled()),
		maxPathPoints: maxPathPoints,
		maxImageBytes: maxImageBytes,
	}
}

// Validate checks a move against the wire contract: at most one payload
// variant, well-formed options, bounded path/image sizes. Invalid moves are
// rejected here so shared room state is never corrupted.
func (v *Validator) Validate(m *Move) error {
	if m == nil {
		return fmt.Errorf("nil move")
	}

	if n := m.VariantCount(); n > 1 {
		return fmt.Errorf("move has %d payload variants, want at most 1", n)
	}

	if len(m.Path) > v.maxPathPoints {
		return fmt.Errorf("path too long: %d points (max %d)", len(m.Path), v.maxPathPoints)
	}

	if m.Img != nil && len(m.Img.Base64) > v.maxImageBytes {
		return fmt.Errorf("image too large: %d bytes (max %d)", len(m.Img.Base64), v.maxImageBytes)
	}

	for i, p := range m.Path {
		if p[0] < -1000000 || p[0] > 1000000 || p[1] < -1000000 || p[1] > 1000000 {
			return fmt.Errorf("path point %d out of bounds", i)
		}
	}

	if err := v.validate.Struct(m); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			return fmt.Errorf("'%s' is invalid", errs[0].Field())
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	return nil
}
