package onboarding

import (
	"fmt"
	"slices"
	"strings"

	kerrors "karmatch/internal/shared/errors"
)

// LanguageOptions are offered in this order.
var LanguageOptions = []string{
	"English", "Telugu", "Hindi", "Marathi", "Gujrati", "German", "Punjabi", "Japanese",
}

const (
	msgSelectPrimary   = "Please select a primary language."
	msgSelectLanguages = "Please select at least one preferred language."
)

// LanguageSelection is an ordered set of languages plus an optional primary
// that is always a member of the set.
type LanguageSelection struct {
	selected []string
	primary  string
}

func canonicalLanguage(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	for _, lang := range LanguageOptions {
		if strings.EqualFold(lang, raw) {
			return lang, true
		}
	}
	return "", false
}

// Toggle adds or removes lang. Removing the primary clears it.
func (s *LanguageSelection) Toggle(raw string) error {
	lang, ok := canonicalLanguage(raw)
	if !ok {
		return kerrors.NewValidationError("languages", fmt.Sprintf("unknown language %q", raw))
	}
	if i := slices.Index(s.selected, lang); i >= 0 {
		s.selected = slices.Delete(s.selected, i, i+1)
		if s.primary == lang {
			s.primary = ""
		}
		return nil
	}
	s.selected = append(s.selected, lang)
	return nil
}

// SetPrimary marks lang as primary. It must already be selected.
func (s *LanguageSelection) SetPrimary(raw string) error {
	lang, ok := canonicalLanguage(raw)
	if !ok || !slices.Contains(s.selected, lang) {
		return kerrors.NewValidationError("primary_language", fmt.Sprintf("%q is not one of the selected languages", raw))
	}
	s.primary = lang
	return nil
}

func (s *LanguageSelection) IsSelected(lang string) bool {
	return slices.Contains(s.selected, lang)
}

// Selected returns the chosen languages in selection order.
func (s *LanguageSelection) Selected() []string {
	return slices.Clone(s.selected)
}

func (s *LanguageSelection) Primary() string {
	return s.primary
}

// Validate checks the primary first, then the set.
func (s *LanguageSelection) Validate() error {
	if s.primary == "" {
		return kerrors.NewValidationError("primary_language", msgSelectPrimary)
	}
	if len(s.selected) == 0 {
		return kerrors.NewValidationError("languages", msgSelectLanguages)
	}
	if !slices.Contains(s.selected, s.primary) {
		return kerrors.NewValidationError("primary_language", msgSelectPrimary)
	}
	return nil
}

// SubmitLanguages stores the selection and moves to the bio step.
func SubmitLanguages(w Capabilities, s *LanguageSelection) error {
	if err := s.Validate(); err != nil {
		return err
	}
	languages, primary := s.Selected(), s.primary
	return commit(w, StepLanguages, func(d *Draft) {
		d.Languages = languages
		d.PrimaryLanguage = primary
	})
}
