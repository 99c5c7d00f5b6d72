package onboarding

import (
	kerrors "karmatch/internal/shared/errors"
)

const msgSelectGender = "Please select a gender"

// SubmitGender records the gender and moves to the date of birth step.
func SubmitGender(w Capabilities, raw string) error {
	gender, ok := ParseGender(raw)
	if !ok {
		return kerrors.NewValidationError("gender", msgSelectGender)
	}
	return commit(w, StepGender, func(d *Draft) { d.Gender = gender })
}

// Avatar is the placeholder picture shown until a photo is uploaded.
type Avatar struct {
	Name string
	File string
}

// AvatarFor picks the placeholder for gender. Anything other than male gets
// the second image.
func AvatarFor(gender Gender) Avatar {
	if gender == GenderMale {
		return Avatar{Name: "Mark", File: "Mark.jpg"}
	}
	return Avatar{Name: "Lisa", File: "Lisa.jpg"}
}
