package onboarding

import (
	"maps"
	"slices"
	"strings"
)

// Gender is the fixed gender choice.
type Gender string

const (
	GenderMale      Gender = "male"
	GenderFemale    Gender = "female"
	GenderNonBinary Gender = "non-binary"
)

// GenderOption pairs a value with its label.
type GenderOption struct {
	Label string
	Value Gender
}

// GenderOptions are offered in this order.
var GenderOptions = []GenderOption{
	{Label: "Male", Value: GenderMale},
	{Label: "Female", Value: GenderFemale},
	{Label: "Non-binary", Value: GenderNonBinary},
}

// ParseGender matches a value or a label, case-insensitively.
func ParseGender(raw string) (Gender, bool) {
	needle := strings.ToLower(strings.TrimSpace(raw))
	for _, opt := range GenderOptions {
		if needle == string(opt.Value) || needle == strings.ToLower(opt.Label) {
			return opt.Value, true
		}
	}
	return "", false
}

// SocialPlatforms are the links collected on the bio step.
var SocialPlatforms = []string{"linkedin", "instagram", "facebook", "twitter", "github"}

// Draft is the user record assembled across the steps.
type Draft struct {
	KID             string
	Username        string
	FullName        string
	Email           string
	Phone           string
	Age             int
	DateOfBirth     string
	Gender          Gender
	Location        string
	Country         string
	Languages       []string
	PrimaryLanguage string
	ProfilePicture  string
	Gallery         []string
	Bio             string
	SocialMedia     map[string]string
}

// NewDraft returns an empty draft with every social platform present.
func NewDraft() Draft {
	social := make(map[string]string, len(SocialPlatforms))
	for _, platform := range SocialPlatforms {
		social[platform] = ""
	}
	return Draft{Languages: []string{}, Gallery: []string{}, SocialMedia: social}
}

// Clone returns a deep copy.
func (d Draft) Clone() Draft {
	out := d
	out.Languages = slices.Clone(d.Languages)
	out.Gallery = slices.Clone(d.Gallery)
	out.SocialMedia = maps.Clone(d.SocialMedia)
	return out
}
