package onboarding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"karmatch/internal/api"
	"karmatch/internal/screen"
	"karmatch/internal/session"
	"karmatch/internal/shared/config"
	kerrors "karmatch/internal/shared/errors"
	"karmatch/internal/shared/logging"
)

// MaxFieldLength caps the name, bio and each social link.
const MaxFieldLength = 250

const msgRegistrationFailed = "Could not save your profile. Please try again."

// BioForm is the input of the last step.
type BioForm struct {
	FullName string
	Bio      string
	Social   map[string]string
}

// Validate enforces field lengths and known platforms.
func (f BioForm) Validate() error {
	if utf8.RuneCountInString(f.FullName) > MaxFieldLength {
		return kerrors.NewValidationError("full_name", fmt.Sprintf("name must be at most %d characters", MaxFieldLength))
	}
	if utf8.RuneCountInString(f.Bio) > MaxFieldLength {
		return kerrors.NewValidationError("bio", fmt.Sprintf("bio must be at most %d characters", MaxFieldLength))
	}
	for platform, link := range f.Social {
		if !isSocialPlatform(platform) {
			return kerrors.NewValidationError("social_links", fmt.Sprintf("unknown platform %q", platform))
		}
		if utf8.RuneCountInString(link) > MaxFieldLength {
			return kerrors.NewValidationError(platform, fmt.Sprintf("%s link must be at most %d characters", platform, MaxFieldLength))
		}
	}
	return nil
}

func isSocialPlatform(platform string) bool {
	for _, p := range SocialPlatforms {
		if p == platform {
			return true
		}
	}
	return false
}

// Registrar submits the finished record.
type Registrar interface {
	Register(ctx context.Context, token session.Token, req api.RegisterRequest) (api.RegisterResponse, error)
}

// PhotoUploader stores a local image and returns its URL.
type PhotoUploader interface {
	UploadFile(ctx context.Context, path string) (string, error)
}

// Outcome reports how the bio step ended.
type Outcome struct {
	Route      screen.Route
	Notice     screen.Notice
	Err        error
	Registered bool
}

// Finisher runs the bio step: photo upload and registration.
type Finisher struct {
	Wizard    Capabilities
	Session   *session.Session
	Registrar Registrar
	Uploader  PhotoUploader
	Policy    config.RegistrationPolicy
	Country   string
	Logger    logging.Logger

	Now    func() time.Time
	Suffix func() int
}

// AttachPhoto uploads path and stores the URL in the draft. On failure the
// picture stays unset.
func (f *Finisher) AttachPhoto(ctx context.Context, path string) (string, screen.Notice, error) {
	logger := logging.OrNop(f.Logger)
	if f.Uploader == nil {
		return "", screen.Error("Upload failed", "photo uploads are not configured"), errors.New("onboarding: no uploader")
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return "", screen.Notice{}, kerrors.NewValidationError("photo", "choose a photo first")
	}
	url, err := f.Uploader.UploadFile(ctx, path)
	if err != nil {
		logger.Warn("profile photo upload failed: %v", err)
		return "", screen.Error("Upload failed", kerrors.UserMessage(err, "Invalid Credentials")), err
	}
	f.Wizard.Merge(func(d *Draft) { d.ProfilePicture = url })
	return url, screen.Success("File uploaded!", ""), nil
}

// Submit completes the draft and registers it. With the block policy a
// failed registration keeps the wizard on the bio step; with proceed it
// finishes anyway and routes home.
func (f *Finisher) Submit(ctx context.Context, form BioForm) Outcome {
	logger := logging.OrNop(f.Logger)
	if err := form.Validate(); err != nil {
		return Outcome{Err: err, Notice: screen.Error("Error", kerrors.UserMessage(err, ""))}
	}
	if current := f.Wizard.Current(); current != StepBio {
		err := fmt.Errorf("%w: expected %s, at %s", ErrInvalidTransition, StepBio, current)
		return Outcome{Err: err}
	}

	token, err := f.Session.Require()
	if err != nil {
		return Outcome{Err: err, Route: screen.RouteLogin, Notice: screen.Error("Error", "Please log in again.")}
	}
	email, err := session.EmailFromToken(token)
	if err != nil {
		logger.Warn("cannot read email from session: %v", err)
		return Outcome{Err: err, Route: screen.RouteLogin, Notice: screen.Error("Error", "Your session is invalid. Please log in again.")}
	}

	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	suffix := RandomSuffix
	if f.Suffix != nil {
		suffix = f.Suffix
	}
	country := strings.TrimSpace(f.Country)
	if country == "" {
		country = config.DefaultCountry
	}

	dob := f.Wizard.Draft().DateOfBirth
	age, ageErr := DeriveAge(dob, now())
	if ageErr != nil {
		logger.Warn("age not derived: %v", ageErr)
	}

	f.Wizard.Merge(func(d *Draft) {
		d.FullName = form.FullName
		d.Bio = form.Bio
		if d.SocialMedia == nil {
			d.SocialMedia = map[string]string{}
		}
		for platform, link := range form.Social {
			d.SocialMedia[platform] = strings.TrimSpace(link)
		}
		d.Email = email
		d.Username = DeriveUsername(form.FullName, suffix())
		d.Age = age
		d.Country = country
	})
	draft := f.Wizard.Draft()

	resp, err := f.Registrar.Register(ctx, token, RegisterRequest(draft))
	if err == nil && !resp.Succeeded() {
		err = &kerrors.LogicalError{Op: api.EndpointRegister, Message: resp.Message}
	}
	if err != nil {
		if f.Policy == config.RegistrationProceed {
			logger.Warn("registration failed, continuing: %v", err)
			f.finish()
			return Outcome{
				Route:  screen.RouteHome,
				Notice: screen.Warning("Profile not saved", kerrors.UserMessage(err, msgRegistrationFailed)),
				Err:    err,
			}
		}
		logger.Warn("registration failed: %v", err)
		return Outcome{Notice: screen.Error("Error", kerrors.UserMessage(err, msgRegistrationFailed)), Err: err}
	}

	logger.Info("registered %s", draft.Username)
	f.finish()
	return Outcome{Route: screen.RouteHome, Notice: screen.Success("Profile saved", ""), Registered: true}
}

func (f *Finisher) finish() {
	if err := f.Wizard.Advance(StepDone); err != nil {
		logging.OrNop(f.Logger).Warn("finish onboarding: %v", err)
	}
	f.Wizard.Discard()
}

// RegisterRequest maps the draft onto the register body.
func RegisterRequest(d Draft) api.RegisterRequest {
	social := api.SocialLinks{}
	for platform, link := range d.SocialMedia {
		social[platform] = link
	}
	languages := d.Languages
	if languages == nil {
		languages = []string{}
	}
	gallery := d.Gallery
	if gallery == nil {
		gallery = []string{}
	}
	return api.RegisterRequest{
		KID:             d.KID,
		Username:        d.Username,
		FullName:        d.FullName,
		Email:           d.Email,
		Phone:           d.Phone,
		Age:             d.Age,
		DateOfBirth:     d.DateOfBirth,
		Gender:          string(d.Gender),
		Location:        d.Location,
		Country:         d.Country,
		Languages:       languages,
		PrimaryLanguage: d.PrimaryLanguage,
		ProfilePicture:  d.ProfilePicture,
		Gallery:         gallery,
		Bio:             d.Bio,
		SocialMedia:     social,
		SocialLinks:     social,
	}
}
