package onboarding

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	kerrors "karmatch/internal/shared/errors"
)

// Months in picker order.
var Months = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

const yearSpan = 100

// DayOptions returns 1..31. No calendar check is applied, so 31 is offered
// for every month.
func DayOptions() []int {
	days := make([]int, 31)
	for i := range days {
		days[i] = i + 1
	}
	return days
}

// YearOptions returns the current year and the 99 before it, newest first.
func YearOptions(now time.Time) []int {
	years := make([]int, yearSpan)
	for i := range years {
		years[i] = now.Year() - i
	}
	return years
}

// DOBPicker holds the three picker values. Setters only accept values that
// the pickers offer.
type DOBPicker struct {
	day   int
	month string
	year  int
	years []int
}

// NewDOBPicker starts at 1 January 2000.
func NewDOBPicker(now time.Time) *DOBPicker {
	return &DOBPicker{day: 1, month: "January", year: 2000, years: YearOptions(now)}
}

func (p *DOBPicker) Day() int      { return p.day }
func (p *DOBPicker) Month() string { return p.month }
func (p *DOBPicker) Year() int     { return p.year }

// Years returns the offered years.
func (p *DOBPicker) Years() []int { return slices.Clone(p.years) }

func (p *DOBPicker) SetDay(day int) error {
	if day < 1 || day > 31 {
		return kerrors.NewValidationError("day", fmt.Sprintf("day must be between 1 and 31, got %d", day))
	}
	p.day = day
	return nil
}

// SetMonth accepts a month name in any case or a number 1-12.
func (p *DOBPicker) SetMonth(raw string) error {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil && n >= 1 && n <= 12 {
		p.month = Months[n-1]
		return nil
	}
	for _, m := range Months {
		if strings.EqualFold(m, raw) {
			p.month = m
			return nil
		}
	}
	return kerrors.NewValidationError("month", fmt.Sprintf("unknown month %q", raw))
}

func (p *DOBPicker) SetYear(year int) error {
	if !slices.Contains(p.years, year) {
		return kerrors.NewValidationError("year", fmt.Sprintf("year must be between %d and %d", p.years[len(p.years)-1], p.years[0]))
	}
	p.year = year
	return nil
}

// Format renders D-Month-YYYY.
func (p *DOBPicker) Format() string {
	return fmt.Sprintf("%d-%s-%d", p.day, p.month, p.year)
}

// SubmitDOB stores the formatted date and moves to the languages step.
func SubmitDOB(w Capabilities, p *DOBPicker) error {
	formatted := p.Format()
	return commit(w, StepDOB, func(d *Draft) { d.DateOfBirth = formatted })
}
