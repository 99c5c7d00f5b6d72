package onboarding

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
)

const (
	suffixMin = 100000
	suffixMax = 999999
)

// RandomSuffix returns a six digit number.
func RandomSuffix() int {
	return suffixMin + rand.IntN(suffixMax-suffixMin+1)
}

// DeriveUsername joins the first word of fullName with suffix.
func DeriveUsername(fullName string, suffix int) string {
	first := ""
	if fields := strings.Fields(fullName); len(fields) > 0 {
		first = fields[0]
	}
	return first + strconv.Itoa(suffix)
}

// DeriveAge subtracts the year in a D-Month-YYYY string from now's year.
// Day and month are ignored, so the result can be one year high.
func DeriveAge(dob string, now time.Time) (int, error) {
	parts := strings.Split(strings.TrimSpace(dob), "-")
	if len(parts) != 3 {
		return 0, fmt.Errorf("date of birth %q is not D-Month-YYYY", dob)
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0, fmt.Errorf("date of birth %q: bad year: %w", dob, err)
	}
	return now.Year() - year, nil
}
