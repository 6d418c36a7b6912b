package validator

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"loyaltystay/constants"
	"loyaltystay/errors"

	playground "github.com/go-playground/validator/v10"
)

var (
	validate   = newValidator()
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

func newValidator() *playground.Validate {
	v := playground.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// ValidateStruct checks the validate tags of s and returns BAD_REQUEST naming
// every failing field.
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	verrs, ok := err.(playground.ValidationErrors)
	if !ok {
		return errors.NewAppError(errors.ErrCodeBadRequest, "Invalid request", err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		ns := fe.Namespace()
		if i := strings.Index(ns, "."); i >= 0 {
			ns = ns[i+1:]
		}
		fields = append(fields, fmt.Sprintf("%s (%s)", ns, fe.Tag()))
	}
	return errors.NewAppError(errors.ErrCodeBadRequest, "Invalid fields: "+strings.Join(fields, ", "), nil)
}

// ParseDate parses a YYYY-MM-DD date in UTC.
func ParseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(constants.DateLayout, value)
	if err != nil {
		return time.Time{}, errors.NewAppError(errors.ErrCodeBadRequest, fmt.Sprintf("Invalid %s", field), err)
	}
	return t, nil
}

// ParseStayDates parses arrival and departure and requires at least one night.
func ParseStayDates(arrival, departure string) (time.Time, time.Time, error) {
	a, err := ParseDate("arrivalDate", arrival)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	d, err := ParseDate("departureDate", departure)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !d.After(a) {
		return time.Time{}, time.Time{}, errors.BadRequest("Departure date must be after arrival date")
	}
	return a, d, nil
}

// ValidateEmail checks the address format.
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return errors.BadRequest("Invalid email")
	}
	return nil
}

// ValidatePassword requires at least 8 characters.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return errors.BadRequest("Password must be at least 8 characters")
	}
	return nil
}
