package core

import (
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"
)

var (
	NowFunc = time.Now // mockable
	NewID   = func() string { return uuid.New().String() } // mockable
)

// ISODay is the layout of every calendar date stored (birth dates, attendance dates).
const ISODay = "2006-01-02"

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// Today returns the current date formatted as ISODay.
func Today() string {
	return NowFunc().Format(ISODay)
}

// ParseDay parses an ISODay date.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(ISODay, CleanString(s))
	if err != nil {
		return time.Time{}, errors.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// NotNil is vala.IsNotNil for dependencies that may be implemented by plain struct values,
// which vala refuses to inspect.
func NotNil(obtained interface{}, paramName string) vala.Checker {
	return func() (bool, string) {
		ok := obtained != nil
		if ok {
			switch v := reflect.ValueOf(obtained); v.Kind() {
			case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Ptr, reflect.Slice:
				ok = !v.IsNil()
			}
		}
		return ok, "Parameter was nil: " + paramName
	}
}
