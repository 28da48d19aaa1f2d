package odata

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// msDatePrefix marks the vendor's sentinel date encoding "/Date(<ms>)/".
const msDatePrefix = "/Date("

var msDateDigits = regexp.MustCompile(`-?\d+`)

// isoWithOffset renders timestamps with an explicit UTC offset ("+00:00"
// rather than "Z") to match the warehouse schema contract.
const isoWithOffset = "2006-01-02T15:04:05-07:00"

// DecodeMicrosoftDate converts a "/Date(<milliseconds>)/" sentinel string to
// its ISO-8601 UTC equivalent. Values not carrying the sentinel pass through
// untouched. A sentinel whose embedded integer cannot be parsed is returned
// unchanged along with an error the caller should treat as a warning.
func DecodeMicrosoftDate(value string) (string, error) {
	if len(value) < len(msDatePrefix) || value[:len(msDatePrefix)] != msDatePrefix {
		return value, nil
	}

	digits := msDateDigits.FindString(value)
	if digits == "" {
		return value, fmt.Errorf("no milliseconds in date sentinel %q", value)
	}

	ms, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return value, fmt.Errorf("parse date sentinel %q: %w", value, err)
	}

	return time.UnixMilli(ms).UTC().Format(isoWithOffset), nil
}
