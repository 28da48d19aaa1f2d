// Package normalize applies table-specific date and timestamp reformatting
// before warehouse insertion. The channel carries full ISO-8601 timestamps;
// some destination columns are plain DATE or space-separated DATETIME.
package normalize

import (
	"strings"
	"time"

	"github.com/crownpoint-data/pos-sync/common/logging"
)

// Format names a destination column's temporal shape.
type Format string

const (
	// FormatDate rewrites a timestamp to YYYY-MM-DD.
	FormatDate Format = "DATE"
	// FormatDateTime rewrites a timestamp to YYYY-MM-DD HH:MM:SS.
	FormatDateTime Format = "DATETIME"
)

// Rules maps table name to the per-field reformatting it needs. Tables
// absent from the map pass through untouched.
var Rules = map[string]map[string]Format{
	"pos_paidouts": {
		"business_date": FormatDate,
	},
	"pos_time_records": {
		"business_date": FormatDate,
		"in_time":       FormatDateTime,
		"out_time":      FormatDateTime,
		"modified_on":   FormatDateTime,
	},
}

type Normalizer struct {
	log *logging.Logger
}

func NewNormalizer(log *logging.Logger) *Normalizer {
	if log == nil {
		log = logging.Default()
	}
	return &Normalizer{log: log}
}

// Apply reformats the record's fields in place per the table's rules and
// returns the record. A value that fails to parse is left as-is with a
// warning; normalization never rejects a record.
func (n *Normalizer) Apply(record map[string]any, tableName string) map[string]any {
	rules, ok := Rules[tableName]
	if !ok {
		return record
	}

	for field, format := range rules {
		value, ok := record[field]
		if !ok {
			continue
		}
		raw, ok := value.(string)
		if !ok || raw == "" {
			continue
		}

		parsed, err := parseTimestamp(raw)
		if err != nil {
			n.log.Warn("could not parse timestamp for normalization",
				"table", tableName, "field", field, "value", raw)
			continue
		}

		switch format {
		case FormatDate:
			record[field] = parsed.Format("2006-01-02")
		case FormatDateTime:
			record[field] = parsed.Format("2006-01-02 15:04:05")
		}
	}
	return record
}

// parseTimestamp accepts the ISO-8601 variants the pipeline produces:
// offset-qualified timestamps, Z-suffixed timestamps, and bare dates.
func parseTimestamp(value string) (time.Time, error) {
	value = strings.Replace(value, "Z", "+00:00", 1)
	for _, layout := range []string{
		"2006-01-02T15:04:05-07:00",
		"2006-01-02T15:04:05.999999999-07:00",
		"2006-01-02T15:04:05",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &time.ParseError{Layout: "ISO-8601", Value: value}
}
