package odata

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/crownpoint-data/pos-sync/common/logging"
)

// Record is one loosely-typed record as it crosses the boundary: raw records
// carry vendor-cased keys and untyped values, normalized records carry
// snake_case keys and schema-conformant values.
type Record map[string]any

// metadataPrefix marks vendor-internal metadata fields ("__metadata", ...).
const metadataPrefix = "__"

// deferredKey marks navigation placeholders the API embeds for lazy loading.
const deferredKey = "__deferred"

// Transformer converts raw OData records into the normalized representation.
// Field-level problems degrade to warnings; a record transform never fails.
type Transformer struct {
	log *logging.Logger
}

// NewTransformer creates a Transformer logging field warnings through log.
func NewTransformer(log *logging.Logger) *Transformer {
	if log == nil {
		log = logging.Default()
	}
	return &Transformer{log: log}
}

// TransformRecord normalizes every field of raw. Fields are independent, so
// a coercion failure on one leaves the rest of the record intact.
func (t *Transformer) TransformRecord(raw Record) Record {
	normalized := make(Record, len(raw))
	for key, value := range raw {
		newKey, newValue, keep := t.normalizeField(key, value)
		if !keep {
			continue
		}
		normalized[newKey] = newValue
	}
	return normalized
}

// normalizeField applies the field policy: discard, sentinel-date decoding,
// null-string canonicalization, numeric and string coercion, key casing.
func (t *Transformer) normalizeField(key string, value any) (string, any, bool) {
	if strings.HasPrefix(key, metadataPrefix) || DroppedFields.contains(key) {
		return "", nil, false
	}
	if nested, ok := value.(map[string]any); ok {
		if _, deferred := nested[deferredKey]; deferred {
			return "", nil, false
		}
	}

	if s, ok := value.(string); ok {
		decoded, err := DecodeMicrosoftDate(s)
		if err != nil {
			t.log.Warn("could not decode date sentinel", "key", key, "error", err)
		}
		value = decoded

		if decoded == "" || decoded == "null" {
			value = nil
		}
	}

	if NumericFields.contains(key) {
		value = t.coerceNumeric(key, value)
	} else if StringFields.contains(key) && value != nil {
		value = stringify(value)
	}

	return ToSnakeCase(key), value, true
}

// coerceNumeric parses string-typed numerics and maps null to 0.0; numeric
// fields are never null downstream. A value that fails to parse is kept as-is.
func (t *Transformer) coerceNumeric(key string, value any) any {
	if s, ok := value.(string); ok {
		if strings.Contains(s, ".") {
			parsed, err := strconv.ParseFloat(s, 64)
			if err != nil {
				t.log.Warn("could not convert string to number", "key", key, "value", s)
				return s
			}
			value = parsed
		} else {
			parsed, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				t.log.Warn("could not convert string to number", "key", key, "value", s)
				return s
			}
			value = parsed
		}
	}

	if value == nil {
		return 0.0
	}
	return value
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}
