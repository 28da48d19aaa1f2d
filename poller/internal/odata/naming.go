package odata

import (
	"strings"
	"unicode"
)

// ToSnakeCase converts PascalCase/camelCase vendor field names to snake_case.
// A new word starts at an uppercase letter that follows a lowercase letter or
// digit, and at the last capital of an acronym run when a capitalized word
// follows it: "AmountUSD" -> "amount_usd", "AnID" -> "an_id",
// "Account_ObjectId" -> "account_object_id". Snake_case input passes through
// unchanged, so the conversion is idempotent.
func ToSnakeCase(name string) string {
	runes := []rune(name)
	var words []string
	var current []rune

	flush := func() {
		if len(current) > 0 {
			words = append(words, strings.ToLower(string(current)))
			current = current[:0]
		}
	}

	for i, r := range runes {
		switch {
		case r == '_' || r == ' ':
			flush()
		case unicode.IsUpper(r):
			var prev, next rune
			if i > 0 {
				prev = runes[i-1]
			}
			if i+1 < len(runes) {
				next = runes[i+1]
			}
			if unicode.IsLower(prev) || unicode.IsDigit(prev) {
				flush()
			} else if unicode.IsUpper(prev) && unicode.IsLower(next) {
				// The acronym run ends here; this capital starts the next word.
				flush()
			}
			current = append(current, r)
		default:
			current = append(current, r)
		}
	}
	flush()

	return strings.Join(words, "_")
}
