package utils

import "strings"

// CleanText collapses runs of whitespace into single spaces and trims the
// result, approximating the text a browser renders for an element.
func CleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
