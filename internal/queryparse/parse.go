// Package queryparse implements the Query Parser: turning a raw customer
// query into structured filters the Hybrid Retriever can apply directly.
package queryparse

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopsage/shopsage/internal/models"
)

// ParsedQuery is the structured output of Parse.
type ParsedQuery struct {
	CleanedText string
	Category    models.Category
	HasCategory bool
	Brand       string
	HasBrand    bool
	PriceMax    float64
	HasPriceMax bool
}

var priceRegex = regexp.MustCompile(`(?i)\b(?:under|below)\s*\$?\s*(\d+(?:\.\d+)?)\b`)

// Parse extracts {cleaned_text, category?, brand?, price_max?} from a raw
// query string. Parse never fails and is pure: the same input always
// produces the same output.
func Parse(raw string) *ParsedQuery {
	text := strings.ToLower(strings.TrimSpace(raw))
	text = stripSurroundingQuotes(text)

	pq := &ParsedQuery{}

	if loc := priceRegex.FindStringSubmatchIndex(text); loc != nil {
		amountStr := text[loc[2]:loc[3]]
		if amount, err := strconv.ParseFloat(amountStr, 64); err == nil {
			pq.PriceMax = amount
			pq.HasPriceMax = true
			text = text[:loc[0]] + " " + text[loc[1]:]
		}
	}

	for _, cat := range models.Categories {
		matched := false
		for _, kw := range models.CategoryKeywords[cat] {
			if span, ok := findWholeWordSpan(text, kw); ok {
				text = text[:span[0]] + " " + text[span[1]:]
				matched = true
				break
			}
		}
		if matched {
			pq.Category = cat
			pq.HasCategory = true
			break
		}
	}

	for _, brand := range models.Brands {
		if span, ok := findWholeWordSpan(text, strings.ToLower(brand)); ok {
			text = text[:span[0]] + " " + text[span[1]:]
			pq.Brand = brand
			pq.HasBrand = true
			break
		}
	}

	pq.CleanedText = collapseWhitespace(text)
	return pq
}

// stripSurroundingQuotes removes a single matching pair of leading/trailing
// quote characters, if present.
func stripSurroundingQuotes(s string) string {
	if len(s) < 2 {
		return s
	}
	first, last := s[0], s[len(s)-1]
	if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
		return strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

// findWholeWordSpan returns the [start, end) byte span of needle within
// haystack as a whole word (not a substring of a larger word), or false.
func findWholeWordSpan(haystack, needle string) ([2]int, bool) {
	start := 0
	for {
		idx := strings.Index(haystack[start:], needle)
		if idx == -1 {
			return [2]int{}, false
		}
		begin := start + idx
		end := begin + len(needle)
		if isWordBoundary(haystack, begin) && isWordBoundary(haystack, end) {
			return [2]int{begin, end}, true
		}
		start = begin + 1
	}
}

func isWordBoundary(s string, pos int) bool {
	if pos <= 0 || pos >= len(s) {
		return true
	}
	return !isWordChar(rune(s[pos-1])) || !isWordChar(rune(s[pos]))
}

func isWordChar(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
