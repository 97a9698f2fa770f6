// Package query extracts structured filters from free-text search queries
// using fixed regex patterns, so price and rating constraints are applied
// identically on every call instead of depending on an upstream model.
package query

import (
	"regexp"
	"strconv"
	"strings"
)

// Sort orders recognised in queries.
const (
	SortPriceAsc  = "price_low_to_high"
	SortPriceDesc = "price_high_to_low"
	SortRating    = "rating"
	SortPopular   = "popular"
)

// Parsed is the structured view of a query. Zero values mean "not present";
// MinPrice/MaxPrice/MinRating use pointers so 0 remains expressible.
type Parsed struct {
	Original  string
	Clean     string // query with filter phrases removed, for matching
	MinPrice  *float64
	MaxPrice  *float64
	MinRating *float64
	SortBy    string
	Followup  bool
}

var (
	rangeRe   = regexp.MustCompile(`(?i)(?:from|between)\s*\$?\s*(\d+(?:\.\d+)?)\s*(?:to|and|-)\s*\$?\s*(\d+(?:\.\d+)?)`)
	bareRange = regexp.MustCompile(`(?i)\$?\s*(\d+(?:\.\d+)?)\s*-\s*\$?\s*(\d+(?:\.\d+)?)\s*(?:dollars?|bucks?|\$)`)
	underRe   = regexp.MustCompile(`(?i)(?:under|below|less\s+than|cheaper\s+than)\s*\$?\s*(\d+(?:\.\d+)?)`)
	overRe    = regexp.MustCompile(`(?i)(?:over|above|more\s+than|greater\s+than)\s*\$?\s*(\d+(?:\.\d+)?)`)
	aroundRe  = regexp.MustCompile(`(?i)(?:around|about|approximately)\s*\$?\s*(\d+(?:\.\d+)?)`)
	directRe  = regexp.MustCompile(`(?i)\$\s*(\d+(?:\.\d+)?)|(\d+(?:\.\d+)?)\s*(?:dollars?|bucks?)`)

	starsRe     = regexp.MustCompile(`(?i)(\d(?:\.\d+)?)\s*\+?\s*stars?`)
	ratedHighRe = regexp.MustCompile(`(?i)(?:highly|top|best)\s+rated`)

	followupRe = regexp.MustCompile(`(?i)\b(?:more|another|next|else|other|similar|additional)\b`)

	priceStrip = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:from|between)\s*\$?\s*\d+(?:\.\d+)?\s*(?:to|and|-)\s*\$?\s*\d+(?:\.\d+)?(?:\s*(?:dollars?|bucks?|\$))?`),
		regexp.MustCompile(`(?i)(?:under|below|less\s+than|cheaper\s+than|over|above|more\s+than|greater\s+than)\s*\$?\s*\d+(?:\.\d+)?(?:\s*(?:dollars?|bucks?|\$))?`),
		regexp.MustCompile(`(?i)(?:around|about|approximately)\s*\$?\s*\d+(?:\.\d+)?(?:\s*(?:dollars?|bucks?|\$))?`),
		regexp.MustCompile(`(?i)\$\s*\d+(?:\.\d+)?`),
		regexp.MustCompile(`(?i)\d+(?:\.\d+)?\s*(?:dollars?|bucks?)`),
		regexp.MustCompile(`(?i)\d(?:\.\d+)?\s*\+?\s*stars?(?:\s+and\s+up)?`),
		regexp.MustCompile(`(?i)(?:highly|top|best)\s+rated`),
	}

	sortKeywords = []struct {
		phrase string
		sort   string
	}{
		{"cheapest", SortPriceAsc},
		{"lowest price", SortPriceAsc},
		{"budget", SortPriceAsc},
		{"affordable", SortPriceAsc},
		{"most expensive", SortPriceDesc},
		{"highest price", SortPriceDesc},
		{"premium", SortPriceDesc},
		{"luxury", SortPriceDesc},
		{"best rated", SortRating},
		{"top rated", SortRating},
		{"highest rating", SortRating},
		{"most reviewed", SortPopular},
		{"popular", SortPopular},
		{"best selling", SortPopular},
	}
)

// Parse extracts price, rating, sort and follow-up signals from a query.
func Parse(q string) Parsed {
	lower := strings.ToLower(strings.TrimSpace(q))
	p := Parsed{Original: q, Clean: lower}
	if lower == "" {
		return p
	}

	parsePrice(lower, &p)
	parseRating(lower, &p)
	for _, kw := range sortKeywords {
		if strings.Contains(lower, kw.phrase) {
			p.SortBy = kw.sort
			break
		}
	}
	p.Followup = followupRe.MatchString(lower)

	clean := lower
	for _, re := range priceStrip {
		clean = re.ReplaceAllString(clean, " ")
	}
	for _, kw := range sortKeywords {
		clean = strings.ReplaceAll(clean, kw.phrase, " ")
	}
	p.Clean = strings.Join(strings.Fields(clean), " ")
	return p
}

func parsePrice(q string, p *Parsed) {
	if m := rangeRe.FindStringSubmatch(q); m != nil {
		p.MinPrice = parseFloat(m[1])
		p.MaxPrice = parseFloat(m[2])
		return
	}
	if m := bareRange.FindStringSubmatch(q); m != nil {
		p.MinPrice = parseFloat(m[1])
		p.MaxPrice = parseFloat(m[2])
		return
	}
	if m := underRe.FindStringSubmatch(q); m != nil {
		p.MaxPrice = parseFloat(m[1])
		return
	}
	if m := overRe.FindStringSubmatch(q); m != nil {
		p.MinPrice = parseFloat(m[1])
		return
	}
	if m := aroundRe.FindStringSubmatch(q); m != nil {
		// "around $50" becomes a +-20% window.
		if v := parseFloat(m[1]); v != nil {
			lo, hi := *v*0.8, *v*1.2
			p.MinPrice, p.MaxPrice = &lo, &hi
		}
		return
	}
	if m := directRe.FindStringSubmatch(q); m != nil {
		raw := m[1]
		if raw == "" {
			raw = m[2]
		}
		// A bare price mention means "up to this much".
		p.MaxPrice = parseFloat(raw)
	}
}

func parseRating(q string, p *Parsed) {
	if m := starsRe.FindStringSubmatch(q); m != nil {
		p.MinRating = parseFloat(m[1])
		return
	}
	if ratedHighRe.MatchString(q) {
		v := 4.0
		p.MinRating = &v
	}
}

func parseFloat(s string) *float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
