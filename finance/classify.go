package finance

import "strings"

// SeriesKind names the record series a table row is filed under.
type SeriesKind int

const (
	SeriesNone SeriesKind = iota
	SeriesRevenue
	SeriesProfit
	SeriesMargin
)

func (k SeriesKind) String() string {
	switch k {
	case SeriesRevenue:
		return "revenue"
	case SeriesProfit:
		return "profit"
	case SeriesMargin:
		return "margin"
	}
	return "none"
}

// Rule files a row label under Target when Match accepts it.
type Rule struct {
	Name   string
	Match  func(label string) bool
	Target SeriesKind
}

// DefaultRules is evaluated top to bottom; the first matching rule wins.
// Operating profit, EBITDA and net profit rows all land in the profit series.
var DefaultRules = []Rule{
	{Name: "revenue", Match: containsAny("Sales", "Revenue"), Target: SeriesRevenue},
	{Name: "operating-profit", Match: containsAny("Operating Profit", "EBITDA"), Target: SeriesProfit},
	{Name: "net-profit", Match: containsAny("Net Profit"), Target: SeriesProfit},
	{Name: "margin", Match: containsFold("margin"), Target: SeriesMargin},
}

// Classify returns the target of the first rule matching label.
func Classify(label string, rules []Rule) (SeriesKind, bool) {
	for _, r := range rules {
		if r.Match(label) {
			return r.Target, true
		}
	}
	return SeriesNone, false
}

func containsAny(subs ...string) func(string) bool {
	return func(label string) bool {
		for _, s := range subs {
			if strings.Contains(label, s) {
				return true
			}
		}
		return false
	}
}

func containsFold(sub string) func(string) bool {
	sub = strings.ToLower(sub)
	return func(label string) bool {
		return strings.Contains(strings.ToLower(label), sub)
	}
}
