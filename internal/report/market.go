package report

import "strings"

// InferMarket guesses the market and its timezone from symbol suffixes.
// Mixed universes resolve to the first matching suffix rule; default is US.
func InferMarket(symbols []string) (market, timezone string) {
	rules := []struct {
		suffix, market, tz string
	}{
		{".HK", "Hong Kong", "Asia/Hong_Kong"},
		{".L", "UK", "Europe/London"},
		{".T", "Japan", "Asia/Tokyo"},
	}
	for _, rule := range rules {
		for _, s := range symbols {
			if strings.HasSuffix(strings.ToUpper(s), rule.suffix) {
				return rule.market, rule.tz
			}
		}
	}
	return "US", "America/New_York"
}
