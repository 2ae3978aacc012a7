package scenario

import (
	"regexp"
	"slices"
)

// Rule is one row of a scenario's feature table. A tag is present iff its
// pattern matches anywhere in the input; a non-empty Input is appended to the
// read order when the tag is present.
type Rule struct {
	Tag     string
	Pattern *regexp.Regexp
	Input   string
}

func rule(tag, pattern, input string) Rule {
	return Rule{Tag: tag, Pattern: regexp.MustCompile("(?i)" + pattern), Input: input}
}

// matchRules evaluates rules in table order.
func matchRules(rules []Rule, raw string) (tags, inputs []string) {
	tags = []string{}
	inputs = []string{}
	for _, r := range rules {
		if !r.Pattern.MatchString(raw) {
			continue
		}
		tags = append(tags, r.Tag)
		if r.Input != "" {
			inputs = appendUnique(inputs, r.Input)
		}
	}
	return tags, inputs
}

// firstMatch returns the tag of the first matching rule, or fallback.
func firstMatch(rules []Rule, raw, fallback string) string {
	for _, r := range rules {
		if r.Pattern.MatchString(raw) {
			return r.Tag
		}
	}
	return fallback
}

func appendUnique(list []string, v string) []string {
	if slices.Contains(list, v) {
		return list
	}
	return append(list, v)
}
