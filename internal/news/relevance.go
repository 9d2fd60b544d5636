package news

import (
	"regexp"
	"strings"
	"sync"
)

// DefaultKeywords decide whether an item is about the subject.
var DefaultKeywords = []string{"adam sandler", "sandler", "happy madison", "netflix", "comedy"}

var (
	wordRegexpMu sync.Mutex
	wordRegexps  = map[string]*regexp.Regexp{}
)

// ContainsAny reports whether text mentions any keyword. Phrases and long
// words match as substrings; words of three letters or fewer must match as
// whole words so that "ai" does not hit "said".
func ContainsAny(text string, keywords []string) bool {
	text = strings.ToLower(text)

	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}

		if strings.Contains(k, " ") || len(k) > 3 {
			if strings.Contains(text, k) {
				return true
			}
			continue
		}

		if wordRegexp(k).MatchString(text) {
			return true
		}
	}
	return false
}

func wordRegexp(k string) *regexp.Regexp {
	wordRegexpMu.Lock()
	defer wordRegexpMu.Unlock()
	re, ok := wordRegexps[k]
	if !ok {
		re = regexp.MustCompile(`\b` + regexp.QuoteMeta(k) + `\b`)
		wordRegexps[k] = re
	}
	return re
}

// IsRelevant tests title and body against keywords, or DefaultKeywords when
// none are given. It has no side effects.
func (n *News) IsRelevant(keywords []string) bool {
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	return ContainsAny(n.Title+" "+n.Content, keywords)
}

// FilterRelevant keeps relevant items in their original order.
func FilterRelevant(items []*News, keywords []string) []*News {
	out := make([]*News, 0, len(items))
	for _, n := range items {
		if n.IsRelevant(keywords) {
			out = append(out, n)
		}
	}
	return out
}
