package catalog

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// SearchLocales ranks locales against a free-form query. Names and hex ids both
// match. An empty query returns every locale.
func (c *Catalog) SearchLocales(query string) []*Locale {
	all := c.Locales()
	labels := make([]string, len(all))
	for i, l := range all {
		labels[i] = l.Key() + " " + l.Name
	}
	idx := rank(query, labels)
	if idx == nil {
		return all
	}
	out := make([]*Locale, len(idx))
	for i, j := range idx {
		out[i] = all[j]
	}
	return out
}

// SearchLayouts ranks layouts against a free-form query.
func (c *Catalog) SearchLayouts(query string) []*Layout {
	all := c.Layouts()
	labels := make([]string, len(all))
	for i, l := range all {
		labels[i] = l.Key() + " " + l.Name
	}
	idx := rank(query, labels)
	if idx == nil {
		return all
	}
	out := make([]*Layout, len(idx))
	for i, j := range idx {
		out[i] = all[j]
	}
	return out
}

// rank returns the indexes of matching labels, best first, or nil for an empty query.
func rank(query string, labels []string) []int {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil
	}
	ranks := fuzzy.RankFindNormalizedFold(trimmed, labels)
	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].Distance != ranks[j].Distance {
			return ranks[i].Distance < ranks[j].Distance
		}
		return ranks[i].OriginalIndex < ranks[j].OriginalIndex
	})
	out := make([]int, len(ranks))
	for i, r := range ranks {
		out[i] = r.OriginalIndex
	}
	return out
}
