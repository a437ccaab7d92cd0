package domain

// ProcessGroups returns a copy of groups with each group's items reordered by
// the stored shuffle permutation. order lists item paths in their shuffled
// sequence; items present in order come first in that sequence, items absent
// from it keep their original relative order after them. Applying the same
// order twice yields the same result. With shuffle disabled or an empty
// order, groups are returned unchanged.
func ProcessGroups(groups []Group, shuffleEnabled bool, order []string) []Group {
	if !shuffleEnabled || len(order) == 0 {
		return groups
	}

	rank := make(map[string]int, len(order))
	for i, path := range order {
		if _, seen := rank[path]; !seen {
			rank[path] = i
		}
	}

	out := make([]Group, len(groups))
	for gi, g := range groups {
		out[gi] = Group{Key: g.Key, Label: g.Label, Items: permuteItems(g.Items, rank)}
	}
	return out
}

func permuteItems(items []Item, rank map[string]int) []Item {
	ranked := make([]Item, 0, len(items))
	rest := make([]Item, 0)
	for _, it := range items {
		if _, ok := rank[it.Path]; ok {
			ranked = append(ranked, it)
		} else {
			rest = append(rest, it)
		}
	}
	// Insertion sort keeps this stable for duplicate ranks.
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && rank[ranked[j].Path] < rank[ranked[j-1].Path]; j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}
	return append(ranked, rest...)
}

// TakeVisible walks groups in order, consuming up to cursor items without
// splitting a group's internal order. Groups with no items are skipped. The
// final group may contribute a strict prefix of its items.
func TakeVisible(groups []Group, cursor int) []Group {
	if cursor <= 0 {
		return nil
	}
	out := make([]Group, 0, len(groups))
	budget := cursor
	for _, g := range groups {
		if len(g.Items) == 0 {
			continue
		}
		take := len(g.Items)
		if take > budget {
			take = budget
		}
		out = append(out, Group{Key: g.Key, Label: g.Label, Items: g.Items[:take]})
		budget -= take
		if budget == 0 {
			break
		}
	}
	return out
}
