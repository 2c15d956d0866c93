package core

import "sort"

// RosterDiff is the selectable change set between a dues event's current
// roster and an authoritative member list. Both slices are sorted so the
// same inputs always produce the same diff.
type RosterDiff struct {
	ToAdd    []string
	ToRemove []string
}

// Empty reports whether the diff carries no changes.
func (d RosterDiff) Empty() bool {
	return len(d.ToAdd) == 0 && len(d.ToRemove) == 0
}

// DiffRoster computes the set difference between the current roster and
// the authoritative member list, joined on member name.
//
// ToAdd is authoritative minus current, ToRemove is current minus
// authoritative. The diff is advisory: the caller may apply any subset,
// and either list may be stale by the time it is committed. Known
// limitation: the join key is a bare name, so renames and name
// collisions reconcile incorrectly.
func DiffRoster(current, authoritative []string) RosterDiff {
	currentSet := toSet(current)
	authoritativeSet := toSet(authoritative)

	diff := RosterDiff{ToAdd: []string{}, ToRemove: []string{}}
	for name := range authoritativeSet {
		if _, ok := currentSet[name]; !ok {
			diff.ToAdd = append(diff.ToAdd, name)
		}
	}
	for name := range currentSet {
		if _, ok := authoritativeSet[name]; !ok {
			diff.ToRemove = append(diff.ToRemove, name)
		}
	}
	sort.Strings(diff.ToAdd)
	sort.Strings(diff.ToRemove)
	return diff
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		set[n] = struct{}{}
	}
	return set
}
