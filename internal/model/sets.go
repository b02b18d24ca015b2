package model

import "sort"

// TagSet is an immutable set of tags ordered by ID.
// Build one with NewTagSet; the zero value is the empty set.
type TagSet []TagRef

// NewTagSet returns a set of the given tags, deduplicated by ID.
func NewTagSet(tags ...TagRef) TagSet {
	if len(tags) == 0 {
		return TagSet{}
	}
	out := make(TagSet, 0, len(tags))
	seen := make(map[int64]bool, len(tags))
	for _, t := range tags {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Contains reports whether a tag with the given ID is in the set.
func (s TagSet) Contains(id int64) bool {
	i := sort.Search(len(s), func(i int) bool { return s[i].ID >= id })
	return i < len(s) && s[i].ID == id
}

// With returns a new set that also holds t.
func (s TagSet) With(t TagRef) TagSet {
	return NewTagSet(append(s.clone(), t)...)
}

// Without returns a new set with the tag ID removed.
func (s TagSet) Without(id int64) TagSet {
	out := make(TagSet, 0, len(s))
	for _, t := range s {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}

// Union returns a new set holding the tags of both sets.
func (s TagSet) Union(other TagSet) TagSet {
	return NewTagSet(append(s.clone(), other...)...)
}

// Names returns the tag names, sorted.
func (s TagSet) Names() []string {
	names := make([]string, len(s))
	for i, t := range s {
		names[i] = t.Name
	}
	sort.Strings(names)
	return names
}

func (s TagSet) clone() TagSet {
	out := make(TagSet, len(s))
	copy(out, s)
	return out
}

// GroupSet is an immutable, sorted set of group IDs.
type GroupSet []GroupID

// NewGroupSet returns a sorted, deduplicated set of the given IDs.
func NewGroupSet(ids ...GroupID) GroupSet {
	if len(ids) == 0 {
		return GroupSet{}
	}
	out := make(GroupSet, 0, len(ids))
	seen := make(map[GroupID]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Contains reports whether id is in the set.
func (s GroupSet) Contains(id GroupID) bool {
	i := sort.Search(len(s), func(i int) bool { return s[i] >= id })
	return i < len(s) && s[i] == id
}

// With returns a new set that also holds id.
func (s GroupSet) With(id GroupID) GroupSet {
	out := make(GroupSet, len(s), len(s)+1)
	copy(out, s)
	return NewGroupSet(append(out, id)...)
}

// Without returns a new set with the given IDs removed.
func (s GroupSet) Without(ids ...GroupID) GroupSet {
	drop := NewGroupSet(ids...)
	out := make(GroupSet, 0, len(s))
	for _, id := range s {
		if !drop.Contains(id) {
			out = append(out, id)
		}
	}
	return out
}

// Union returns a new set holding the IDs of both sets.
func (s GroupSet) Union(other GroupSet) GroupSet {
	out := make(GroupSet, 0, len(s)+len(other))
	out = append(out, s...)
	return NewGroupSet(append(out, other...)...)
}
