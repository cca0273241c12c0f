package models

import "strings"

// SectionUnassigned is the sentinel section of a member who has not joined one yet.
const SectionUnassigned = "unassigned"

// Section describes one instrument section.
type Section struct {
	ID   string
	Name string
	Icon string
}

// Sections is the fixed section enumeration. Its order breaks ties between
// sections with equal totals.
var Sections = []Section{
	{ID: "trumpets", Name: "Trumpets", Icon: "🎺"},
	{ID: "clarinets", Name: "Clarinets", Icon: "🎵"},
	{ID: "trombones", Name: "Trombones", Icon: "🎺"},
	{ID: "flutes", Name: "Flutes", Icon: "🎶"},
	{ID: "percussion", Name: "Percussion", Icon: "🥁"},
	{ID: "saxophones", Name: "Saxophones", Icon: "🎷"},
	{ID: "euphoniums", Name: "Euphoniums", Icon: "🎺"},
	{ID: "tubas", Name: "Tubas", Icon: "🎺"},
	{ID: "drum majors", Name: "Drum Majors", Icon: "🎖️"},
}

// LookupSection returns the section with the given ID, matched case-insensitively.
func LookupSection(id string) (Section, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, s := range Sections {
		if s.ID == id {
			return s, true
		}
	}
	return Section{}, false
}

// SectionIndex returns the enumeration position of a section ID, or -1.
func SectionIndex(id string) int {
	for i, s := range Sections {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// ValidSection reports whether id may be stored in Member.Section.
func ValidSection(id string) bool {
	if id == SectionUnassigned {
		return true
	}
	_, ok := LookupSection(id)
	return ok
}
