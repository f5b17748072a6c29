package catalog

import (
	"strings"

	"github.com/platinummonkey/mockapi/pkg/apierrors"
)

// Collection identifies one of the fixed catalog collections
type Collection int

const (
	Schools Collection = iota + 1
	Units
	UnitOfferings
	Readings
	ReadingLists
	ReadingListUsages
	ReadingListItems
	ReadingListItemUsages
	ReadingUtilisations
	IntegrationUsers
	TeachingSessions
	Users
)

type collectionInfo struct {
	name       string
	fixtureKey string
}

var collectionTable = map[Collection]collectionInfo{
	Schools:               {"schools", "schools"},
	Units:                 {"units", "units"},
	UnitOfferings:         {"unit-offerings", "unitOfferings"},
	Readings:              {"readings", "readings"},
	ReadingLists:          {"reading-lists", "readingLists"},
	ReadingListUsages:     {"reading-list-usages", "readingListUsages"},
	ReadingListItems:      {"reading-list-items", "readingListItems"},
	ReadingListItemUsages: {"reading-list-item-usages", "readingListItemUsages"},
	ReadingUtilisations:   {"reading-utilisations", "readingUtilisations"},
	IntegrationUsers:      {"integration-users", "integrationUsers"},
	TeachingSessions:      {"teaching-sessions", "teachingSessions"},
	Users:                 {"users", "users"},
}

// All returns every collection in declaration order
func All() []Collection {
	out := make([]Collection, 0, len(collectionTable))
	for c := Schools; c <= Users; c++ {
		out = append(out, c)
	}
	return out
}

// Public returns the collections exposed as list/get endpoints. users is
// only reachable through login.
func Public() []Collection {
	all := All()
	return all[:len(all)-1]
}

// ParseCollection resolves a route name (unit-offerings), fixture key
// (unitOfferings) or snake_case name (unit_offerings).
func ParseCollection(name string) (Collection, error) {
	norm := strings.ReplaceAll(name, "_", "-")
	for c, info := range collectionTable {
		if info.name == norm || info.fixtureKey == name {
			return c, nil
		}
	}
	return 0, apierrors.NotFound("Collection %s not found", name)
}

// Valid reports whether c is a known collection
func (c Collection) Valid() bool {
	_, ok := collectionTable[c]
	return ok
}

// String returns the hyphenated route name
func (c Collection) String() string {
	if info, ok := collectionTable[c]; ok {
		return info.name
	}
	return "unknown"
}

// Type returns the JSON:API resource type
func (c Collection) Type() string {
	return c.String()
}

// FixtureKey returns the top-level key holding the collection in the data document
func (c Collection) FixtureKey() string {
	return collectionTable[c].fixtureKey
}

// lookupKeys lists the document keys tried when loading c, in order
func (c Collection) lookupKeys() []string {
	info := collectionTable[c]
	keys := []string{info.fixtureKey}
	if info.name != info.fixtureKey {
		keys = append(keys, info.name, strings.ReplaceAll(info.name, "-", "_"))
	}
	return keys
}
