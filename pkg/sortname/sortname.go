// Package sortname derives "Last, First" sort keys for authors whose package document carries no file-as.
package sortname

import (
	"strings"
)

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = struct{}{}
	}
	return set
}

// Honorifics are dropped.
var honorifics = wordSet(
	"Dr.", "Dr", "Mr.", "Mr", "Mrs.", "Mrs", "Ms.", "Ms", "Prof.", "Prof", "Rev.", "Rev",
	"Fr.", "Fr", "Sir", "Dame", "Lord", "Lady",
)

// Generational suffixes are kept at the end since they tell people apart.
var generational = wordSet(
	"Jr.", "Jr", "Sr.", "Sr", "Junior", "Senior", "I", "II", "III", "IV", "V",
)

// Credentials are dropped.
var credentials = wordSet(
	"PhD", "Ph.D", "Ph.D.", "PsyD", "Psy.D", "Psy.D.", "MD", "M.D", "M.D.", "DO", "D.O", "D.O.",
	"DDS", "D.D.S", "D.D.S.", "JD", "J.D", "J.D.", "EdD", "Ed.D", "Ed.D.", "LLD", "LL.D", "LL.D.",
	"MBA", "M.B.A", "M.B.A.", "MS", "M.S", "M.S.", "MA", "M.A", "M.A.", "BA", "B.A", "B.A.",
	"BS", "B.S", "B.S.", "RN", "R.N", "R.N.", "Esq", "Esq.",
)

func in(set map[string]struct{}, word string) bool {
	_, ok := set[strings.ToLower(strings.TrimSuffix(word, ","))]
	return ok
}

// ForPerson turns a display name into a sort key.
//
//   - "Stephen King" -> "King, Stephen"
//   - "Martin Luther King Jr." -> "King, Martin Luther, Jr."
//   - "Dr. Jane Doe PhD" -> "Doe, Jane"
//   - "Ludwig van Beethoven" -> "Beethoven, Ludwig van"
//
// A name that already contains a comma is assumed to be in sort order and is returned trimmed.
func ForPerson(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || strings.Contains(name, ",") {
		return name
	}

	parts := strings.Fields(name)
	if len(parts) == 1 {
		return name
	}

	for len(parts) > 1 && in(honorifics, parts[0]) {
		parts = parts[1:]
	}

	var suffixes []string
	for len(parts) > 1 {
		last := parts[len(parts)-1]
		if in(generational, last) {
			suffixes = append([]string{last}, suffixes...)
		} else if !in(credentials, last) {
			break
		}
		parts = parts[:len(parts)-1]
	}

	// Particles stay with the given names.
	key := []string{parts[len(parts)-1]}
	if given := parts[:len(parts)-1]; len(given) > 0 {
		key = append(key, strings.Join(given, " "))
	}
	key = append(key, suffixes...)

	return strings.Join(key, ", ")
}
