package manifest

import "strings"

// DetectFormatting infers the indentation unit and trailing newline of a
// JSON-family source text.
//
// The indent is the most frequent change in leading whitespace between
// consecutive non-empty lines. Runs of one space are ignored unless nothing
// else is indented, and ties go to the indent that repeats on more lines.
// Unindented text yields "".
func DetectFormatting(text string) Formatting {
	return Formatting{
		Indent:             detectIndent(text),
		InsertFinalNewline: strings.HasSuffix(text, "\n"),
	}
}

type indentKey struct {
	tab  bool
	size int
}

type indentStat struct {
	used   int
	weight int
}

func detectIndent(text string) string {
	keys, stats := indentStats(text, true)
	if len(keys) == 0 {
		keys, stats = indentStats(text, false)
	}
	var (
		best  indentKey
		found bool
		top   indentStat
	)
	for _, k := range keys {
		s := stats[k]
		if !found || s.used > top.used || (s.used == top.used && s.weight > top.weight) {
			best, top, found = k, s, true
		}
	}
	if !found || best.size == 0 {
		return ""
	}
	unit := " "
	if best.tab {
		unit = "\t"
	}
	return strings.Repeat(unit, best.size)
}

// indentStats tallies indentation deltas in first-seen order.
func indentStats(text string, ignoreSingleSpaces bool) ([]indentKey, map[indentKey]indentStat) {
	var keys []indentKey
	stats := make(map[indentKey]indentStat)
	var (
		prevSize int
		prevTab  bool
		prevSet  bool
		current  indentKey
		hasKey   bool
	)
	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			continue
		}
		size, tab := leadingIndent(line)
		if size == 0 {
			prevSize, prevSet = 0, false
			continue
		}
		if ignoreSingleSpaces && !tab && size == 1 {
			continue
		}
		if !prevSet || tab != prevTab {
			prevSize = 0
		}
		prevTab, prevSet = tab, true

		weight := 0
		diff := size - prevSize
		prevSize = size
		if diff == 0 {
			weight = 1
		} else {
			if diff < 0 {
				diff = -diff
			}
			current, hasKey = indentKey{tab: tab, size: diff}, true
		}
		if !hasKey {
			continue
		}
		s, seen := stats[current]
		if !seen {
			keys = append(keys, current)
			s = indentStat{used: 1}
		} else {
			s.used++
			s.weight += weight
		}
		stats[current] = s
	}
	return keys, stats
}

// leadingIndent returns the length of the leading run of spaces, or of
// tabs, and whether that run is tabs.
func leadingIndent(line string) (int, bool) {
	switch line[0] {
	case ' ':
		return len(line) - len(strings.TrimLeft(line, " ")), false
	case '\t':
		return len(line) - len(strings.TrimLeft(line, "\t")), true
	}
	return 0, false
}
