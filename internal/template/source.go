package template

import "strings"

// Source produces template text for a call of a given arity.
type Source interface {
	Text(arity int) string
}

// Fixed is template text that does not depend on arity.
type Fixed string

func (f Fixed) Text(int) string { return string(f) }

// Joined builds one slot per argument: Prefix, then Slot repeated arity
// times separated by Sep, then Suffix. With Prefix "Locale.of(", Slot
// "#{any(String)}", Sep ", " and Suffix ")", arity 2 gives
// Locale.of(#{any(String)}, #{any(String)}).
type Joined struct {
	Prefix string
	Slot   string
	Sep    string
	Suffix string
}

func (j Joined) Text(arity int) string {
	var b strings.Builder
	b.WriteString(j.Prefix)
	for i := 0; i < arity; i++ {
		if i > 0 {
			b.WriteString(j.Sep)
		}
		b.WriteString(j.Slot)
	}
	b.WriteString(j.Suffix)
	return b.String()
}
