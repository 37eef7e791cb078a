package ics

import "strings"

// UnfoldLines joins folded physical lines into logical property lines.
//
// Per the iCalendar folding convention, a line beginning with a single space
// or horizontal tab continues the previous logical line; exactly the first
// character is stripped and the remainder appended. The first line is never
// a continuation. There are no error conditions: a leading continuation with
// no prior line is kept as a standalone line.
func UnfoldLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	unfolded := make([]string, 0)
	for _, line := range strings.Split(text, "\n") {
		if len(unfolded) > 0 && (strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")) {
			unfolded[len(unfolded)-1] += line[1:]
			continue
		}
		unfolded = append(unfolded, line)
	}
	return unfolded
}

// parseProperty splits a logical line of the form
//
//	NAME[;PARAM=VALUE[;PARAM=VALUE...]]:VALUE
//
// into its property name (uppercased), parameter map (uppercased parameter
// names, last duplicate wins) and raw value. Lines without a ':' separator
// report ok=false and are skipped by callers.
func parseProperty(line string) (name string, params map[string]string, value string, ok bool) {
	left, value, found := strings.Cut(line, ":")
	if !found {
		return "", nil, "", false
	}

	segments := strings.Split(left, ";")
	name = strings.ToUpper(segments[0])

	params = make(map[string]string, len(segments)-1)
	for _, seg := range segments[1:] {
		if pname, pvalue, has := strings.Cut(seg, "="); has {
			params[strings.ToUpper(pname)] = pvalue
		}
	}
	return name, params, value, true
}

// UnescapeText decodes iCalendar TEXT escaping in a single left-to-right
// scan: `\\` -> `\`, `\n`/`\N` -> newline, `\,` -> `,`, `\;` -> `;`.
//
// Scanning once avoids the double-unescape trap of sequential whole-string
// substitution: `\\n` decodes to a literal backslash followed by 'n', never
// a newline. Unrecognized escapes pass through unchanged.
func UnescapeText(s string) string {
	if !strings.Contains(s, "\\") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case '\\':
			b.WriteByte('\\')
		case 'n', 'N':
			b.WriteByte('\n')
		case ',':
			b.WriteByte(',')
		case ';':
			b.WriteByte(';')
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
