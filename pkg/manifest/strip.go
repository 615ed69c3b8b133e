package manifest

import "strings"

// StripComments removes trailing '#' comments from every line of text.
//
// It is a heuristic and does not catch every case. A line whose text before
// the first '#' holds an odd number of single quotes is assumed to have the
// '#' inside a quoted string and is kept untouched, so a line like
//
//	x => 'blah # something ' # comment
//
// keeps its trailing comment. Lines that are empty once the comment is
// removed are dropped.
//
// The returned line map holds, for every line of the stripped text, the
// 1-based line number it came from in the input.
func StripComments(text string) (string, []int) {
	var (
		out     []string
		lineMap []int
	)
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		idx := strings.IndexByte(line, '#')
		if idx < 0 {
			if line == "" {
				continue
			}
			out = append(out, line)
			lineMap = append(lineMap, i+1)
			continue
		}

		prefix := line[:idx]
		if strings.Count(prefix, "'")%2 == 1 {
			out = append(out, line)
			lineMap = append(lineMap, i+1)
			continue
		}
		if prefix == "" {
			continue
		}
		out = append(out, prefix)
		lineMap = append(lineMap, i+1)
	}
	return strings.Join(out, "\n"), lineMap
}
