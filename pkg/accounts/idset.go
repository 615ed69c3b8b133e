package accounts

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Range is an inclusive range of numeric ids.
type Range struct {
	Start int
	End   int
}

// ParseRange parses "1000-2000" or a single id such as "1000".
func ParseRange(s string) (Range, error) {
	s = strings.TrimSpace(s)
	startStr, endStr, found := strings.Cut(s, "-")
	if !found {
		endStr = startStr
	}
	start, err := strconv.Atoi(strings.TrimSpace(startStr))
	if err != nil {
		return Range{}, fmt.Errorf("invalid id range %q: %w", s, err)
	}
	end, err := strconv.Atoi(strings.TrimSpace(endStr))
	if err != nil {
		return Range{}, fmt.Errorf("invalid id range %q: %w", s, err)
	}
	if start > end {
		return Range{}, fmt.Errorf("invalid id range %q: start is greater than end", s)
	}
	return Range{Start: start, End: end}, nil
}

// ParseRanges parses every element with ParseRange.
func ParseRanges(specs []string) ([]Range, error) {
	ranges := make([]Range, 0, len(specs))
	for _, s := range specs {
		r, err := ParseRange(s)
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, r)
	}
	return ranges, nil
}

// IDSet is the union of a list of inclusive id ranges. It is stored as
// sorted, non-overlapping intervals so that wide ranges stay cheap.
type IDSet struct {
	intervals []Range
}

// NewIDSet builds the union of ranges. Overlapping and adjacent ranges are
// merged; ranges whose start is after their end contribute nothing.
func NewIDSet(ranges ...Range) IDSet {
	valid := make([]Range, 0, len(ranges))
	for _, r := range ranges {
		if r.Start <= r.End {
			valid = append(valid, r)
		}
	}
	sort.Slice(valid, func(i, j int) bool { return valid[i].Start < valid[j].Start })

	var merged []Range
	for _, r := range valid {
		if n := len(merged); n > 0 && r.Start <= merged[n-1].End+1 {
			if r.End > merged[n-1].End {
				merged[n-1].End = r.End
			}
			continue
		}
		merged = append(merged, r)
	}
	return IDSet{intervals: merged}
}

// Contains reports whether id falls in any of the ranges.
func (s IDSet) Contains(id int) bool {
	i := sort.Search(len(s.intervals), func(i int) bool { return s.intervals[i].End >= id })
	return i < len(s.intervals) && s.intervals[i].Start <= id
}

// Len returns the number of ids in the set.
func (s IDSet) Len() int {
	n := 0
	for _, r := range s.intervals {
		n += r.End - r.Start + 1
	}
	return n
}

func (s IDSet) String() string {
	parts := make([]string, len(s.intervals))
	for i, r := range s.intervals {
		if r.Start == r.End {
			parts[i] = strconv.Itoa(r.Start)
			continue
		}
		parts[i] = fmt.Sprintf("%d-%d", r.Start, r.End)
	}
	return strings.Join(parts, ",")
}
