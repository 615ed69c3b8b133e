package accounts

import (
	"reflect"
	"testing"
)

func TestIDSetContains(t *testing.T) {
	set := NewIDSet(Range{1000, 1999}, Range{500, 510}, Range{3000, 3000})

	for _, id := range []int{500, 505, 510, 1000, 1500, 1999, 3000} {
		if !set.Contains(id) {
			t.Errorf("expected %d in %s", id, set)
		}
	}
	for _, id := range []int{0, 499, 511, 999, 2000, 2999, 3001} {
		if set.Contains(id) {
			t.Errorf("did not expect %d in %s", id, set)
		}
	}
	if got, want := set.Len(), 11+1000+1; got != want {
		t.Errorf("Len() = %d, want %d", got, want)
	}
}

func TestIDSetMergesOverlaps(t *testing.T) {
	set := NewIDSet(Range{10, 20}, Range{15, 30}, Range{31, 35}, Range{50, 40})
	want := []Range{{10, 35}}
	if got := set.intervals; !reflect.DeepEqual(got, want) {
		t.Fatalf("intervals = %v, want %v", got, want)
	}
	if set.Len() != 26 {
		t.Fatalf("Len() = %d, want 26", set.Len())
	}
}

func TestIDSetEmpty(t *testing.T) {
	var set IDSet
	if set.Contains(0) || set.Len() != 0 {
		t.Fatalf("zero IDSet should be empty")
	}
}

func TestParseRanges(t *testing.T) {
	got, err := ParseRanges([]string{"1000-2000", " 42 ", "7 - 9"})
	if err != nil {
		t.Fatalf("ParseRanges: %v", err)
	}
	want := []Range{{1000, 2000}, {42, 42}, {7, 9}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	for _, bad := range []string{"", "a-b", "10-", "20-10"} {
		if _, err := ParseRange(bad); err == nil {
			t.Errorf("ParseRange(%q) should fail", bad)
		}
	}
}
