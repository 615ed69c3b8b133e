package snapshot

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Kind is one entity kind to compare, such as the groups or the users,
// stored under Key.
type Kind struct {
	Key  string
	Data map[string]any
}

// Summary describes how one kind changed since the previous run.
type Summary struct {
	Key         string
	Changed     bool
	Initialized bool
	Added       []string
	Removed     []string
	// Updated lists names present in both runs whose record differs. It
	// is not part of Messages.
	Updated []string
}

// Messages returns the human readable lines for s.
func (s Summary) Messages() []string {
	var msgs []string
	if s.Initialized {
		msgs = append(msgs, "initialized "+s.Key)
		return msgs
	}
	if len(s.Added) > 0 {
		msgs = append(msgs, fmt.Sprintf("added %s: %s", s.Key, strings.Join(s.Added, ", ")))
	}
	if len(s.Removed) > 0 {
		msgs = append(msgs, fmt.Sprintf("removed %s: %s", s.Key, strings.Join(s.Removed, ", ")))
	}
	return msgs
}

// Compare diffs the current mapping against the previous one. Both must be
// in normalized form (see Normalize). An empty or missing previous mapping
// always counts as a change.
func Compare(key string, prev, curr map[string]any) Summary {
	s := Summary{Key: key}
	if len(prev) == 0 {
		s.Changed = true
		s.Initialized = true
		return s
	}
	if reflect.DeepEqual(prev, curr) {
		return s
	}

	s.Changed = true
	for name, record := range curr {
		old, ok := prev[name]
		if !ok {
			s.Added = append(s.Added, name)
			continue
		}
		if !reflect.DeepEqual(old, record) {
			s.Updated = append(s.Updated, name)
		}
	}
	for name := range prev {
		if _, ok := curr[name]; !ok {
			s.Removed = append(s.Removed, name)
		}
	}
	sort.Strings(s.Added)
	sort.Strings(s.Removed)
	sort.Strings(s.Updated)
	return s
}

// Result is the outcome of comparing every kind.
type Result struct {
	Changed   bool
	Summaries []Summary
}

// Messages returns the messages of every summary in kind order.
func (r Result) Messages() []string {
	var msgs []string
	for _, s := range r.Summaries {
		msgs = append(msgs, s.Messages()...)
	}
	return msgs
}

// Message joins Messages with "; ".
func (r Result) Message() string {
	return strings.Join(r.Messages(), "; ")
}

// Engine compares kinds against a Store and persists the kinds that changed.
type Engine struct {
	store *Store
}

func NewEngine(store *Store) *Engine {
	return &Engine{store: store}
}

// Run loads the previous mapping of every kind before writing anything, so
// an unreadable snapshot leaves all files untouched. Kinds are persisted
// only when they changed.
func (e *Engine) Run(kinds ...Kind) (Result, error) {
	prev := make([]map[string]any, len(kinds))
	curr := make([]map[string]any, len(kinds))
	for i, k := range kinds {
		p, err := e.store.Load(k.Key)
		if err != nil {
			return Result{}, err
		}
		c, err := Normalize(k.Data)
		if err != nil {
			return Result{}, err
		}
		prev[i], curr[i] = p, c
	}

	var res Result
	for i, k := range kinds {
		s := Compare(k.Key, prev[i], curr[i])
		res.Summaries = append(res.Summaries, s)
		if !s.Changed {
			continue
		}
		res.Changed = true
		if err := e.store.Save(k.Key, k.Data); err != nil {
			return res, err
		}
	}
	return res, nil
}
