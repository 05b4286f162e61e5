package contract

import (
	"encoding/json"
	"sort"

	"golang.org/x/text/cases"
)

// StringSet is a case-insensitive string set. Members are stored case-folded;
// JSON form is a sorted array so serialized contracts are byte-stable.
type StringSet map[string]struct{}

func NewStringSet(vals ...string) StringSet {
	s := make(StringSet, len(vals))
	for _, v := range vals {
		s.Add(v)
	}
	return s
}

func fold(v string) string {
	return cases.Fold().String(v)
}

func (s StringSet) Add(v string) {
	s[fold(v)] = struct{}{}
}

func (s StringSet) AddAll(vals []string) {
	for _, v := range vals {
		s.Add(v)
	}
}

func (s StringSet) Has(v string) bool {
	_, ok := s[fold(v)]
	return ok
}

func (s StringSet) Equals(o StringSet) bool {
	if len(s) != len(o) {
		return false
	}
	for v := range s {
		if _, ok := o[v]; !ok {
			return false
		}
	}
	return true
}

func (s StringSet) Values() []string {
	vals := make([]string, 0, len(s))
	for v := range s {
		vals = append(vals, v)
	}
	sort.Strings(vals)
	return vals
}

func (s StringSet) Copy() StringSet {
	c := make(StringSet, len(s))
	for v := range s {
		c[v] = struct{}{}
	}
	return c
}

func (s StringSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Values())
}

func (s *StringSet) UnmarshalJSON(data []byte) error {
	var vals []string
	if err := json.Unmarshal(data, &vals); err != nil {
		return err
	}
	*s = NewStringSet(vals...)
	return nil
}
