package catalog

import "github.com/go-faster/errors"

// Filter selects a subset of the catalog for browsing.
type Filter string

const (
	// FilterAll keeps every perfume.
	FilterAll Filter = "all"
	// FilterNew keeps perfumes flagged as new.
	FilterNew Filter = "new"
	// FilterBestsellers keeps perfumes flagged as bestsellers.
	FilterBestsellers Filter = "bestsellers"
)

// ErrUnknownFilter is returned by ParseFilter for unsupported values.
var ErrUnknownFilter = errors.New("unknown catalog filter")

// ParseFilter converts a query value into a Filter. The empty string means
// FilterAll.
func ParseFilter(s string) (Filter, error) {
	switch f := Filter(s); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterNew, FilterBestsellers:
		return f, nil
	default:
		return "", errors.Wrapf(ErrUnknownFilter, "%q", s)
	}
}

// Apply returns the perfumes matching f, preserving order.
func Apply(f Filter, perfumes []Perfume) []Perfume {
	out := make([]Perfume, 0, len(perfumes))
	for _, p := range perfumes {
		switch f {
		case FilterNew:
			if !p.IsNew {
				continue
			}
		case FilterBestsellers:
			if !p.IsBestseller {
				continue
			}
		}
		out = append(out, p)
	}
	return out
}
