package models

import "fmt"

// Class identifies one of the nominal tissue classes discovered by the
// clustering engines, in ascending intensity-rank order.
type Class int

const (
	// CSF is the lowest-ranked class (cerebrospinal fluid)
	CSF Class = iota

	// GM is the middle class (gray matter)
	GM

	// WM is the highest-ranked class (white matter)
	WM
)

// String returns the conventional abbreviation for the class. Classes beyond
// the nominal three are reported by rank.
func (c Class) String() string {
	switch c {
	case CSF:
		return "CSF"
	case GM:
		return "GM"
	case WM:
		return "WM"
	default:
		return fmt.Sprintf("class%d", int(c)+1)
	}
}

// Names returns display names for n ranked classes. For the nominal three
// these are CSF, GM and WM; other counts fall back to rank labels.
func Names(n int) []string {
	names := make([]string, n)
	for i := range names {
		if n == 3 {
			names[i] = Class(i).String()
		} else {
			names[i] = fmt.Sprintf("class%d", i+1)
		}
	}
	return names
}
