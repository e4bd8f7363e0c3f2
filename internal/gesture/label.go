// Package gesture classifies hand poses into a fixed set of words.
package gesture

import "fmt"

// Label names a recognized gesture.
type Label string

const (
	// None means no gesture matched.
	None Label = ""
	// Hello is an open palm.
	Hello Label = "hello"
	// Thanks is the thumb tip touching the middle fingertip.
	Thanks Label = "thanks"
	// Yes is the OK sign.
	Yes Label = "yes"
	// No is the index finger raised alone.
	No Label = "no"
	// Help is thumb and pinky spread with the rest closed.
	Help Label = "help"
)

// Labels lists every gesture label in rule priority order.
var Labels = []Label{Hello, Thanks, Yes, No, Help}

// ParseLabel converts a string into a Label.
func ParseLabel(s string) (Label, error) {
	for _, l := range Labels {
		if string(l) == s {
			return l, nil
		}
	}
	return None, fmt.Errorf("unknown gesture label %q", s)
}

func (l Label) String() string {
	if l == None {
		return "none"
	}
	return string(l)
}
