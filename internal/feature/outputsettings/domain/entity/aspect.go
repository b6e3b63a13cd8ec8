package entity

import "fmt"

// AspectRatio is the projection area aspect selected by the operator.
type AspectRatio int

const (
	Aspect1x1 AspectRatio = iota
	Aspect4x3
	Aspect16x9
	Aspect3x2
)

var aspectNames = map[AspectRatio]string{
	Aspect1x1:  "1:1",
	Aspect4x3:  "4:3",
	Aspect16x9: "16:9",
	Aspect3x2:  "3:2",
}

// YRatio returns height divided by width. Unknown values fall back to 1.
func (a AspectRatio) YRatio() float64 {
	switch a {
	case Aspect1x1:
		return 1.0
	case Aspect4x3:
		return 3.0 / 4.0
	case Aspect16x9:
		return 9.0 / 16.0
	case Aspect3x2:
		return 2.0 / 3.0
	}
	return 1.0
}

// Valid reports whether a is one of the known ratios.
func (a AspectRatio) Valid() bool {
	_, ok := aspectNames[a]
	return ok
}

func (a AspectRatio) String() string {
	if n, ok := aspectNames[a]; ok {
		return n
	}
	return fmt.Sprintf("aspect(%d)", int(a))
}

// ParseAspectRatio parses names such as "16:9".
func ParseAspectRatio(s string) (AspectRatio, bool) {
	for a, n := range aspectNames {
		if n == s {
			return a, true
		}
	}
	return 0, false
}
