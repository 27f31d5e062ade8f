package scroll

import (
	"fmt"
	"strconv"
)

// Landmark is a named height, in feet, used to put a scroll distance in perspective.
type Landmark struct {
	Name   string  `json:"name"`
	Height float64 `json:"height"`
}

func (l Landmark) String() string {
	return fmt.Sprintf("%s (%s ft)", l.Name, strconv.FormatFloat(l.Height, 'f', -1, 64))
}

// Table is an ordered landmark list, strictly increasing in height.
type Table []Landmark

// DefaultLandmarks is the built-in landmark table.
var DefaultLandmarks = Table{
	{Name: "an Igloo", Height: 5.0},
	{Name: "Qutub Minar", Height: 240.0},
	{Name: "the Eiffel Tower", Height: 984.0},
	{Name: "the Empire State Building", Height: 1250.0},
	{Name: "Burj Khalifa", Height: 2717.0},
}

// Validate checks that the table is non-empty, named, and strictly increasing.
func (t Table) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("%w: table is empty", ErrBadLandmarks)
	}
	seen := make(map[string]bool, len(t))
	for i, l := range t {
		if l.Name == "" {
			return fmt.Errorf("%w: entry %d has no name", ErrBadLandmarks, i)
		}
		if seen[l.Name] {
			return fmt.Errorf("%w: duplicate name %q", ErrBadLandmarks, l.Name)
		}
		seen[l.Name] = true
		if i > 0 && l.Height <= t[i-1].Height {
			return fmt.Errorf("%w: %q (%g) is not above %q (%g)",
				ErrBadLandmarks, l.Name, l.Height, t[i-1].Name, t[i-1].Height)
		}
	}
	return nil
}

// Classification is the bucket a metric falls into.
//
// Bucket i (0 <= i < len(table)) holds metrics in [table[i-1], table[i]);
// bucket len(table) holds everything at or above the last landmark.
type Classification struct {
	Bucket   int
	Label    string
	Exceeded bool
}

// Classify returns the label of the smallest landmark strictly greater than
// metric. A metric equal to a landmark height belongs to the next bucket.
func (t Table) Classify(metric float64) Classification {
	for i, l := range t {
		if metric < l.Height {
			if i == 0 {
				return Classification{Bucket: 0, Label: "less than " + l.String()}
			}
			return Classification{
				Bucket: i,
				Label:  "between " + t[i-1].String() + " and " + l.String(),
			}
		}
	}
	if len(t) == 0 {
		return Classification{Exceeded: true, Label: "exceeds every landmark"}
	}
	return Classification{
		Bucket:   len(t),
		Label:    "exceeds " + t[len(t)-1].String(),
		Exceeded: true,
	}
}
