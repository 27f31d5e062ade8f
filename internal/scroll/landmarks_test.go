package scroll

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_DefaultTable(t *testing.T) {
	tests := []struct {
		name     string
		metric   float64
		bucket   int
		label    string
		exceeded bool
	}{
		{"zero", 0, 0, "less than an Igloo (5 ft)", false},
		{"just below igloo", 4.99, 0, "less than an Igloo (5 ft)", false},
		{"exactly igloo", 5.0, 1, "between an Igloo (5 ft) and Qutub Minar (240 ft)", false},
		{"one scroll", 6.5, 1, "between an Igloo (5 ft) and Qutub Minar (240 ft)", false},
		{"exactly qutub minar", 240.0, 2, "between Qutub Minar (240 ft) and the Eiffel Tower (984 ft)", false},
		{"exactly eiffel", 984.0, 3, "between the Eiffel Tower (984 ft) and the Empire State Building (1250 ft)", false},
		{"below burj", 2716.5, 4, "between the Empire State Building (1250 ft) and Burj Khalifa (2717 ft)", false},
		{"exactly burj", 2717.0, 5, "exceeds Burj Khalifa (2717 ft)", true},
		{"far above", 1e6, 5, "exceeds Burj Khalifa (2717 ft)", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := DefaultLandmarks.Classify(tc.metric)
			assert.Equal(t, tc.bucket, got.Bucket)
			assert.Equal(t, tc.label, got.Label)
			assert.Equal(t, tc.exceeded, got.Exceeded)
		})
	}
}

func TestClassify_LabelsAreDistinct(t *testing.T) {
	seen := map[string]bool{}
	probes := []float64{0, 5, 240, 984, 1250, 2717}
	for _, m := range probes {
		label := DefaultLandmarks.Classify(m).Label
		assert.False(t, seen[label], "duplicate label %q", label)
		seen[label] = true
	}
	assert.Len(t, seen, len(DefaultLandmarks)+1)
}

func TestClassify_EmptyTable(t *testing.T) {
	got := Table{}.Classify(10)
	assert.True(t, got.Exceeded)
	assert.Equal(t, 0, got.Bucket)
}

func TestTableValidate(t *testing.T) {
	require.NoError(t, DefaultLandmarks.Validate())

	tests := []struct {
		name  string
		table Table
	}{
		{"empty", Table{}},
		{"unnamed", Table{{Name: "", Height: 1}}},
		{"duplicate", Table{{Name: "a", Height: 1}, {Name: "a", Height: 2}}},
		{"equal heights", Table{{Name: "a", Height: 1}, {Name: "b", Height: 1}}},
		{"decreasing", Table{{Name: "a", Height: 2}, {Name: "b", Height: 1}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.table.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrBadLandmarks))
		})
	}
}

func TestLandmarkString(t *testing.T) {
	assert.Equal(t, "Burj Khalifa (2717 ft)", Landmark{Name: "Burj Khalifa", Height: 2717}.String())
	assert.Equal(t, "Shed (7.5 ft)", Landmark{Name: "Shed", Height: 7.5}.String())
}
