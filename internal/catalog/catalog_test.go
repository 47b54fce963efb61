package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Embedded(t *testing.T) {
	t.Parallel()

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 1, c.Version())

	all := c.All()
	require.Len(t, all, 18)
	assert.Equal(t, "Morning Jog", all[0].Name)
	assert.Equal(t, []string{"Health", "Energy", "Discipline"}, all[0].AlignedValues)
	assert.Equal(t, "Organize Your Space", all[17].Name)

	for _, a := range all {
		assert.Positive(t, a.DurationMinutes, a.Name)
		assert.NotEmpty(t, a.AlignedValues, a.Name)
		assert.NotEmpty(t, a.Category, a.Name)
	}

	volunteer, ok := c.ByID(15)
	require.True(t, ok)
	assert.Equal(t, 120, volunteer.DurationMinutes)

	_, ok = c.ByID(99)
	assert.False(t, ok)
}

func TestAll_ReturnsCopy(t *testing.T) {
	t.Parallel()

	c := MustLoad()
	all := c.All()
	all[0].Name = "changed"
	assert.Equal(t, "Morning Jog", c.All()[0].Name)
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
	}{
		{"invalid yaml", "version: [1"},
		{"missing version", "activities: []"},
		{"zero duration", "version: 1\nactivities:\n  - id: 1\n    name: Nap\n    duration_minutes: 0\n"},
		{"missing name", "version: 1\nactivities:\n  - id: 1\n    duration_minutes: 10\n"},
		{"duplicate id", "version: 1\nactivities:\n  - id: 1\n    name: A\n    duration_minutes: 10\n  - id: 1\n    name: B\n    duration_minutes: 10\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}
