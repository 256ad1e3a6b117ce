package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSections(t *testing.T) {
	sections := Sections()
	require.Len(t, sections, 3)
	assert.Equal(t, SectionPolicy, sections[0].Title)
	assert.Equal(t, SectionVehicle, sections[1].Title)
	assert.Equal(t, SectionEngine, sections[2].Title)

	total := 0
	for _, s := range sections {
		total += len(s.Fields)
	}
	assert.Equal(t, 21, total)
	assert.Len(t, sections[0].Fields, 4)
}

func TestFieldsCoverForm(t *testing.T) {
	values := DefaultForm().Values()
	require.Len(t, values, len(Fields))

	for _, f := range Fields {
		v, ok := values[f.Name]
		require.True(t, ok, f.Name)
		assert.Equal(t, v, f.Default, f.Name)
		if f.Control == ControlSelect {
			assert.Contains(t, f.Options, v, f.Name)
		}
	}
}

func TestFieldsMatchSchema(t *testing.T) {
	injected := map[string]bool{"cylinder": true, "gear_box": true}
	for _, spec := range Schema {
		f, ok := FieldByName(spec.Name)
		if injected[spec.Name] {
			assert.False(t, ok, spec.Name)
			continue
		}
		require.True(t, ok, spec.Name)
		assert.Equal(t, spec.Kind == Categorical, f.Control == ControlSelect, spec.Name)
	}
}

func TestFieldBounds(t *testing.T) {
	pd, ok := FieldByName("population_density")
	require.True(t, ok)
	assert.Equal(t, 0.0, pd.Min)
	assert.Equal(t, 8000.0, pd.Max)
	assert.True(t, pd.Integer)

	airbags, _ := FieldByName("airbags")
	assert.Equal(t, ControlSlider, airbags.Control)
	assert.Equal(t, 1.0, airbags.Min)
	assert.Equal(t, 6.0, airbags.Max)

	_, ok = FieldByName("cylinder")
	assert.False(t, ok)
}
