package dsl

import (
	"regexp"
	"strings"
	"testing"

	"github.com/go-test/deep"
	"github.com/oneconcern/confstore/pkg/errors"
	"github.com/oneconcern/confstore/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelRoundTrip(t *testing.T) {
	for _, m := range []*model.Model{
		{ID: "m1"},
		{
			ID:   "m2",
			Text: "Production <line> & \"cells\"\nsecond line",
			Type: "PPR",
			Properties: []model.Property{
				{Key: "owner", Value: "ops"},
				{Key: "empty", Value: ""},
			},
		},
	} {
		text, err := MarshalModel(m)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(text, `<?xml version="1.0" encoding="UTF-8"?>`))
		assert.True(t, strings.HasSuffix(text, "</model>\n"))

		parsed, err := UnmarshalModel(text)
		require.NoError(t, err)
		assert.Nil(t, deep.Equal(m, parsed))
	}
}

func TestNodeRoundTrip(t *testing.T) {
	n := &model.Node{
		ID:          "n1",
		ModelID:     "m1",
		Text:        "Robot",
		ElementType: "UMLClass",
		Type:        "resource",
		Tags:        []string{"b", "a"},
		Properties:  []model.Property{{Key: "speed", Value: "3"}},
		Metadata: &model.Metadata{
			PanelAttributes:      []model.Property{{Key: "bg", Value: "red"}},
			AdditionalAttributes: []int{10, 20},
			Coordinates:          &model.Coordinates{X: 1, Y: 2, W: 30, H: 40},
		},
	}
	text, err := MarshalNode(n)
	require.NoError(t, err)
	assert.Contains(t, text, "<model_id>m1</model_id>")
	assert.Contains(t, text, "<tag>b</tag>")

	parsed, err := UnmarshalNode(text)
	require.NoError(t, err)
	assert.Nil(t, deep.Equal(n, parsed))

	bare := &model.Node{ID: "n2", ModelID: "m1"}
	text, err = MarshalNode(bare)
	require.NoError(t, err)
	assert.NotContains(t, text, "<metadata")
	parsed, err = UnmarshalNode(text)
	require.NoError(t, err)
	assert.Nil(t, deep.Equal(bare, parsed))
}

func TestRelationRoundTrip(t *testing.T) {
	r := &model.Relation{
		ID:          "r1",
		ModelID:     "m1",
		Text:        "feeds",
		ElementType: "Relation",
		Type:        "<<-",
		Source:      &model.Endpoint{ID: "n1", Text: "Robot"},
		Target:      &model.Endpoint{ID: "n2", Text: "Belt"},
		Metadata: &model.Metadata{
			Positions: &model.Positions{
				Start: &model.RelativePosition{AbsX: 10, AbsY: 10, OffsetX: 0, OffsetY: 0},
				Mid: []model.RelativePosition{
					{AbsX: 20, AbsY: 15, OffsetX: 10, OffsetY: 5},
					{AbsX: 30, AbsY: 25, OffsetX: 20, OffsetY: 15},
				},
				End: &model.RelativePosition{AbsX: 40, AbsY: 40, OffsetX: 30, OffsetY: 30},
			},
		},
	}
	text, err := MarshalRelation(r)
	require.NoError(t, err)
	assert.Contains(t, text, "&lt;&lt;-")

	parsed, err := UnmarshalRelation(text)
	require.NoError(t, err)
	assert.Nil(t, deep.Equal(r, parsed))
}

func TestMetadataIsStrippable(t *testing.T) {
	rex := regexp.MustCompile(MetadataPattern)
	a, err := MarshalNode(&model.Node{ID: "n1", Metadata: &model.Metadata{Coordinates: &model.Coordinates{X: 1}}})
	require.NoError(t, err)
	b, err := MarshalNode(&model.Node{ID: "n1", Metadata: &model.Metadata{Coordinates: &model.Coordinates{X: 2}}})
	require.NoError(t, err)
	c, err := MarshalNode(&model.Node{ID: "n1"})
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Equal(t, rex.ReplaceAllString(a, ""), rex.ReplaceAllString(b, ""))
	assert.NotContains(t, rex.ReplaceAllString(a, ""), "coordinates")
	assert.Equal(t, "xy", rex.ReplaceAllString("x<metadata/>y", ""))
	assert.Contains(t, c, "<id>n1</id>")
}

func TestUnmarshalErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		fn   func(string) error
		text string
	}{
		{name: "not xml", fn: func(s string) error { _, err := UnmarshalModel(s); return err }, text: "not xml"},
		{name: "wrong root", fn: func(s string) error { _, err := UnmarshalModel(s); return err }, text: "<node><id>x</id></node>"},
		{name: "truncated", fn: func(s string) error { _, err := UnmarshalNode(s); return err }, text: "<node><id>x</id>"},
		{name: "bad int", fn: func(s string) error { _, err := UnmarshalRelation(s); return err },
			text: "<relation><metadata><coordinates><x>one</x></coordinates></metadata></relation>"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.fn(tc.text)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnmarshal))
		})
	}
}
