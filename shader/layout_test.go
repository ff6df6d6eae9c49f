package shader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexedQuadLayout(t *testing.T) {
	l, err := IndexedQuad.Layout()
	require.NoError(t, err)

	assert.Equal(t, 28, l.Stride)
	assert.Equal(t, 7, l.FloatsPerVertex())
	require.Len(t, l.Attributes, 2)
	assert.Equal(t, Attribute{Name: PositionAttribute, Components: 3, Offset: 0}, l.Attributes[0])
	assert.Equal(t, Attribute{Name: ColorAttribute, Components: 4, Offset: 12}, l.Attributes[1])

	require.NoError(t, IndexedQuad.Validate())
	assert.Equal(t, 4, IndexedQuad.VertexCount())
	assert.True(t, IndexedQuad.Indexed())
	assert.Equal(t, 6, IndexedQuad.DrawCount())
}

func TestArrayQuadLayout(t *testing.T) {
	l, err := ArrayQuad.Layout()
	require.NoError(t, err)

	assert.Equal(t, 24, l.Stride)
	assert.Equal(t, 12, l.Attributes[1].Offset)
	require.NoError(t, ArrayQuad.Validate())
	assert.False(t, ArrayQuad.Indexed())
	assert.Equal(t, 6, ArrayQuad.DrawCount())
}

func TestSchemaValidateRejectsBadData(t *testing.T) {
	_, err := Schema{}.Layout()
	assert.ErrorIs(t, err, ErrEmptySchema)

	bad := Schema{Attributes: []AttributeSpec{{Name: "p", Components: 5}}, Vertices: []float32{1}}
	assert.ErrorIs(t, bad.Validate(), ErrBadComponents)

	ragged := Schema{Attributes: []AttributeSpec{{Name: "p", Components: 3}}, Vertices: []float32{1, 2}}
	assert.ErrorIs(t, ragged.Validate(), ErrRaggedVertices)

	outOfRange := Schema{
		Attributes: []AttributeSpec{{Name: "p", Components: 2}},
		Vertices:   []float32{0, 0, 1, 1},
		Indices:    []uint16{0, 1, 2},
	}
	assert.ErrorIs(t, outOfRange.Validate(), ErrIndexOutOfRange)
}

func TestSchemaByName(t *testing.T) {
	s, err := SchemaByName("")
	require.NoError(t, err)
	assert.Equal(t, IndexedQuad.Name, s.Name)

	s, err = SchemaByName("arrays")
	require.NoError(t, err)
	assert.Equal(t, ArrayQuad.Name, s.Name)

	_, err = SchemaByName("triangle")
	assert.Error(t, err)
}

func TestDefaultSourcesDeclareAttributes(t *testing.T) {
	vs := DefaultVertexSource()
	assert.True(t, strings.HasPrefix(vs, "#version 300 es"))
	assert.Contains(t, vs, PositionAttribute)
	assert.Contains(t, vs, ColorAttribute)
	assert.Contains(t, DefaultFragmentSource(), "fragColor")
}

func TestKindMapping(t *testing.T) {
	assert.Equal(t, VertexName, Vertex.ResourceName())
	assert.Equal(t, FragmentName, Fragment.ResourceName())
	assert.Equal(t, "fragment", Fragment.ShaderType().String())
	assert.Equal(t, "Kind(7)", Kind(7).String())

	u := NewUnit(Fragment, "src")
	assert.False(t, u.Compiled)
	assert.Equal(t, "src", u.Source)
}
