package physics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wildersim/wilder/internal/core/geometry"
)

func TestShape_Validate(t *testing.T) {
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))

	cases := []struct {
		name  string
		shape Shape
		ok    bool
	}{
		{"box", NewBoxShape(geometry.V3(1, 2, 0.5)), true},
		{"sphere", NewSphereShape(0.25), true},
		{"capsule", NewCapsuleShape(0.5, 1), true},
		{"box zero extent", NewBoxShape(geometry.V3(1, 0, 1)), false},
		{"box negative extent", NewBoxShape(geometry.V3(-1, 1, 1)), false},
		{"box nan", NewBoxShape(geometry.V3(nan, 1, 1)), false},
		{"sphere zero", NewSphereShape(0), false},
		{"sphere inf", NewSphereShape(inf), false},
		{"capsule zero radius", NewCapsuleShape(0, 1), false},
		{"capsule nan height", NewCapsuleShape(1, nan), false},
		{"unknown kind", Shape{Kind: ShapeKind(9)}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.shape.Validate()
			if tc.ok {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, ErrInvalidShape)
			}
		})
	}
}

func TestShape_Bounds(t *testing.T) {
	center := geometry.V3(1, 2, 3)

	b := NewBoxShape(geometry.V3(1, 2, 3)).bounds(center)
	assert.Equal(t, geometry.V3(0, 0, 0), b.Min)
	assert.Equal(t, geometry.V3(2, 4, 6), b.Max)

	s := NewSphereShape(2).bounds(center)
	assert.Equal(t, geometry.V3(-1, 0, 1), s.Min)

	c := NewCapsuleShape(1, 2).bounds(center)
	assert.Equal(t, geometry.V3(0, -1, 2), c.Min)
	assert.Equal(t, geometry.V3(2, 5, 4), c.Max)
}
