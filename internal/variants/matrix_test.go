package variants

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMatrix(t *testing.T) {
	vs := []Variant{
		{Name: "color", DisplayName: "Color", Options: []Option{
			{Name: "rojo", DisplayName: "Rojo", Price: 50000, Stock: 3, IsDefault: true},
			{Name: "azul", DisplayName: "Azul", Price: 52000, Stock: 10},
		}},
		{Name: "size", DisplayName: "Tamaño", Options: []Option{
			{Name: "m", DisplayName: "Mediano", Price: 51000, Stock: 7},
		}},
	}

	rows, err := BuildMatrix("VAJ", vs)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "rojo/m", rows[0].Key)
	assert.Equal(t, "Rojo / Mediano", rows[0].Label)
	assert.Equal(t, int64(51000), rows[0].Price)
	assert.Equal(t, 3, rows[0].Stock)
	assert.Equal(t, "VAJ-001", rows[0].SKU)

	assert.Equal(t, "azul/m", rows[1].Key)
	assert.Equal(t, int64(52000), rows[1].Price)
	assert.Equal(t, 7, rows[1].Stock)
	assert.Equal(t, "VAJ-002", rows[1].SKU)
}

func TestBuildMatrix_OptionSKUs(t *testing.T) {
	vs := []Variant{
		{Name: "color", Options: []Option{{Name: "rojo", SKU: "R"}, {Name: "azul"}}},
		{Name: "size", Options: []Option{{Name: "s", SKU: "S"}}},
	}
	rows, err := BuildMatrix("", vs)
	require.NoError(t, err)
	assert.Equal(t, "R-S", rows[0].SKU)
	assert.Equal(t, "002", rows[1].SKU)
	assert.Equal(t, "azul / s", rows[1].Label)
}

func TestBuildMatrix_Standalone(t *testing.T) {
	rows, err := BuildMatrix("MESA", Standalone(Option{Price: 99900, Stock: 2}))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Options[0].IsDefault)
	assert.Equal(t, DefaultVariantName, rows[0].Key)
	assert.Equal(t, "MESA-001", rows[0].SKU)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		vs   []Variant
	}{
		{name: "none", vs: nil},
		{name: "blank variant name", vs: []Variant{{Name: " ", Options: []Option{{Name: "a"}}}}},
		{name: "duplicate variant", vs: []Variant{axis("Color", "a"), axis("color", "b")}},
		{name: "no options", vs: []Variant{axis("color")}},
		{name: "blank option", vs: []Variant{{Name: "c", Options: []Option{{Name: ""}}}}},
		{name: "duplicate option", vs: []Variant{axis("c", "Rojo", "rojo")}},
		{name: "negative price", vs: []Variant{{Name: "c", Options: []Option{{Name: "a", Price: -1}}}}},
		{name: "negative stock", vs: []Variant{{Name: "c", Options: []Option{{Name: "a", Stock: -1}}}}},
		{name: "two defaults", vs: []Variant{{Name: "c", Options: []Option{
			{Name: "a", IsDefault: true}, {Name: "b", IsDefault: true},
		}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, Validate(tt.vs), ErrInvalidVariants)
			_, err := BuildMatrix("X", tt.vs)
			assert.ErrorIs(t, err, ErrInvalidVariants)
		})
	}

	assert.NoError(t, Validate([]Variant{axis("color", "rojo", "azul"), axis("size", "s")}))
}

func TestBuildMatrix_TooManyCombinations(t *testing.T) {
	for _, n := range []int{14, 63, 64} {
		rows, err := BuildMatrix("X", binaryAxes(n))
		assert.ErrorIs(t, err, ErrInvalidVariants, "axes=%d", n)
		assert.Nil(t, rows)
	}
}

func TestValidate_CombinationCap(t *testing.T) {
	wide := func(name string, n int) Variant {
		v := Variant{Name: name}
		for i := 0; i < n; i++ {
			v.Options = append(v.Options, Option{Name: fmt.Sprintf("o%d", i)})
		}
		return v
	}
	assert.NoError(t, Validate([]Variant{wide("a", 100), wide("b", 100)}))
	assert.ErrorIs(t, Validate([]Variant{wide("a", 100), wide("b", 101)}), ErrInvalidVariants)
}
