package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/drafthaus/drawbridge/internal/cad"
)

func TestArgsNum(t *testing.T) {
	t.Run("reads json and go numbers", func(t *testing.T) {
		a := newArgs(cad.Params{"x": 1.5, "y": 2, "z": int64(3)})
		assert.Equal(t, 1.5, a.Num("x"))
		assert.Equal(t, 2.0, a.Num("y"))
		assert.Equal(t, 3.0, a.Num("z"))
		_, failed := a.fail()
		assert.False(t, failed)
	})

	t.Run("missing key fails", func(t *testing.T) {
		a := newArgs(cad.Params{})
		a.Num("radius")
		res, failed := a.fail()
		assert.True(t, failed)
		assert.False(t, res.OK)
		assert.Equal(t, "Missing required parameter: radius", res.Err)
	})

	t.Run("wrong type fails", func(t *testing.T) {
		a := newArgs(cad.Params{"radius": "big"})
		a.Num("radius")
		res, failed := a.fail()
		assert.True(t, failed)
		assert.Equal(t, "Parameter radius has the wrong type", res.Err)
	})

	t.Run("first error wins", func(t *testing.T) {
		a := newArgs(cad.Params{"x": "oops"})
		a.Num("x")
		a.Num("y")
		res, _ := a.fail()
		assert.Equal(t, "Parameter x has the wrong type", res.Err)
	})

	t.Run("nil data treated as empty", func(t *testing.T) {
		a := newArgs(nil)
		assert.Equal(t, 2.5, a.NumOr("height", 2.5))
		_, failed := a.fail()
		assert.False(t, failed)
	})
}

func TestArgsNumOr(t *testing.T) {
	a := newArgs(cad.Params{"scale": 2.0})
	assert.Equal(t, 2.0, a.NumOr("scale", 1.0))
	assert.Equal(t, 0.0, a.NumOr("rotation", 0.0))

	bad := newArgs(cad.Params{"scale": true})
	bad.NumOr("scale", 1.0)
	res, failed := bad.fail()
	assert.True(t, failed)
	assert.Equal(t, "Parameter scale has the wrong type", res.Err)
}

func TestArgsInt(t *testing.T) {
	a := newArgs(cad.Params{"rows": 3.0, "cols": 2})
	assert.Equal(t, 3, a.Int("rows"))
	assert.Equal(t, 2, a.Int("cols"))
}

func TestArgsStr(t *testing.T) {
	a := newArgs(cad.Params{"name": "EQUIP", "count": 4.0})
	assert.Equal(t, "EQUIP", a.Str("name"))
	assert.Equal(t, "CONTINUOUS", a.StrOr("linetype", "CONTINUOUS"))

	a.Str("count")
	res, _ := a.fail()
	assert.Equal(t, "Parameter count has the wrong type", res.Err)

	b := newArgs(cad.Params{})
	b.Str("path")
	res, _ = b.fail()
	assert.Equal(t, "Missing required parameter: path", res.Err)
}

func TestArgsBoolOr(t *testing.T) {
	a := newArgs(cad.Params{"closed": true})
	assert.True(t, a.BoolOr("closed", false))
	assert.False(t, a.BoolOr("absent", false))

	bad := newArgs(cad.Params{"closed": "yes"})
	bad.BoolOr("closed", false)
	_, failed := bad.fail()
	assert.True(t, failed)
}

func TestArgsAnyOr(t *testing.T) {
	a := newArgs(cad.Params{"color": 3.0})
	assert.Equal(t, 3.0, a.AnyOr("color", "white"))
	assert.Equal(t, "white", a.AnyOr("missing", "white"))
	assert.Nil(t, a.AnyOr("missing", nil))
}

func TestArgsPoints(t *testing.T) {
	t.Run("json pairs", func(t *testing.T) {
		a := newArgs(cad.Params{"points": []any{
			[]any{0.0, 0.0},
			[]any{10.0, 5.0},
		}})
		got := a.Points("points")
		_, failed := a.fail()
		assert.False(t, failed)
		assert.Equal(t, []cad.Point{{0, 0}, {10, 5}}, got)
	})

	t.Run("native slices pass through", func(t *testing.T) {
		a := newArgs(cad.Params{"points": []cad.Point{{1, 2}}})
		assert.Equal(t, []cad.Point{{1, 2}}, a.Points("points"))

		b := newArgs(cad.Params{"points": [][]float64{{3, 4}, {5, 6}}})
		assert.Equal(t, []cad.Point{{3, 4}, {5, 6}}, b.Points("points"))
	})

	t.Run("required when absent", func(t *testing.T) {
		a := newArgs(cad.Params{})
		a.Points("points")
		res, _ := a.fail()
		assert.Equal(t, "Missing required parameter: points", res.Err)

		b := newArgs(cad.Params{})
		b.PointsOr("points")
		_, failed := b.fail()
		assert.False(t, failed)
	})

	t.Run("short pair fails", func(t *testing.T) {
		a := newArgs(cad.Params{"points": []any{[]any{1.0}}})
		a.Points("points")
		res, _ := a.fail()
		assert.Equal(t, "Parameter points has the wrong type", res.Err)
	})

	t.Run("non-numeric coordinate fails", func(t *testing.T) {
		a := newArgs(cad.Params{"points": []any{[]any{"x", 1.0}}})
		a.Points("points")
		_, failed := a.fail()
		assert.True(t, failed)
	})
}

func TestArgsAttrs(t *testing.T) {
	t.Run("stringifies scalar values", func(t *testing.T) {
		a := newArgs(cad.Params{"attributes": map[string]any{
			"TAG":    "P-101",
			"SIZE":   2.5,
			"RATING": 150,
			"SPARE":  true,
		}})
		got := a.Attrs("attributes")
		_, failed := a.fail()
		assert.False(t, failed)
		assert.Equal(t, map[string]string{
			"TAG":    "P-101",
			"SIZE":   "2.5",
			"RATING": "150",
			"SPARE":  "true",
		}, got)
	})

	t.Run("string map passes through", func(t *testing.T) {
		in := map[string]string{"TAG": "V-1"}
		a := newArgs(cad.Params{"attributes": in})
		assert.Equal(t, in, a.Attrs("attributes"))
	})

	t.Run("optional", func(t *testing.T) {
		a := newArgs(cad.Params{})
		assert.Nil(t, a.Attrs("attributes"))
		_, failed := a.fail()
		assert.False(t, failed)
	})

	t.Run("nested value fails", func(t *testing.T) {
		a := newArgs(cad.Params{"attributes": map[string]any{"TAG": []any{"no"}}})
		a.Attrs("attributes")
		res, _ := a.fail()
		assert.Equal(t, "Parameter attributes has the wrong type", res.Err)
	})
}

func TestArgsEntities(t *testing.T) {
	a := newArgs(cad.Params{"entities": []any{
		map[string]any{"type": "line", "x1": 0.0},
	}})
	got := a.Entities("entities")
	assert.Len(t, got, 1)
	assert.Equal(t, "line", got[0]["type"])

	bad := newArgs(cad.Params{"entities": []any{"line"}})
	bad.Entities("entities")
	_, failed := bad.fail()
	assert.True(t, failed)
}

func TestArgsNames(t *testing.T) {
	a := newArgs(cad.Params{"names": []any{"CLAYER", "DWGNAME"}})
	assert.Equal(t, []string{"CLAYER", "DWGNAME"}, a.Names("names"))

	b := newArgs(cad.Params{"names": []string{"CLAYER"}})
	assert.Equal(t, []string{"CLAYER"}, b.Names("names"))

	c := newArgs(cad.Params{})
	assert.Nil(t, c.Names("names"))
	_, failed := c.fail()
	assert.False(t, failed)

	bad := newArgs(cad.Params{"names": []any{1.0}})
	bad.Names("names")
	_, failed = bad.fail()
	assert.True(t, failed)
}
