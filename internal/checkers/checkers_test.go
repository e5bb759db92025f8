package checkers_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/greenroom-sh/greenroom/internal/checkers"
)

func TestJSONPathEquals(t *testing.T) {
	c := qt.New(t)

	const doc = `{"total": 2, "contexts": [{"key": "jane_goodall"}, {"key": "rosa_luxemburg"}]}`

	c.Run("top-level field", func(c *qt.C) {
		c.Assert(doc, checkers.JSONPathEquals("$.total"), float64(2))
	})

	c.Run("nested array element", func(c *qt.C) {
		c.Assert(doc, checkers.JSONPathEquals("$.contexts[1].key"), "rosa_luxemburg")
	})

	c.Run("mismatch fails", func(c *qt.C) {
		ok := qt.New(&testing.T{}).Check(doc, checkers.JSONPathEquals("$.total"), float64(3))
		c.Assert(ok, qt.IsFalse)
	})

	c.Run("invalid JSON fails", func(c *qt.C) {
		ok := qt.New(&testing.T{}).Check("not json", checkers.JSONPathEquals("$.total"), float64(1))
		c.Assert(ok, qt.IsFalse)
	})
}
