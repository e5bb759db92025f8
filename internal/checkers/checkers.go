// Package checkers provides quicktest checkers for asserting on JSON
// payloads returned by MCP tools and other JSON-speaking surfaces.
package checkers

import (
	"encoding/json"
	"fmt"
	"reflect"

	qt "github.com/frankban/quicktest"
	"github.com/yalp/jsonpath"
)

// JSONPathEquals returns a checker that treats got as a JSON document,
// evaluates path against it, and compares the result with want:
//
//	c.Assert(text, checkers.JSONPathEquals("$.total"), float64(3))
//
// JSON numbers decode as float64, so numeric expectations must be float64.
func JSONPathEquals(path string) qt.Checker {
	return &jsonPathChecker{path: path}
}

type jsonPathChecker struct {
	path string
}

// ArgNames implements qt.Checker.
func (c *jsonPathChecker) ArgNames() []string {
	return []string{"got", "want"}
}

// Check implements qt.Checker.
func (c *jsonPathChecker) Check(got any, args []any, note func(key string, value any)) error {
	raw, ok := got.(string)
	if !ok {
		return fmt.Errorf("got value has type %T, want string", got)
	}

	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return fmt.Errorf("got value is not valid JSON: %v", err)
	}

	value, err := jsonpath.Read(doc, c.path)
	if err != nil {
		return fmt.Errorf("jsonpath %q: %v", c.path, err)
	}

	want := args[0]
	if !reflect.DeepEqual(value, want) {
		note("jsonpath", c.path)
		note("value at path", value)
		return fmt.Errorf("values are not equal")
	}
	return nil
}
