package mapslicehelp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

func TestOrderedMapKeys(t *testing.T) {
	m := orderedmap.New[string, int]()
	m.Set("c", 1)
	m.Set("a", 2)
	m.Set("b", 3)
	assert.Equal(t, []string{"c", "a", "b"}, OrderedMapKeys(m))
	assert.Equal(t, []string{}, OrderedMapKeys(orderedmap.New[string, int]()))
}

func TestSortedKeys(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SortedKeys(map[string]any{"c": 1, "b": nil, "a": "x"}))
	assert.Empty(t, SortedKeys(map[int]bool{}))
}
