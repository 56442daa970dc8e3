package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDefaults(t *testing.T) {
	p := Parse("", "", "")
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultLimit, p.Limit)
	assert.True(t, p.Desc)
}

func TestParseIgnoresGarbage(t *testing.T) {
	p := Parse("abc", "-5", "n'importe")
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultLimit, p.Limit)
	assert.True(t, p.Desc)
}

func TestParseCapsLimit(t *testing.T) {
	p := Parse("2", "5000", "")
	assert.Equal(t, 2, p.Page)
	assert.Equal(t, MaxLimit, p.Limit)
}

func TestParseOldestFirst(t *testing.T) {
	assert.False(t, Parse("", "", "oldest").Desc)
	assert.False(t, Parse("", "", "created_at").Desc)
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Page{Page: 1, Limit: 10}.Offset())
	assert.Equal(t, 20, Page{Page: 3, Limit: 10}.Offset())
}

func TestSlice(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	assert.Equal(t, []int{1, 2, 3}, Slice(items, Page{Page: 1, Limit: 3}))
	assert.Equal(t, []int{4, 5}, Slice(items, Page{Page: 2, Limit: 3}))
	assert.Empty(t, Slice(items, Page{Page: 3, Limit: 3}))
	assert.Equal(t, items, Slice(items, Page{Page: 1, Limit: 100}))
}
