package reference

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRange(t *testing.T) {
	r := Range{"chr1", 10, 20}
	assert.Equal(t, int64(10), r.Len())
	assert.False(t, r.Empty())
	assert.True(t, Range{"chr1", 5, 5}.Empty())
	assert.Equal(t, "chr1:11-20", r.String())

	assert.True(t, r.Contains(Range{"chr1", 10, 20}))
	assert.True(t, r.Contains(Range{"chr1", 12, 12}))
	assert.False(t, r.Contains(Range{"chr1", 9, 12}))
	assert.False(t, r.Contains(Range{"chr1", 15, 21}))
	assert.False(t, r.Contains(Range{"chr2", 12, 14}))
}

func TestResolveRegion(t *testing.T) {
	m, err := FromRecords([]Record{
		{Name: "chr1", Bases: "ACGTACGTACGT"},
		{Name: "HLA-A*01:01", Bases: "GATTACA"},
	})
	require.NoError(t, err)

	tests := []struct {
		region string
		want   Range
	}{
		{"chr1", Range{"chr1", 0, 12}},
		{"chr1:1-4", Range{"chr1", 0, 4}},
		{"chr1:5", Range{"chr1", 4, 5}},
		{"chr1:1,0-1,2", Range{"chr1", 9, 12}},
		{"HLA-A*01:01", Range{"HLA-A*01:01", 0, 7}},
		{"HLA-A*01:01:2-3", Range{"HLA-A*01:01", 1, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.region, func(t *testing.T) {
			got, err := ResolveRegion(m, tt.region)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveRegion_Errors(t *testing.T) {
	m, err := FromRecords([]Record{{Name: "chr1", Bases: "ACGT"}})
	require.NoError(t, err)

	_, err = ResolveRegion(m, "chr2")
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = ResolveRegion(m, "chr2:1-2")
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = ResolveRegion(m, "chr1:a-2")
	assert.True(t, errors.Is(err, ErrInvalidArgument))
	_, err = ResolveRegion(m, "chr1:1-b")
	assert.True(t, errors.Is(err, ErrInvalidArgument))
	_, err = ResolveRegion(m, "chr1:0-2")
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestCatalog(t *testing.T) {
	c, err := newCatalog(newFakeProvider("b", "AC", "a", "GGG"))
	require.NoError(t, err)

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []string{"b", "a"}, c.Names())
	assert.Equal(t, Contig{Name: "a", Length: 3, Position: 1}, c.At(1))

	all := c.All()
	all[0].Name = "mutated"
	assert.Equal(t, "b", c.At(0).Name, "All returns a copy")

	_, err = newCatalog(newFakeProvider("a", "AC", "a", "GG"))
	assert.True(t, errors.Is(err, ErrCorruptIndex))
}

func TestRangeCache(t *testing.T) {
	c := rangeCache{size: 10}

	assert.True(t, c.shouldUse(Range{"chr1", 0, 10}))
	assert.False(t, c.shouldUse(Range{"chr1", 0, 11}))
	assert.False(t, (&rangeCache{}).shouldUse(Range{"chr1", 0, 1}))

	_, ok := c.lookup(Range{"chr1", 0, 1})
	assert.False(t, ok, "empty cache misses")

	assert.Equal(t, Range{"chr1", 5, 15}, c.planRefill(Range{"chr1", 5, 7}, 100))
	assert.Equal(t, Range{"chr1", 95, 100}, c.planRefill(Range{"chr1", 95, 97}, 100))

	c.install(Range{"chr1", 5, 15}, "ABCDEFGHIJ")
	got, ok := c.lookup(Range{"chr1", 7, 10})
	assert.True(t, ok)
	assert.Equal(t, "CDE", got)

	_, ok = c.lookup(Range{"chr1", 4, 10})
	assert.False(t, ok)
	_, ok = c.lookup(Range{"chr2", 7, 10})
	assert.False(t, ok)

	c.reset()
	_, ok = c.lookup(Range{"chr1", 7, 10})
	assert.False(t, ok)
}
