package dictionary

import (
	"testing"

	"github.com/jlab-evio/evio/format"
	"github.com/stretchr/testify/require"
)

func TestExactTagNumMatchTakesPriority(t *testing.T) {
	d, err := New([]Entry{
		{Name: "event", Tag: 1, Num: 1, NumValid: true, Type: format.Bank},
		{Name: "all-tag-1", Tag: 1, Type: format.Bank},
	})
	require.NoError(t, err)

	name, ok := d.Name(Query{Tag: 1, Num: 1, NumValid: true})
	require.True(t, ok)
	require.Equal(t, "event", name)

	// num=2 has no exact entry, falls through to the tag-only match.
	name, ok = d.Name(Query{Tag: 1, Num: 2, NumValid: true})
	require.True(t, ok)
	require.Equal(t, "all-tag-1", name)
}

func TestTagRangeMatchIsLastResort(t *testing.T) {
	d, err := New([]Entry{
		{Name: "range-10-20", Tag: 10, TagEnd: 20, Type: format.Bank},
	})
	require.NoError(t, err)

	name, ok := d.Name(Query{Tag: 15})
	require.True(t, ok)
	require.Equal(t, "range-10-20", name)

	_, ok = d.Name(Query{Tag: 25})
	require.False(t, ok)
}

func TestTagRangeNormalizesSwappedBounds(t *testing.T) {
	d, err := New([]Entry{
		{Name: "swapped", Tag: 20, TagEnd: 10, Type: format.Bank},
	})
	require.NoError(t, err)

	e, ok := d.Entry("swapped")
	require.True(t, ok)
	require.Equal(t, uint16(10), e.Tag)
	require.Equal(t, uint16(20), e.TagEnd)
}

func TestFirstTagRangeMatchWins(t *testing.T) {
	d, err := New([]Entry{
		{Name: "wide", Tag: 0, TagEnd: 100, Type: format.Bank},
		{Name: "narrow", Tag: 40, TagEnd: 60, Type: format.Bank},
	})
	require.NoError(t, err)

	name, ok := d.Name(Query{Tag: 50})
	require.True(t, ok)
	require.Equal(t, "wide", name)
}

func TestParentDisambiguatesIdenticalTagNum(t *testing.T) {
	parentA := &ParentKey{Tag: 100, Num: 1, NumValid: true}
	parentB := &ParentKey{Tag: 200, Num: 1, NumValid: true}

	d, err := New([]Entry{
		{Name: "leaf-under-a", Tag: 5, Num: 1, NumValid: true, Parent: parentA, Type: format.Uint32},
		{Name: "leaf-under-b", Tag: 5, Num: 1, NumValid: true, Parent: parentB, Type: format.Uint32},
	})
	require.NoError(t, err)

	name, ok := d.Name(Query{Tag: 5, Num: 1, NumValid: true, Parent: parentA})
	require.True(t, ok)
	require.Equal(t, "leaf-under-a", name)

	name, ok = d.Name(Query{Tag: 5, Num: 1, NumValid: true, Parent: parentB})
	require.True(t, ok)
	require.Equal(t, "leaf-under-b", name)
}

func TestDuplicateNameRejected(t *testing.T) {
	_, err := New([]Entry{
		{Name: "dup", Tag: 1, Num: 1, NumValid: true, Type: format.Bank},
		{Name: "dup", Tag: 2, Num: 2, NumValid: true, Type: format.Bank},
	})
	require.Error(t, err)
}

func TestDuplicateTagNumKeyRejected(t *testing.T) {
	_, err := New([]Entry{
		{Name: "a", Tag: 1, Num: 1, NumValid: true, Type: format.Bank},
		{Name: "b", Tag: 1, Num: 1, NumValid: true, Type: format.Bank},
	})
	require.Error(t, err)
}

func TestNameLookupIsExact(t *testing.T) {
	d, err := New([]Entry{
		{Name: "event", Tag: 1, Num: 1, NumValid: true, Type: format.Bank},
	})
	require.NoError(t, err)

	_, ok := d.Entry("Event")
	require.False(t, ok)

	e, ok := d.Entry("event")
	require.True(t, ok)
	require.Equal(t, uint16(1), e.Tag)
}

func TestCount(t *testing.T) {
	d, err := New([]Entry{
		{Name: "a", Tag: 1, Num: 1, NumValid: true, Type: format.Bank},
		{Name: "b", Tag: 2, Type: format.Bank},
	})
	require.NoError(t, err)
	require.Equal(t, 2, d.Count())
}
