package pdftest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/pdfsorter/internal/mupdf/mupdftest"
)

func TestSamplePages(t *testing.T) {
	assert.Nil(t, samplePages(0))
	assert.Equal(t, []int{0, 1, 2}, samplePages(3))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, samplePages(5))

	for i := 0; i < 20; i++ {
		got := samplePages(40)
		require.Len(t, got, 5)
		assert.Contains(t, got, 0)
		assert.Contains(t, got, 20)
		assert.Contains(t, got, 39)
		assert.IsIncreasing(t, got)
	}
}

func TestTextLayer(t *testing.T) {
	opener := mupdftest.NewOpener().
		Add("text.pdf", "A page with plenty of visible characters").
		Add("scan.pdf", "", "  ", "\n").
		Add("thin.pdf", "a b", "c").
		Corrupt("bad.pdf")

	rep, err := TextLayer(opener, "text.pdf", 0)
	require.NoError(t, err)
	assert.True(t, rep.HasTextLayer)
	assert.Equal(t, 1, rep.TotalPages)

	rep, err = TextLayer(opener, "scan.pdf", 0)
	require.NoError(t, err)
	assert.False(t, rep.HasTextLayer)
	assert.Len(t, rep.Probes, 3)

	rep, err = TextLayer(opener, "thin.pdf", 3)
	require.NoError(t, err)
	assert.True(t, rep.HasTextLayer)
	assert.Equal(t, 3, rep.Chars)

	_, err = TextLayer(opener, "bad.pdf", 0)
	assert.Error(t, err)
}

func TestCountVisible(t *testing.T) {
	assert.Equal(t, 0, countVisible(" \n\t"))
	assert.Equal(t, 4, countVisible("ä b\nc d"))
}
