package chapters

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sodachi/mangetsu/internal/source"
)

func sample() []Chapter {
	return Wrap([]source.Chapter{
		{ID: 101, Title: "Chapter 1 — The Calm"},
		{ID: 102, Title: "Chapter 2 (Part One)"},
		{ID: 103, Title: "Chapter 3"},
		{ID: 104, Title: "Chapter 4"},
	})
}

func TestSanitizedNames(t *testing.T) {
	all := sample()

	assert.Equal(t, "c101_chapter_1_the_calm.cbz", all[0].OutputCBZ())
	assert.Equal(t, "c102_chapter_2_part_one.cbz", all[1].OutputCBZ())

	noName := Chapter{source.Chapter{ID: 9}}
	assert.Equal(t, "c9.cbz", noName.OutputCBZ())
}

func TestFilterByIDBeatsPosition(t *testing.T) {
	all := sample()

	got := Filter(all, "103", "", "")
	assert.Len(t, got, 1)
	assert.Equal(t, int64(103), got[0].ID)

	// no chapter with id 2, so the selector falls back to position
	got = Filter(all, "2", "", "")
	assert.Len(t, got, 1)
	assert.Equal(t, int64(102), got[0].ID)

	assert.Empty(t, Filter(all, "999", "", ""))
	assert.Empty(t, Filter(all, "not-a-number", "", ""))
}

func TestFilterRange(t *testing.T) {
	all := sample()

	got := Filter(all, "", "2-3", "")
	assert.Len(t, got, 2)
	assert.Equal(t, int64(102), got[0].ID)
	assert.Equal(t, int64(103), got[1].ID)

	assert.Empty(t, Filter(all, "", "3-2", ""))
	assert.Empty(t, Filter(all, "", "0-2", ""))
	assert.Empty(t, Filter(all, "", "1-99", ""))
}

func TestFilterList(t *testing.T) {
	all := sample()

	got := Filter(all, "", "", "1, 4")
	assert.Len(t, got, 2)
	assert.Equal(t, int64(101), got[0].ID)
	assert.Equal(t, int64(104), got[1].ID)

	// junk entries are dropped, not fatal
	got = Filter(all, "", "", "2,zzz,99")
	assert.Len(t, got, 1)
	assert.Equal(t, int64(102), got[0].ID)
}

func TestFilterEmptySelectionKeepsAll(t *testing.T) {
	all := sample()
	assert.Len(t, Filter(all, "", "", ""), 4)
}
