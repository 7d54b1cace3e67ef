package downloader

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakePage(name, body string) Page {
	return Page{
		Name: name,
		Fetch: func(_ context.Context, w io.Writer) error {
			_, err := io.WriteString(w, body)
			return err
		},
	}
}

func TestDownloadChapterLayout(t *testing.T) {
	dl := New(Options{Output: t.TempDir()})

	pages := []Page{
		fakePage(PageName(0, "jpg"), "first"),
		fakePage(PageName(1, "webp"), "second"),
	}

	files, bytes, err := dl.DownloadChapter(context.Background(), 42, 7, pages, nil)
	require.NoError(t, err)

	require.Len(t, files, 2)
	assert.Equal(t, filepath.Join(dl.ChapterDir(42, 7), "p000.jpg"), files[0])
	assert.Equal(t, int64(len("first")+len("second")), bytes)

	got, err := os.ReadFile(files[1])
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))

	_, err = os.Stat(dl.ChapterDir(42, 7) + ".part")
	assert.True(t, os.IsNotExist(err))

	assert.True(t, dl.ChapterDownloaded(42, 7))
	assert.False(t, dl.ChapterDownloaded(42, 8))
}

func TestDownloadChapterFailureLeavesNoPartial(t *testing.T) {
	dl := New(Options{Output: t.TempDir()})

	pages := []Page{
		fakePage(PageName(0, "jpg"), "ok"),
		{
			Name: PageName(1, "jpg"),
			Fetch: func(_ context.Context, _ io.Writer) error {
				return fmt.Errorf("connection reset")
			},
		},
	}

	_, _, err := dl.DownloadChapter(context.Background(), 42, 7, pages, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "p001.jpg")

	_, statErr := os.Stat(dl.ChapterDir(42, 7))
	assert.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(dl.ChapterDir(42, 7) + ".part")
	assert.True(t, os.IsNotExist(statErr))
}

func TestDownloadChapterReplacesExisting(t *testing.T) {
	dl := New(Options{Output: t.TempDir()})

	_, _, err := dl.DownloadChapter(context.Background(), 1, 2,
		[]Page{fakePage("p000.jpg", "old"), fakePage("p001.jpg", "old2")}, nil)
	require.NoError(t, err)

	files, _, err := dl.DownloadChapter(context.Background(), 1, 2,
		[]Page{fakePage("p000.jpg", "new")}, nil)
	require.NoError(t, err)
	require.Len(t, files, 1)

	entries, err := os.ReadDir(dl.ChapterDir(1, 2))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestTitleInfoRoundTrip(t *testing.T) {
	dl := New(Options{Output: t.TempDir()})

	ts := int64(1700000000)
	sub := "The Calm"
	info := TitleInfo{
		Title:  "Moonlit Courier",
		Author: "B. Author",
		Chapters: []ChapterInfo{
			{ID: 101, Name: "Chapter 1", Timestamp: &ts, Subtitle: &sub},
			{ID: 102, Name: "Chapter 2"},
		},
	}

	require.NoError(t, dl.WriteTitleInfo(9, info))

	got, err := dl.ReadTitleInfo(9)
	require.NoError(t, err)
	assert.Equal(t, info, *got)

	raw, err := os.ReadFile(filepath.Join(dl.TitleDir(9), "_info.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"titleName"`)
	assert.Contains(t, string(raw), `"mainName"`)
}
