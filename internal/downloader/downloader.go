// Package downloader writes chapter pages to disk in the fixed layout
// <output>/<title_id>/<chapter_id>/pNNN.<ext>, with an _info.json
// manifest beside the chapter directories.
package downloader

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"github.com/sodachi/mangetsu/internal/ui"
)

type Options struct {
	Output string
	Logger *zap.Logger
}

type Downloader struct {
	output string
	log    *zap.Logger
}

func New(opts Options) *Downloader {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Downloader{output: opts.Output, log: log}
}

// Page is one image of a chapter. Fetch streams the decoded bytes into
// the file the downloader opened for it.
type Page struct {
	Name  string
	Fetch func(ctx context.Context, w io.Writer) error
}

func (d *Downloader) TitleDir(titleID int64) string {
	return filepath.Join(d.output, strconv.FormatInt(titleID, 10))
}

func (d *Downloader) ChapterDir(titleID, chapterID int64) string {
	return filepath.Join(d.TitleDir(titleID), strconv.FormatInt(chapterID, 10))
}

// ChapterDownloaded reports whether a completed chapter directory
// already exists, so a re-run can skip it.
func (d *Downloader) ChapterDownloaded(titleID, chapterID int64) bool {
	entries, err := os.ReadDir(d.ChapterDir(titleID, chapterID))
	return err == nil && len(entries) > 0
}

// DownloadChapter fetches every page in order into a ".part" staging
// directory, then renames it into place so interrupted runs never leave
// a chapter that looks complete. Returns the written file paths and the
// byte total.
func (d *Downloader) DownloadChapter(ctx context.Context, titleID, chapterID int64, pages []Page, ph *ui.ProgressHandle) ([]string, int64, error) {
	final := d.ChapterDir(titleID, chapterID)
	staging := final + ".part"

	if err := os.MkdirAll(staging, 0755); err != nil {
		return nil, 0, err
	}

	if ph != nil {
		ph.SetTotal(len(pages))
	}

	var totalBytes int64
	for i, page := range pages {
		if err := ctx.Err(); err != nil {
			_ = os.RemoveAll(staging)
			return nil, totalBytes, err
		}

		written, err := d.downloadPage(ctx, staging, page)
		totalBytes += written
		if err != nil {
			_ = os.RemoveAll(staging)
			return nil, totalBytes, fmt.Errorf("page %s: %w", page.Name, err)
		}

		if ph != nil {
			ph.Update(i+1, len(pages), totalBytes)
		}
	}

	if err := os.RemoveAll(final); err != nil {
		_ = os.RemoveAll(staging)
		return nil, totalBytes, err
	}
	if err := os.Rename(staging, final); err != nil {
		_ = os.RemoveAll(staging)
		return nil, totalBytes, err
	}

	files := make([]string, 0, len(pages))
	for _, page := range pages {
		files = append(files, filepath.Join(final, page.Name))
	}

	if ph != nil {
		ph.MarkDone()
	}
	d.log.Debug("chapter written",
		zap.Int64("title_id", titleID),
		zap.Int64("chapter_id", chapterID),
		zap.Int("pages", len(pages)),
		zap.Int64("bytes", totalBytes))

	return files, totalBytes, nil
}

func (d *Downloader) downloadPage(ctx context.Context, dir string, page Page) (int64, error) {
	f, err := os.Create(filepath.Join(dir, page.Name))
	if err != nil {
		return 0, err
	}

	cw := &countingWriter{w: f}
	fetchErr := page.Fetch(ctx, cw)
	closeErr := f.Close()

	if fetchErr != nil {
		return cw.n, fetchErr
	}
	return cw.n, closeErr
}

// PageName builds the on-disk file name for a page index.
func PageName(index int, ext string) string {
	if ext == "" {
		ext = "jpg"
	}
	return fmt.Sprintf("p%03d.%s", index, ext)
}
