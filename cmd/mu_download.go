package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sodachi/mangetsu/internal/chapters"
	"github.com/sodachi/mangetsu/internal/downloader"
	"github.com/sodachi/mangetsu/internal/mu"
	"github.com/sodachi/mangetsu/internal/source"
	"github.com/sodachi/mangetsu/internal/ui"
	"github.com/sodachi/mangetsu/internal/util"
)

var (
	flagMUDownloadChapter string
	flagMUDownloadRange   string
	flagMUDownloadList    string
	flagMUDownloadForce   bool
	flagMUDownloadCBZ     bool
)

var muDownloadCmd = &cobra.Command{
	Use:   "download <title-id>",
	Short: "Download purchased chapters of a title",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		titleID, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid title id %q", args[0])
		}

		cfg, log, store, err := setup()
		if err != nil {
			return err
		}

		sess, err := pickMUAccount(store, flagMUAccount)
		if err != nil {
			return err
		}
		client, err := newMUClient(sess, log)
		if err != nil {
			return err
		}

		ctx := cmd.Context()

		detail, err := client.GetManga(ctx, titleID)
		if err != nil {
			return err
		}

		quality := mu.QualityHigh
		if cfg.Quality == "middle" {
			quality = mu.QualityMiddle
		}

		byID := make(map[int64]*mu.ChapterV2, len(detail.Chapters))
		all := make([]source.Chapter, 0, len(detail.Chapters))
		for i := range detail.Chapters {
			ch := &detail.Chapters[i]
			byID[int64(ch.ID)] = ch
			all = append(all, source.Chapter{
				ID:    int64(ch.ID),
				Title: ch.FormattedTitle(),
				Price: ch.Price,
				Owned: ch.IsFree(),
			})
		}

		selected := chapters.Filter(chapters.Wrap(all), flagMUDownloadChapter, flagMUDownloadRange, flagMUDownloadList)
		if len(selected) == 0 {
			return fmt.Errorf("no chapters selected")
		}

		dl := downloader.New(downloader.Options{Output: cfg.Output, Logger: log})
		util.SetupInterruptHandler(dl.TitleDir(int64(titleID)), log)

		if err := dl.WriteTitleInfo(int64(titleID), muTitleInfo(detail)); err != nil {
			return err
		}

		fmt.Printf("Downloading %s (%d chapters)\n", detail.Title, len(selected))

		pm := ui.NewProgressManager()
		var stats ui.Stats

		for _, ch := range selected {
			if !flagMUDownloadForce && dl.ChapterDownloaded(int64(titleID), ch.ID) {
				log.Info("chapter already downloaded, skipping",
					zap.Int64("chapter_id", ch.ID))
				continue
			}

			// A zero coin split never spends anything: owned and free
			// chapters answer with pages, everything else answers empty.
			viewer, err := client.GetChapterImages(ctx, uint64(ch.ID), quality, mu.ConsumeCoin{})
			if err != nil {
				log.Warn("viewer request failed, skipping chapter",
					zap.Int64("chapter_id", ch.ID), zap.Error(err))
				continue
			}

			pages := muViewerPages(client, viewer)
			if len(pages) == 0 {
				log.Warn("chapter not purchased, skipping",
					zap.Int64("chapter_id", ch.ID), zap.String("title", ch.Title))
				continue
			}

			ph := pm.Register(ch.Title)
			files, bytes, err := dl.DownloadChapter(ctx, int64(titleID), ch.ID, pages, ph)
			if err != nil {
				ph.MarkDone()
				log.Warn("chapter download failed",
					zap.Int64("chapter_id", ch.ID), zap.Error(err))
				if ctx.Err() != nil {
					break
				}
				continue
			}

			stats.TotalChapters.Add(1)
			stats.TotalPages.Add(int64(len(files)))
			stats.TotalBytes.Add(bytes)

			if flagMUDownloadCBZ || cfg.CBZ {
				if err := util.CreateCBZ(files, ch.OutputCBZPath(dl.TitleDir(int64(titleID)))); err != nil {
					log.Warn("cbz packaging failed",
						zap.Int64("chapter_id", ch.ID), zap.Error(err))
				}
			}
		}

		pm.Close()
		fmt.Printf("Done: %d chapters, %d pages, %s\n",
			stats.TotalChapters.Load(), stats.TotalPages.Load(), util.Human(stats.TotalBytes.Load()))
		return nil
	},
}

// muViewerPages flattens the viewer's page blocks into the downloader's
// page list, dropping video-only entries.
func muViewerPages(client *mu.Client, viewer *mu.ChapterViewerV2) []downloader.Page {
	var pages []downloader.Page
	for _, block := range viewer.Blocks {
		for i := range block.Images {
			image := block.Images[i]
			if image.URL == "" {
				continue
			}
			pages = append(pages, downloader.Page{
				Name: downloader.PageName(len(pages)+1, image.Extension()),
				Fetch: func(ctx context.Context, w io.Writer) error {
					return client.DownloadImage(ctx, image.URL, w)
				},
			})
		}
	}
	return pages
}

func muTitleInfo(detail *mu.MangaDetailV2) downloader.TitleInfo {
	info := downloader.TitleInfo{
		Title:  detail.Title,
		Author: detail.Authors,
	}
	for i := range detail.Chapters {
		ch := &detail.Chapters[i]
		var ts *int64
		if ch.PublishedAt != nil {
			if t, err := time.Parse("2006-01-02", *ch.PublishedAt); err == nil {
				unix := t.Unix()
				ts = &unix
			}
		}
		info.Chapters = append(info.Chapters, downloader.ChapterInfo{
			ID:        ch.ID,
			Name:      ch.Title,
			Timestamp: ts,
			Subtitle:  ch.Subtitle,
		})
	}
	return info
}

func init() {
	muDownloadCmd.Flags().StringVar(&flagMUDownloadChapter, "chapter", "", "single chapter by id or position")
	muDownloadCmd.Flags().StringVar(&flagMUDownloadRange, "range", "", "chapter range by position (e.g. 5-12)")
	muDownloadCmd.Flags().StringVar(&flagMUDownloadList, "list", "", "chapter positions (e.g. 1,3,5)")
	muDownloadCmd.Flags().BoolVar(&flagMUDownloadForce, "force", false, "redownload chapters that already exist")
	muDownloadCmd.Flags().BoolVar(&flagMUDownloadCBZ, "cbz", false, "pack each chapter into a .cbz archive")

	muCmd.AddCommand(muDownloadCmd)
}
