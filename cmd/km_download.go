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
	"github.com/sodachi/mangetsu/internal/km"
	"github.com/sodachi/mangetsu/internal/source"
	"github.com/sodachi/mangetsu/internal/ui"
	"github.com/sodachi/mangetsu/internal/util"
)

var (
	flagKMDownloadChapter string
	flagKMDownloadRange   string
	flagKMDownloadList    string
	flagKMDownloadForce   bool
	flagKMDownloadCBZ     bool
)

var kmDownloadCmd = &cobra.Command{
	Use:   "download <title-id>",
	Short: "Download purchased chapters of a title",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		titleID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid title id %q", args[0])
		}

		cfg, log, store, err := setup()
		if err != nil {
			return err
		}

		account, err := pickKMAccount(store, flagKMAccount)
		if err != nil {
			return err
		}
		client, err := newKMClient(store, account, log)
		if err != nil {
			return err
		}

		ctx := cmd.Context()

		titles, err := client.GetTitles(ctx, []int32{int32(titleID)})
		if err != nil {
			return err
		}
		if len(titles) == 0 {
			return fmt.Errorf("title %d not found", titleID)
		}
		title := titles[0]

		episodes, err := client.GetEpisodes(ctx, title.EpisodeIDs)
		if err != nil {
			return err
		}

		byID := make(map[int64]*km.EpisodeNode, len(episodes))
		all := make([]source.Chapter, 0, len(episodes))
		for i := range episodes {
			ep := &episodes[i]
			byID[int64(ep.ID)] = ep
			all = append(all, source.Chapter{
				ID:    int64(ep.ID),
				Title: ep.Title,
				Price: uint64(max(ep.Point, 0)),
				Owned: ep.IsAvailable(),
			})
		}

		selected := chapters.Filter(chapters.Wrap(all), flagKMDownloadChapter, flagKMDownloadRange, flagKMDownloadList)
		if len(selected) == 0 {
			return fmt.Errorf("no chapters selected")
		}

		dl := downloader.New(downloader.Options{Output: cfg.Output, Logger: log})
		util.SetupInterruptHandler(dl.TitleDir(titleID), log)

		if err := dl.WriteTitleInfo(titleID, kmTitleInfo(&title, episodes)); err != nil {
			return err
		}

		fmt.Printf("Downloading %s (%d chapters)\n", title.Title, len(selected))

		pm := ui.NewProgressManager()
		var stats ui.Stats

		for _, ch := range selected {
			ep := byID[ch.ID]
			if !ep.IsAvailable() {
				log.Warn("chapter not purchased, skipping",
					zap.Int64("chapter_id", ch.ID), zap.String("title", ch.Title))
				continue
			}
			if !flagKMDownloadForce && dl.ChapterDownloaded(titleID, ch.ID) {
				log.Info("chapter already downloaded, skipping",
					zap.Int64("chapter_id", ch.ID))
				continue
			}

			viewer, err := client.GetEpisodeViewer(ctx, ep)
			if err != nil {
				log.Warn("viewer request failed, skipping chapter",
					zap.Int64("chapter_id", ch.ID), zap.Error(err))
				continue
			}

			pages := kmViewerPages(client, viewer)
			if len(pages) == 0 {
				log.Warn("viewer returned no pages, skipping chapter",
					zap.Int64("chapter_id", ch.ID))
				continue
			}

			ph := pm.Register(ch.Title)
			files, bytes, err := dl.DownloadChapter(ctx, titleID, ch.ID, pages, ph)
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

			if viewer.Web != nil {
				// Reading to the end grants the bonus point on web
				// sessions; the download itself does not depend on it.
				if _, err := client.FinishEpisodeViewer(ctx, ep); err != nil {
					log.Debug("viewer finish failed", zap.Error(err))
				}
			}

			if flagKMDownloadCBZ || cfg.CBZ {
				if err := util.CreateCBZ(files, ch.OutputCBZPath(dl.TitleDir(titleID))); err != nil {
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

// kmViewerPages turns whichever viewer variant the session produced into
// the downloader's page list. Web pages need the scramble seed; mobile
// pages stream as-is.
func kmViewerPages(client *km.Client, viewer *km.EpisodeViewer) []downloader.Page {
	if viewer.Web != nil {
		seed := viewer.Web.ScrambleSeed
		pages := make([]downloader.Page, 0, len(viewer.Web.PageURLs))
		for i, pageURL := range viewer.Web.PageURLs {
			pages = append(pages, downloader.Page{
				Name: downloader.PageName(i+1, "png"),
				Fetch: func(ctx context.Context, w io.Writer) error {
					return client.DownloadImage(ctx, pageURL, &seed, w)
				},
			})
		}
		return pages
	}

	if viewer.Mobile != nil {
		pages := make([]downloader.Page, 0, len(viewer.Mobile.Pages))
		for i := range viewer.Mobile.Pages {
			page := viewer.Mobile.Pages[i]
			pages = append(pages, downloader.Page{
				Name: downloader.PageName(i+1, page.Extension()),
				Fetch: func(ctx context.Context, w io.Writer) error {
					return client.DownloadImage(ctx, page.URL, nil, w)
				},
			})
		}
		return pages
	}

	return nil
}

func kmTitleInfo(title *km.TitleNode, episodes []km.EpisodeNode) downloader.TitleInfo {
	info := downloader.TitleInfo{
		Title:  title.Title,
		Author: title.Author,
	}
	for _, ep := range episodes {
		var ts *int64
		if t, err := time.Parse(time.RFC3339, ep.StartTime); err == nil {
			unix := t.Unix()
			ts = &unix
		}
		info.Chapters = append(info.Chapters, downloader.ChapterInfo{
			ID:        uint64(ep.ID),
			Name:      ep.Title,
			Timestamp: ts,
		})
	}
	return info
}

func init() {
	kmDownloadCmd.Flags().StringVar(&flagKMDownloadChapter, "chapter", "", "single chapter by id or position")
	kmDownloadCmd.Flags().StringVar(&flagKMDownloadRange, "range", "", "chapter range by position (e.g. 5-12)")
	kmDownloadCmd.Flags().StringVar(&flagKMDownloadList, "list", "", "chapter positions (e.g. 1,3,5)")
	kmDownloadCmd.Flags().BoolVar(&flagKMDownloadForce, "force", false, "redownload chapters that already exist")
	kmDownloadCmd.Flags().BoolVar(&flagKMDownloadCBZ, "cbz", false, "pack each chapter into a .cbz archive")

	kmCmd.AddCommand(kmDownloadCmd)
}
