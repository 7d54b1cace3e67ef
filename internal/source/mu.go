package source

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sodachi/mangetsu/internal/mu"
)

type muSource struct {
	client *mu.Client
	log    *zap.Logger
}

// NewMU wraps a configured mu client in the capability surface.
func NewMU(client *mu.Client, log *zap.Logger) Source {
	if log == nil {
		log = zap.NewNop()
	}
	return &muSource{client: client, log: log}
}

func (s *muSource) Kind() Kind { return KindMU }

func (s *muSource) FetchTitle(ctx context.Context, titleID int64) (*Title, error) {
	detail, err := s.client.GetManga(ctx, uint64(titleID))
	if err != nil {
		return nil, err
	}

	title := &Title{
		ID:          titleID,
		Name:        detail.Title,
		Authors:     detail.Authors,
		Description: detail.Description,
		Chapters:    make([]Chapter, 0, len(detail.Chapters)),
	}
	for _, ch := range detail.Chapters {
		title.Chapters = append(title.Chapters, Chapter{
			ID:    int64(ch.ID),
			Title: ch.FormattedTitle(),
			Price: ch.Price,
		})
	}
	return title, nil
}

func (s *muSource) Balance(ctx context.Context) (*Balance, error) {
	point, err := s.client.GetUserPoint(ctx)
	if err != nil {
		return nil, err
	}
	return &Balance{Free: point.Free, Event: point.Event, Paid: point.Paid}, nil
}

// Purchase claims chapters one by one. Each chapter's coin split is
// computed against a local ledger that is debited only after the split
// proves affordable, so a skipped chapter never touches any balance.
func (s *muSource) Purchase(ctx context.Context, titleID int64, chapterIDs []int64) (*PurchaseReport, error) {
	detail, err := s.client.GetManga(ctx, uint64(titleID))
	if err != nil {
		return nil, err
	}

	ledger := detail.UserPoint
	if ledger == nil {
		ledger, err = s.client.GetUserPoint(ctx)
		if err != nil {
			return nil, err
		}
	}

	byID := make(map[uint64]*mu.ChapterV2, len(detail.Chapters))
	for i := range detail.Chapters {
		byID[detail.Chapters[i].ID] = &detail.Chapters[i]
	}

	report := &PurchaseReport{}
	for _, id := range chapterIDs {
		chapter, ok := byID[uint64(id)]
		if !ok {
			report.fail(id, fmt.Sprintf("chapter %d not part of title %d", id, titleID))
			continue
		}

		consume := mu.CalculateCoin(ledger, chapter)
		if !consume.IsPossible() {
			s.log.Warn("skipping unaffordable chapter",
				zap.Uint64("chapter_id", chapter.ID),
				zap.Uint64("price", chapter.Price))
			report.fail(id, "insufficient point balance")
			continue
		}

		ledger.Free -= consume.Free
		ledger.Event -= consume.Event
		ledger.Paid -= consume.Paid

		viewer, err := s.client.GetChapterImages(ctx, chapter.ID, mu.QualityHigh, consume)
		if err != nil {
			report.fail(id, err.Error())
			continue
		}
		if len(viewer.Blocks) == 0 {
			report.fail(id, "claim returned no pages")
			continue
		}
		report.Purchased = append(report.Purchased, id)
	}

	return report, nil
}
