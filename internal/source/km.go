package source

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sodachi/mangetsu/internal/km"
)

type kmSource struct {
	client *km.Client
	log    *zap.Logger
}

// NewKM wraps a configured km client in the capability surface.
func NewKM(client *km.Client, log *zap.Logger) Source {
	if log == nil {
		log = zap.NewNop()
	}
	return &kmSource{client: client, log: log}
}

func (s *kmSource) Kind() Kind { return KindKM }

func (s *kmSource) FetchTitle(ctx context.Context, titleID int64) (*Title, error) {
	titles, err := s.client.GetTitles(ctx, []int32{int32(titleID)})
	if err != nil {
		return nil, err
	}
	if len(titles) == 0 {
		return nil, fmt.Errorf("km: title %d not found", titleID)
	}

	node := titles[0]
	episodes, err := s.client.GetEpisodes(ctx, node.EpisodeIDs)
	if err != nil {
		return nil, err
	}

	title := &Title{
		ID:          int64(node.ID),
		Name:        node.Title,
		Authors:     node.Author,
		Description: node.Description,
		Chapters:    make([]Chapter, 0, len(episodes)),
	}
	for _, ep := range episodes {
		title.Chapters = append(title.Chapters, Chapter{
			ID:    int64(ep.ID),
			Title: ep.Title,
			Price: uint64(max(ep.Point, 0)),
			Owned: ep.IsAvailable(),
		})
	}
	return title, nil
}

func (s *kmSource) Balance(ctx context.Context) (*Balance, error) {
	resp, err := s.client.GetUserPoint(ctx)
	if err != nil {
		return nil, err
	}
	return &Balance{
		Free:           resp.Point.FreePoint,
		Paid:           resp.Point.PaidPoint,
		PremiumTickets: resp.Ticket.TotalNum,
	}, nil
}

// Purchase claims chapters ticket-first: title tickets, then premium
// tickets, then points. Point claims are pre-checked against a local
// wallet copy so unaffordable chapters are skipped up front instead of
// bouncing off the backend, and are then sent as one bulk claim.
func (s *kmSource) Purchase(ctx context.Context, titleID int64, chapterIDs []int64) (*PurchaseReport, error) {
	ids := make([]int32, 0, len(chapterIDs))
	for _, id := range chapterIDs {
		ids = append(ids, int32(id))
	}

	episodes, err := s.client.GetEpisodes(ctx, ids)
	if err != nil {
		return nil, err
	}
	point, err := s.client.GetUserPoint(ctx)
	if err != nil {
		return nil, err
	}

	tickets, err := s.client.GetTitleTicket(ctx, int32(titleID))
	if err != nil {
		// Not every title carries a ticket entry; fall through to points.
		s.log.Debug("no ticket ledger for title",
			zap.Int64("title_id", titleID), zap.Error(err))
		tickets = &km.TitleTicketListNode{ID: int32(titleID)}
	}

	type ticketClaim struct {
		episode *km.EpisodeNode
		ticket  km.Ticket
	}

	report := &PurchaseReport{}
	wallet := point.Point
	var ticketClaims []ticketClaim
	var pointClaims []*km.EpisodeNode

	for i := range episodes {
		ep := &episodes[i]
		price := uint64(max(ep.Point, 0))
		switch {
		case ep.IsAvailable():
			report.Skipped = append(report.Skipped, int64(ep.ID))
		case ep.IsTicketable() && tickets.TitleAvailable():
			ticketClaims = append(ticketClaims, ticketClaim{ep, km.Ticket{Title: tickets.Info.Title}})
			tickets.SubtractTitle()
		case ep.IsTicketable() && tickets.PremiumAvailable():
			ticketClaims = append(ticketClaims, ticketClaim{ep, km.Ticket{}})
			tickets.SubtractPremium()
		case wallet.CanPurchase(price):
			wallet.Subtract(price)
			pointClaims = append(pointClaims, ep)
		default:
			report.fail(int64(ep.ID), "insufficient point balance")
		}
	}

	for _, claim := range ticketClaims {
		if err := s.client.ClaimEpisodeWithTicket(ctx, claim.episode.ID, claim.ticket); err != nil {
			s.log.Warn("ticket claim failed",
				zap.Int32("episode_id", claim.episode.ID), zap.Error(err))
			report.fail(int64(claim.episode.ID), err.Error())
			continue
		}
		claim.episode.SetAvailable()
		report.Purchased = append(report.Purchased, int64(claim.episode.ID))
	}

	if len(pointClaims) > 0 {
		live := point.Point
		if _, err := s.client.ClaimEpisodes(ctx, pointClaims, &live); err != nil {
			s.log.Warn("bulk point claim failed", zap.Error(err))
			for _, ep := range pointClaims {
				report.fail(int64(ep.ID), err.Error())
			}
		} else {
			for _, ep := range pointClaims {
				ep.SetAvailable()
				report.Purchased = append(report.Purchased, int64(ep.ID))
			}
		}
	}

	return report, nil
}
