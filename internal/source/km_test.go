package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sodachi/mangetsu/internal/km"
)

func newKMSource(t *testing.T, handler http.Handler) Source {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := km.NewClient(km.ClientOptions{
		Config:     km.DefaultWebConfig(),
		HTTPClient: srv.Client(),
		BaseURL:    srv.URL,
	})
	require.NoError(t, err)

	return NewKM(client, nil)
}

const kmOK = `"status":"success","response_code":0,"error_message":""`

func TestKMFetchTitle(t *testing.T) {
	src := newKMSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/title/list":
			fmt.Fprintf(w, `{%s,"title_list":[{"title_id":7,"title_name":"Gate of Dawn","author_text":"A. Writer","episode_id_list":[1,2]}]}`, kmOK)
		case "/episode/list":
			fmt.Fprintf(w, `{%s,"episode_list":[{"episode_id":1,"episode_name":"Chapter 1","badge":2},{"episode_id":2,"episode_name":"Chapter 2","badge":1,"point":30}]}`, kmOK)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	title, err := src.FetchTitle(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, int64(7), title.ID)
	assert.Equal(t, "Gate of Dawn", title.Name)
	require.Len(t, title.Chapters, 2)
	assert.True(t, title.Chapters[0].Owned)
	assert.False(t, title.Chapters[1].Owned)
	assert.Equal(t, uint64(30), title.Chapters[1].Price)
}

func TestKMBalance(t *testing.T) {
	src := newKMSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{%s,"point":{"paid_point":120,"free_point":30},"ticket":{"total_num":2}}`, kmOK)
	}))

	balance, err := src.Balance(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint64(30), balance.Free)
	assert.Equal(t, uint64(120), balance.Paid)
	assert.Equal(t, uint64(150), balance.Total())
	assert.Equal(t, uint64(2), balance.PremiumTickets)
}

func TestKMPurchaseTicketFirstThenPoints(t *testing.T) {
	var ticketForms []map[string]string
	var bulkList, bulkPaid string

	src := newKMSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		switch r.URL.Path {
		case "/episode/list":
			fmt.Fprintf(w, `{%s,"episode_list":[
				{"episode_id":1,"episode_name":"Chapter 1","badge":1,"point":0},
				{"episode_id":2,"episode_name":"Chapter 2","badge":1,"point":500},
				{"episode_id":3,"episode_name":"Chapter 3","badge":2,"point":30},
				{"episode_id":4,"episode_name":"Chapter 4","badge":1,"point":60,"ticket_rental_enabled":1}
			]}`, kmOK)
		case "/account/point":
			fmt.Fprintf(w, `{%s,"point":{"paid_point":0,"free_point":10},"ticket":{"total_num":0}}`, kmOK)
		case "/title/ticket/list":
			fmt.Fprintf(w, `{%s,"title_ticket_list":[{"title_id":7,"ticket_info":{"title_ticket_info":{"own_ticket_num":1,"ticket_version":2,"ticket_type":1}}}]}`, kmOK)
		case "/episode/rental/ticket":
			ticketForms = append(ticketForms, map[string]string{
				"episode_id":     r.PostForm.Get("episode_id"),
				"ticket_version": r.PostForm.Get("ticket_version"),
				"ticket_type":    r.PostForm.Get("ticket_type"),
			})
			fmt.Fprintf(w, `{%s}`, kmOK)
		case "/episode/paid/bulk":
			bulkList = r.PostForm.Get("episode_id_list")
			bulkPaid = r.PostForm.Get("paid_point")
			fmt.Fprintf(w, `{%s,"account_point":10,"paid_point":0,"earned_point_back":0}`, kmOK)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	report, err := src.Purchase(context.Background(), 7, []int64{1, 2, 3, 4})
	require.NoError(t, err)

	assert.Equal(t, []int64{4, 1}, report.Purchased)
	assert.Equal(t, []int64{3}, report.Skipped)
	require.Equal(t, 1, report.FailureCount())
	assert.Equal(t, int64(2), report.Failures[0].ChapterID)
	assert.Equal(t, "insufficient point balance", report.Failures[0].Reason)

	require.Len(t, ticketForms, 1)
	assert.Equal(t, "4", ticketForms[0]["episode_id"])
	assert.Equal(t, "2", ticketForms[0]["ticket_version"])
	assert.Equal(t, "1", ticketForms[0]["ticket_type"])

	assert.Equal(t, "1", bulkList)
	assert.Equal(t, "0", bulkPaid)
}

func TestKMPurchaseTicketClaimFailureDoesNotAbortBatch(t *testing.T) {
	src := newKMSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		switch r.URL.Path {
		case "/episode/list":
			fmt.Fprintf(w, `{%s,"episode_list":[
				{"episode_id":1,"episode_name":"Chapter 1","badge":1,"point":10},
				{"episode_id":2,"episode_name":"Chapter 2","badge":1,"point":60,"ticket_rental_enabled":1}
			]}`, kmOK)
		case "/account/point":
			fmt.Fprintf(w, `{%s,"point":{"paid_point":50,"free_point":0},"ticket":{"total_num":0}}`, kmOK)
		case "/title/ticket/list":
			fmt.Fprintf(w, `{%s,"title_ticket_list":[{"title_id":7,"ticket_info":{"title_ticket_info":{"own_ticket_num":1,"ticket_version":1,"ticket_type":1}}}]}`, kmOK)
		case "/episode/rental/ticket":
			fmt.Fprint(w, `{"status":"fail","response_code":1102,"error_message":"ticket expired"}`)
		case "/episode/paid/bulk":
			fmt.Fprintf(w, `{%s,"account_point":40,"paid_point":10,"earned_point_back":0}`, kmOK)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	report, err := src.Purchase(context.Background(), 7, []int64{1, 2})
	require.NoError(t, err)

	assert.Equal(t, []int64{1}, report.Purchased)
	require.Equal(t, 1, report.FailureCount())
	assert.Equal(t, int64(2), report.Failures[0].ChapterID)
	assert.Contains(t, report.Failures[0].Reason, "ticket expired")
}

func TestKMPurchaseNoTicketLedgerFallsBackToPoints(t *testing.T) {
	src := newKMSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		switch r.URL.Path {
		case "/episode/list":
			fmt.Fprintf(w, `{%s,"episode_list":[{"episode_id":1,"episode_name":"Chapter 1","badge":1,"point":10,"ticket_rental_enabled":1}]}`, kmOK)
		case "/account/point":
			fmt.Fprintf(w, `{%s,"point":{"paid_point":50,"free_point":0},"ticket":{"total_num":0}}`, kmOK)
		case "/title/ticket/list":
			fmt.Fprintf(w, `{%s,"title_ticket_list":[]}`, kmOK)
		case "/episode/paid/bulk":
			fmt.Fprintf(w, `{%s,"account_point":40,"paid_point":10,"earned_point_back":0}`, kmOK)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	report, err := src.Purchase(context.Background(), 7, []int64{1})
	require.NoError(t, err)

	assert.Equal(t, []int64{1}, report.Purchased)
	assert.Zero(t, report.FailureCount())
}
