package km

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, cfg Config, handler http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(ClientOptions{
		Config:     cfg,
		HTTPClient: srv.Client(),
		BaseURL:    srv.URL,
	})
	require.NoError(t, err)

	return client
}

func TestRequestCarriesSignature(t *testing.T) {
	cfg := &ConfigMobile{UserID: "12345", UserSecret: "secret", Platform: PlatformAndroid}

	var gotHash, gotUserID string
	client := newTestClient(t, cfg, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHash = r.Header.Get("x-mgpk-hash")
		gotUserID = r.URL.Query().Get("user_id")
		fmt.Fprint(w, `{"status":"success","response_code":0,"error_message":""}`)
	}))

	require.NoError(t, client.request(context.Background(), http.MethodGet, "/account", nil, nil))

	assert.Equal(t, "12345", gotUserID)
	assert.Len(t, gotHash, 64)
}

func TestRequestAPIError(t *testing.T) {
	cfg := DefaultWebConfig()
	client := newTestClient(t, cfg, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"fail","response_code":401,"error_message":"session expired"}`)
	}))

	err := client.request(context.Background(), http.MethodGet, "/account", nil, nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, int32(401), apiErr.Code)
	assert.Equal(t, "session expired", apiErr.Message)
}

func TestRequestRefreshesWebSession(t *testing.T) {
	cfg := DefaultWebConfig()
	cfg.UWT = "old-token"

	var refreshed *ConfigWeb
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("Cookie"), "uwt=old-token")
		http.SetCookie(w, &http.Cookie{Name: "uwt", Value: "rotated-token"})
		fmt.Fprint(w, `{"status":"success","response_code":0,"error_message":""}`)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(ClientOptions{
		Config:           cfg,
		HTTPClient:       srv.Client(),
		BaseURL:          srv.URL,
		OnSessionRefresh: func(c *ConfigWeb) { refreshed = c },
	})
	require.NoError(t, err)

	require.NoError(t, client.request(context.Background(), http.MethodGet, "/account", nil, nil))

	require.NotNil(t, refreshed)
	assert.Equal(t, "rotated-token", refreshed.UWT)
}

func TestGetEpisodesChunks(t *testing.T) {
	cfg := DefaultWebConfig()

	var calls []int
	client := newTestClient(t, cfg, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		ids := strings.Split(r.PostForm.Get("episode_id_list"), ",")
		calls = append(calls, len(ids))

		var nodes []string
		for _, id := range ids {
			nodes = append(nodes, fmt.Sprintf(`{"episode_id":%s,"badge":2}`, id))
		}
		fmt.Fprintf(w, `{"status":"success","response_code":0,"error_message":"","episode_list":[%s]}`,
			strings.Join(nodes, ","))
	}))

	ids := make([]int32, 120)
	for i := range ids {
		ids[i] = int32(i + 1)
	}

	episodes, err := client.GetEpisodes(context.Background(), ids)
	require.NoError(t, err)

	assert.Len(t, episodes, 120)
	assert.Equal(t, []int{50, 50, 20}, calls)
	assert.Equal(t, int32(1), episodes[0].ID)
	assert.Equal(t, int32(120), episodes[119].ID)
}

func TestClaimEpisodeDebitsWallet(t *testing.T) {
	cfg := DefaultWebConfig()
	client := newTestClient(t, cfg, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "10", r.PostForm.Get("episode_id"))
		assert.Equal(t, "30", r.PostForm.Get("check_point"))
		fmt.Fprint(w, `{"status":"success","response_code":0,"error_message":"","account_point":70,"paid_point":30}`)
	}))

	wallet := &UserPoint{FreePoint: 20, PaidPoint: 80}
	episode := &EpisodeNode{ID: 10, Point: 30, Badge: BadgePurchaseable}

	resp, err := client.ClaimEpisode(context.Background(), episode, wallet)
	require.NoError(t, err)

	assert.Equal(t, int32(30), resp.Paid)
	// Free points drain first.
	assert.Equal(t, uint64(0), wallet.FreePoint)
	assert.Equal(t, uint64(70), wallet.PaidPoint)
}

func TestClaimEpisodeNotEnoughPoints(t *testing.T) {
	cfg := DefaultWebConfig()
	client := newTestClient(t, cfg, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected when the wallet is short")
	}))

	wallet := &UserPoint{FreePoint: 5}
	episode := &EpisodeNode{ID: 10, Point: 30}

	_, err := client.ClaimEpisode(context.Background(), episode, wallet)

	var short *NotEnoughPointsError
	require.ErrorAs(t, err, &short)
	assert.Equal(t, uint64(30), short.PointsNeeded)
	assert.Equal(t, uint64(5), short.PointsHave)
}

func TestClaimEpisodesCountsPointBack(t *testing.T) {
	cfg := DefaultWebConfig()
	client := newTestClient(t, cfg, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "1,2", r.PostForm.Get("episode_id_list"))
		assert.Equal(t, "60", r.PostForm.Get("paid_point"))
		assert.Equal(t, "10", r.PostForm.Get("point_back"))
		fmt.Fprint(w, `{"status":"success","response_code":0,"error_message":"","account_point":0,"paid_point":60,"earned_point_back":10}`)
	}))

	// 55 points on hand only covers the 60-point basket because the
	// 10-point bonus counts toward affordability.
	wallet := &UserPoint{FreePoint: 55}
	episodes := []*EpisodeNode{
		{ID: 1, Point: 30, BonusPoint: 5},
		{ID: 2, Point: 30, BonusPoint: 5},
	}

	resp, err := client.ClaimEpisodes(context.Background(), episodes, wallet)
	require.NoError(t, err)

	assert.Equal(t, int32(10), resp.PointBack)
	assert.Equal(t, uint64(10), wallet.TotalPoint())
}

func TestGetEpisodeViewerWeb(t *testing.T) {
	cfg := DefaultWebConfig()
	client := newTestClient(t, cfg, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/web/episode/viewer", r.URL.Path)
		fmt.Fprint(w, `{"status":"success","response_code":0,"error_message":"",`+
			`"episode_id":42,"page_list":["https://cdn.example/p1.jpg"],"bonus_point":3,"title_id":7,"scramble_seed":749191485}`)
	}))

	viewer, err := client.GetEpisodeViewer(context.Background(), &EpisodeNode{ID: 42})
	require.NoError(t, err)

	require.NotNil(t, viewer.Web)
	assert.Nil(t, viewer.Mobile)
	assert.Equal(t, uint32(749191485), viewer.Web.ScrambleSeed)
	assert.Len(t, viewer.Web.PageURLs, 1)
}

func TestGetEpisodeViewerMobile(t *testing.T) {
	cfg := &ConfigMobile{UserID: "1", UserSecret: "s", Platform: PlatformAndroid}
	client := newTestClient(t, cfg, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/episode/viewer", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("force_master"))
		assert.Equal(t, "1", r.URL.Query().Get("is_download"))
		fmt.Fprint(w, `{"status":"success","response_code":0,"error_message":"",`+
			`"episode_id":42,"page_list":[{"index":0,"image_url":"https://cdn.example/p1.jpg"}],"episode_list":[]}`)
	}))

	viewer, err := client.GetEpisodeViewer(context.Background(), &EpisodeNode{ID: 42})
	require.NoError(t, err)

	require.NotNil(t, viewer.Mobile)
	assert.Equal(t, "p1.jpg", viewer.Mobile.Pages[0].FileName())
	assert.Equal(t, "jpg", viewer.Mobile.Pages[0].Extension())
	assert.Equal(t, "p1", viewer.Mobile.Pages[0].FileStem())
}

func TestGetTitleTicketEmpty(t *testing.T) {
	cfg := DefaultWebConfig()
	client := newTestClient(t, cfg, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"success","response_code":0,"error_message":"","title_ticket_list":[]}`)
	}))

	_, err := client.GetTitleTicket(context.Background(), 99)
	assert.Error(t, err)
}

func TestLoginWithCookies(t *testing.T) {
	cookies := strings.Join([]string{
		"# Netscape HTTP Cookie File",
		".example.com\tTRUE\t/\tTRUE\t1999999999\tuwt\ttoken-from-export",
		"",
	}, "\n")

	var gotCookie string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCookie = r.Header.Get("Cookie")
		fmt.Fprint(w, `{"status":"success","response_code":0,"error_message":"","account":{"account_id":42,"user_id":7,"nickname":"reader","email":"reader@example.com"}}`)
	}))
	t.Cleanup(srv.Close)

	result, err := LoginWithCookies(context.Background(), cookies, LoginOptions{
		HTTPClient: srv.Client(),
		BaseURL:    srv.URL,
	})
	require.NoError(t, err)

	assert.Contains(t, gotCookie, "uwt=token-from-export")

	web, ok := result.Config.(*ConfigWeb)
	require.True(t, ok)
	assert.Equal(t, "token-from-export", web.UWT)
	assert.Equal(t, "reader", web.Username)
	assert.Equal(t, uint32(42), web.AccountID)
	assert.Equal(t, uint32(7), web.DeviceID)
}

func TestWalletSubtractShortIsNoOp(t *testing.T) {
	wallet := &UserPoint{FreePoint: 10, PaidPoint: 10}
	wallet.Subtract(25)

	assert.Equal(t, uint64(20), wallet.TotalPoint())
}

func TestTicketNodeSubtract(t *testing.T) {
	node := &TitleTicketListNode{
		ID: 1,
		Info: TicketInfo{
			Title:   &TitleTicketInfo{Owned: 1},
			Premium: &PremiumTicketInfo{Owned: 0},
		},
	}

	assert.True(t, node.TitleAvailable())
	assert.False(t, node.PremiumAvailable())
	assert.True(t, node.HasTicket())

	node.SubtractTitle()
	assert.False(t, node.HasTicket())

	// Subtracting past zero saturates.
	node.SubtractTitle()
	node.SubtractPremium()
	assert.Equal(t, uint64(0), node.Info.Title.Owned)
	assert.Equal(t, uint64(0), node.Info.Premium.Owned)
}
