package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/sodachi/mangetsu/internal/mu"
)

func newMUSource(t *testing.T, handler http.Handler) Source {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := mu.NewClient(mu.ClientOptions{
		Secret:     "test-secret",
		Platform:   mu.PlatformAndroid,
		HTTPClient: srv.Client(),
		BaseURL:    srv.URL,
	})
	require.NoError(t, err)

	return NewMU(client, nil)
}

func muVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func muText(b []byte, num protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func muMessage(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}

func muChapter(id uint64, title string, consumption mu.ConsumptionType, price uint64) []byte {
	ch := muVarint(nil, 1, id)
	ch = muText(ch, 2, title)
	if consumption != 0 {
		ch = muVarint(ch, 5, uint64(consumption))
	}
	if price != 0 {
		ch = muVarint(ch, 6, price)
	}
	return ch
}

func muViewerWithOnePage() []byte {
	page := muText(nil, 1, "https://img.example/p001.jpg")
	block := muText(nil, 2, "block")
	block = muMessage(block, 3, page)
	return muMessage(nil, 3, block)
}

func TestMUFetchTitle(t *testing.T) {
	detail := muText(nil, 3, "Moonlit Courier")
	detail = muText(detail, 4, "B. Author")
	detail = muMessage(detail, 13, muChapter(101, "Chapter 1", 0, 0))
	detail = muMessage(detail, 13, muChapter(102, "Chapter 2", mu.ConsumePaid, 500))

	src := newMUSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/manga/detail_v2", r.URL.Path)
		w.Write(detail)
	}))

	title, err := src.FetchTitle(context.Background(), 9)
	require.NoError(t, err)

	assert.Equal(t, "Moonlit Courier", title.Name)
	assert.Equal(t, "B. Author", title.Authors)
	require.Len(t, title.Chapters, 2)
	assert.Equal(t, int64(101), title.Chapters[0].ID)
	assert.Zero(t, title.Chapters[0].Price)
	assert.Equal(t, uint64(500), title.Chapters[1].Price)
}

func TestMUBalance(t *testing.T) {
	point := muVarint(nil, 1, 5)
	point = muVarint(point, 2, 10)
	point = muVarint(point, 3, 30)
	shop := muMessage(nil, 1, point)

	src := newMUSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/point/shop", r.URL.Path)
		w.Write(shop)
	}))

	balance, err := src.Balance(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint64(5), balance.Free)
	assert.Equal(t, uint64(10), balance.Event)
	assert.Equal(t, uint64(30), balance.Paid)
	assert.Equal(t, uint64(45), balance.Total())
}

// A batch with a free chapter, an unaffordable paid-only chapter, and an
// affordable one must claim both readable chapters, record one failure,
// and spend nothing on the skipped chapter. The coin split sent for the
// last chapter proves the skipped one left every balance untouched.
func TestMUPurchaseSkipsUnaffordableChapter(t *testing.T) {
	point := muVarint(nil, 1, 5)
	point = muVarint(point, 3, 30)

	detail := muMessage(nil, 2, point)
	detail = muText(detail, 3, "Moonlit Courier")
	detail = muMessage(detail, 13, muChapter(101, "Chapter 1", 0, 0))
	detail = muMessage(detail, 13, muChapter(102, "Chapter 2", mu.ConsumePaid, 500))
	detail = muMessage(detail, 13, muChapter(103, "Chapter 3", mu.ConsumeAny, 35))

	type claim struct{ free, event, paid string }
	claims := map[string]claim{}

	src := newMUSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/manga/detail_v2":
			w.Write(detail)
		case "/manga/viewer_v2":
			require.NoError(t, r.ParseForm())
			claims[r.PostForm.Get("chapter_id")] = claim{
				free:  r.PostForm.Get("free_point"),
				event: r.PostForm.Get("event_point"),
				paid:  r.PostForm.Get("paid_point"),
			}
			w.Write(muViewerWithOnePage())
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	report, err := src.Purchase(context.Background(), 9, []int64{101, 102, 103})
	require.NoError(t, err)

	assert.Equal(t, []int64{101, 103}, report.Purchased)
	require.Equal(t, 1, report.FailureCount())
	assert.Equal(t, int64(102), report.Failures[0].ChapterID)
	assert.Equal(t, "insufficient point balance", report.Failures[0].Reason)

	require.Len(t, claims, 2)
	assert.Equal(t, claim{"0", "0", "0"}, claims["101"])
	assert.Equal(t, claim{"5", "0", "30"}, claims["103"])
}

func TestMUPurchaseUnknownChapter(t *testing.T) {
	detail := muMessage(nil, 2, muVarint(nil, 1, 5))
	detail = muText(detail, 3, "Moonlit Courier")
	detail = muMessage(detail, 13, muChapter(101, "Chapter 1", 0, 0))

	src := newMUSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(detail)
	}))

	report, err := src.Purchase(context.Background(), 9, []int64{555})
	require.NoError(t, err)

	assert.Empty(t, report.Purchased)
	require.Equal(t, 1, report.FailureCount())
	assert.Equal(t, int64(555), report.Failures[0].ChapterID)
}

func TestMUPurchaseEmptyViewerBlocksIsFailure(t *testing.T) {
	detail := muMessage(nil, 2, muVarint(nil, 1, 5))
	detail = muText(detail, 3, "Moonlit Courier")
	detail = muMessage(detail, 13, muChapter(101, "Chapter 1", 0, 0))

	src := newMUSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/manga/detail_v2":
			w.Write(detail)
		case "/manga/viewer_v2":
			w.Write(nil)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	report, err := src.Purchase(context.Background(), 9, []int64{101})
	require.NoError(t, err)

	assert.Empty(t, report.Purchased)
	require.Equal(t, 1, report.FailureCount())
	assert.Equal(t, "claim returned no pages", report.Failures[0].Reason)
}
