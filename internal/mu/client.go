package mu

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sodachi/mangetsu/internal/util"
)

// APIError is a backend failure reported inside a decoded payload.
type APIError struct {
	Status  Status
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", int32(e.Status), e.Message)
}

// ClientOptions configures a Client. Only Secret is required.
type ClientOptions struct {
	// Secret is the account session token sent with every request.
	Secret   string
	Platform Platform

	// HTTPClient overrides the default transport, mainly for tests.
	HTTPClient *http.Client

	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL string

	Logger *zap.Logger
}

// Client is an authenticated API client for one stored session. The
// backend authenticates with a bare secret query parameter and responds
// with protobuf wire payloads.
type Client struct {
	http      *http.Client
	secret    string
	constants *platformConstants
	baseURL   string
	log       *zap.Logger
}

// NewClient builds a client for the given session secret.
func NewClient(opts ClientOptions) (*Client, error) {
	if opts.Secret == "" {
		return nil, fmt.Errorf("mu: empty session secret")
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = util.NewHTTPClient(util.HTTPClientOptions{
			Timeout: 60 * time.Second,
			Logger:  logger,
		})
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = "https://" + APIHost + "/api"
	}

	return &Client{
		http:      httpClient,
		secret:    opts.Secret,
		constants: constantsFor(opts.Platform),
		baseURL:   baseURL,
		log:       logger,
	}, nil
}

// buildParams adds the parameters every request carries.
func (c *Client) buildParams(params url.Values) url.Values {
	if params == nil {
		params = url.Values{}
	}
	params.Set("secret", c.secret)
	params.Set("app_ver", c.constants.appVer)
	params.Set("os_ver", c.constants.osVer)
	params.Set("lang", "en")
	return params
}

// request performs an API call and returns the raw protobuf payload.
// GET requests carry params in the query string, POST as a form body.
func (c *Client) request(ctx context.Context, method, path string, params url.Values) ([]byte, error) {
	params = c.buildParams(params)

	var req *http.Request
	var err error
	if method == http.MethodGet {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path+"?"+params.Encode(), nil)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, strings.NewReader(params.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		return nil, fmt.Errorf("mu: build request: %w", err)
	}
	req.Header.Set("User-Agent", c.constants.apiUA)

	c.log.Debug("api request", zap.String("method", method), zap.String("path", path))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mu: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mu: %s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("mu: read response: %w", err)
	}

	return body, nil
}

// GetUserPoint fetches the account's coin purse via the point shop.
func (c *Client) GetUserPoint(ctx context.Context) (*UserPoint, error) {
	shop, err := c.GetPointShop(ctx)
	if err != nil {
		return nil, err
	}
	if shop.UserPoint == nil {
		return nil, fmt.Errorf("mu: point shop response missing user point")
	}
	return shop.UserPoint, nil
}

// GetPointShop fetches the full point shop page.
func (c *Client) GetPointShop(ctx context.Context) (*PointShopView, error) {
	body, err := c.request(ctx, http.MethodGet, "/point/shop", nil)
	if err != nil {
		return nil, err
	}
	view, err := unmarshalPointShopView(body)
	if err != nil {
		return nil, fmt.Errorf("mu: decode point shop: %w", err)
	}
	return view, nil
}

// GetPointHistory fetches the coin acquisition log.
func (c *Client) GetPointHistory(ctx context.Context) (*PointHistoryView, error) {
	body, err := c.request(ctx, http.MethodGet, "/point/history", nil)
	if err != nil {
		return nil, err
	}
	view, err := unmarshalPointHistoryView(body)
	if err != nil {
		return nil, fmt.Errorf("mu: decode point history: %w", err)
	}
	return view, nil
}

// GetManga fetches a title's detail page, including its chapter list.
func (c *Client) GetManga(ctx context.Context, mangaID uint64) (*MangaDetailV2, error) {
	params := url.Values{}
	params.Set("title_id", strconv.FormatUint(mangaID, 10))
	params.Set("ui_lang", "en")
	params.Set("quality", string(QualityHigh))

	body, err := c.request(ctx, http.MethodGet, "/manga/detail_v2", params)
	if err != nil {
		return nil, err
	}

	detail, err := unmarshalMangaDetailV2(body)
	if err != nil {
		return nil, fmt.Errorf("mu: decode manga detail: %w", err)
	}
	if detail.Status != StatusSuccess {
		return nil, &APIError{Status: detail.Status, Message: fmt.Sprintf("manga %d unavailable", mangaID)}
	}

	return detail, nil
}

// GetWeeklyTitles fetches the titles released on one weekday.
func (c *Client) GetWeeklyTitles(ctx context.Context, weekday WeeklyCode) (*MangaResults, error) {
	params := url.Values{}
	params.Set("code", string(weekday))

	body, err := c.request(ctx, http.MethodGet, "/manga/weekly", params)
	if err != nil {
		return nil, err
	}

	results, err := unmarshalMangaResults(body)
	if err != nil {
		return nil, fmt.Errorf("mu: decode weekly titles: %w", err)
	}
	return results, nil
}

// Search looks up titles by keyword.
func (c *Client) Search(ctx context.Context, query string) (*MangaResults, error) {
	params := url.Values{}
	params.Set("word", query)

	body, err := c.request(ctx, http.MethodGet, "/manga/search", params)
	if err != nil {
		return nil, err
	}

	results, err := unmarshalMangaResults(body)
	if err != nil {
		return nil, fmt.Errorf("mu: decode search results: %w", err)
	}
	return results, nil
}

// SearchByTag lists the titles carrying one tag.
func (c *Client) SearchByTag(ctx context.Context, tagID uint64) (*MangaResults, error) {
	params := url.Values{}
	params.Set("tag_id", strconv.FormatUint(tagID, 10))

	body, err := c.request(ctx, http.MethodPost, "/manga/tag", params)
	if err != nil {
		return nil, err
	}

	results, err := unmarshalMangaResults(body)
	if err != nil {
		return nil, fmt.Errorf("mu: decode tag results: %w", err)
	}
	return results, nil
}

// GetChapterImages opens the chapter reader, spending the coins in the
// given allocation. Use CalculateCoin first and check IsPossible, since
// a short allocation makes a doomed round trip.
func (c *Client) GetChapterImages(ctx context.Context, chapterID uint64, quality ImageQuality, coins ConsumeCoin) (*ChapterViewerV2, error) {
	params := url.Values{}
	params.Set("chapter_id", strconv.FormatUint(chapterID, 10))
	params.Set("quality", string(quality))
	params.Set("free_point", strconv.FormatUint(coins.Free, 10))
	params.Set("event_point", strconv.FormatUint(coins.Event, 10))
	params.Set("paid_point", strconv.FormatUint(coins.Paid, 10))

	body, err := c.request(ctx, http.MethodPost, "/manga/viewer_v2", params)
	if err != nil {
		return nil, err
	}

	viewer, err := unmarshalChapterViewerV2(body)
	if err != nil {
		return nil, fmt.Errorf("mu: decode chapter viewer: %w", err)
	}
	if viewer.Status != StatusSuccess {
		return nil, &APIError{Status: viewer.Status, Message: fmt.Sprintf("chapter %d unavailable", chapterID)}
	}

	return viewer, nil
}

// GetAccount fetches the account page.
func (c *Client) GetAccount(ctx context.Context) (*AccountView, error) {
	body, err := c.request(ctx, http.MethodGet, "/account/account", nil)
	if err != nil {
		return nil, err
	}
	view, err := unmarshalAccountView(body)
	if err != nil {
		return nil, fmt.Errorf("mu: decode account: %w", err)
	}
	return view, nil
}

// GetSetting fetches the settings page.
func (c *Client) GetSetting(ctx context.Context) (*SettingView, error) {
	body, err := c.request(ctx, http.MethodGet, "/setting/setting", nil)
	if err != nil {
		return nil, err
	}
	view, err := unmarshalSettingView(body)
	if err != nil {
		return nil, fmt.Errorf("mu: decode setting: %w", err)
	}
	return view, nil
}

// GetMyManga fetches the personal library page.
func (c *Client) GetMyManga(ctx context.Context) (*MyPageView, error) {
	body, err := c.request(ctx, http.MethodGet, "/my_page", nil)
	if err != nil {
		return nil, err
	}
	view, err := unmarshalMyPageView(body)
	if err != nil {
		return nil, fmt.Errorf("mu: decode my page: %w", err)
	}
	return view, nil
}

// GetMyHome fetches the home feed.
func (c *Client) GetMyHome(ctx context.Context) (*HomeViewV2, error) {
	params := url.Values{}
	params.Set("ui_lang", "en")

	body, err := c.request(ctx, http.MethodGet, "/home_v2", params)
	if err != nil {
		return nil, err
	}
	view, err := unmarshalHomeViewV2(body)
	if err != nil {
		return nil, fmt.Errorf("mu: decode home: %w", err)
	}
	return view, nil
}

// resolveImageURL pins a page URL to the image CDN host. Viewer
// responses sometimes hand back relative paths or stale hosts.
func resolveImageURL(raw string) (string, error) {
	if strings.HasPrefix(raw, "/") {
		return "https://" + ImageHost + raw, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("mu: parse image url: %w", err)
	}
	u.Scheme = "https"
	u.Host = ImageHost

	return u.String(), nil
}

// DownloadImage fetches one page image and streams it to w.
func (c *Client) DownloadImage(ctx context.Context, imageURL string, w io.Writer) error {
	resolved, err := resolveImageURL(imageURL)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resolved, nil)
	if err != nil {
		return fmt.Errorf("mu: build image request: %w", err)
	}
	req.Header.Set("User-Agent", c.constants.imageUA)
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("mu: download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mu: download image: unexpected status %d", resp.StatusCode)
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("mu: write image: %w", err)
	}

	return nil
}
