package km

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sodachi/mangetsu/internal/imaging"
	"github.com/sodachi/mangetsu/internal/util"
)

// scrambleRectbox is the tile grid dimension of scrambled web images.
const scrambleRectbox = 4

// ClientOptions configures a Client. Only Config is required.
type ClientOptions struct {
	Config Config

	// HTTPClient overrides the default transport, mainly for tests.
	HTTPClient *http.Client

	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL string

	Logger *zap.Logger

	// OnSessionRefresh is invoked whenever the server rotates the web
	// session cookies, so the caller can persist the updated config.
	OnSessionRefresh func(*ConfigWeb)
}

// Client is an authenticated API client for one stored session.
type Client struct {
	http      *http.Client
	config    Config
	constants *platformConstants
	baseURL   string
	log       *zap.Logger

	onRefresh func(*ConfigWeb)
}

// NewClient builds a client for the given session config.
func NewClient(opts ClientOptions) (*Client, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("km: nil config")
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
		baseURL = "https://" + APIHost
	}

	return &Client{
		http:      httpClient,
		config:    opts.Config,
		constants: constantsFor(opts.Config),
		baseURL:   baseURL,
		log:       logger,
		onRefresh: opts.OnSessionRefresh,
	}, nil
}

// Config returns the session config the client was built with.
func (c *Client) Config() Config { return c.config }

// applyBaseParams adds the parameters every request carries. They take
// part in the request signature, so they are added before hashing.
func (c *Client) applyBaseParams(params map[string]string) {
	params["platform"] = c.constants.platform
	params["version"] = c.constants.version
	if m, ok := c.config.(*ConfigMobile); ok {
		params["user_id"] = m.UserID
	}
}

// request performs a signed API call and decodes the JSON payload into
// out. GET requests carry params in the query string, everything else as
// a form body. A non-zero response_code in the payload is returned as an
// *APIError.
func (c *Client) request(ctx context.Context, method, path string, params map[string]string, out any) error {
	if params == nil {
		params = map[string]string{}
	}
	c.applyBaseParams(params)
	hash := requestHash(c.config, params)

	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}

	var req *http.Request
	var err error
	if method == http.MethodGet {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path+"?"+form.Encode(), nil)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, strings.NewReader(form.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		return fmt.Errorf("km: build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.constants.ua)
	req.Header.Set(c.constants.hashHeader, hash)
	if web, ok := c.config.(*ConfigWeb); ok {
		req.Header.Set("Cookie", web.cookieHeader())
	}

	c.log.Debug("api request", zap.String("method", method), zap.String("path", path))

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("km: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if web, ok := c.config.(*ConfigWeb); ok {
		if web.absorbCookies(resp.Cookies()) && c.onRefresh != nil {
			c.onRefresh(web)
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("km: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		// Error payloads still come with a JSON body most of the time.
		var status StatusResponse
		if json.Unmarshal(body, &status) == nil && status.ResponseCode != 0 {
			return status.Err()
		}
		return fmt.Errorf("km: %s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	var status StatusResponse
	if err := json.Unmarshal(body, &status); err != nil {
		return fmt.Errorf("km: decode response: %w", err)
	}
	if err := status.Err(); err != nil {
		return err
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("km: decode response: %w", err)
		}
	}

	return nil
}

// GetEpisodes fetches episode metadata for the given ids, chunking the
// requests so each call stays within the backend's list limit.
func (c *Client) GetEpisodes(ctx context.Context, episodeIDs []int32) ([]EpisodeNode, error) {
	var episodes []EpisodeNode

	for start := 0; start < len(episodeIDs); start += episodeChunkSize {
		end := min(start+episodeChunkSize, len(episodeIDs))

		ids := make([]string, 0, end-start)
		for _, id := range episodeIDs[start:end] {
			ids = append(ids, strconv.FormatInt(int64(id), 10))
		}

		var resp episodesListResponse
		err := c.request(ctx, http.MethodPost, "/episode/list", map[string]string{
			"episode_id_list": strings.Join(ids, ","),
		}, &resp)
		if err != nil {
			return nil, err
		}

		episodes = append(episodes, resp.Episodes...)
	}

	return episodes, nil
}

// GetTitles fetches title metadata for the given ids.
func (c *Client) GetTitles(ctx context.Context, titleIDs []int32) ([]TitleNode, error) {
	ids := make([]string, 0, len(titleIDs))
	for _, id := range titleIDs {
		ids = append(ids, strconv.FormatInt(int64(id), 10))
	}

	var resp titleListResponse
	err := c.request(ctx, http.MethodGet, "/title/list", map[string]string{
		"title_id_list": strings.Join(ids, ","),
	}, &resp)
	if err != nil {
		return nil, err
	}

	return resp.Titles, nil
}

// GetEpisodeViewer fetches the page list for an episode. Web sessions
// get scrambled page URLs plus the seed; mobile sessions get plain URLs.
func (c *Client) GetEpisodeViewer(ctx context.Context, episode *EpisodeNode) (*EpisodeViewer, error) {
	if c.config.DeviceType() == DeviceWeb {
		var resp WebEpisodeViewer
		err := c.request(ctx, http.MethodGet, "/web/episode/viewer", map[string]string{
			"episode_id": strconv.FormatInt(int64(episode.ID), 10),
		}, &resp)
		if err != nil {
			return nil, err
		}
		return &EpisodeViewer{Web: &resp}, nil
	}

	params := map[string]string{
		"episode_id":   strconv.FormatInt(int64(episode.ID), 10),
		"force_master": "1",
		"is_download":  "1",
	}
	if episode.MagazineID != nil {
		params["magazine_id"] = strconv.FormatInt(int64(*episode.MagazineID), 10)
	}

	var resp MobileEpisodeViewer
	if err := c.request(ctx, http.MethodGet, "/episode/viewer", params, &resp); err != nil {
		return nil, err
	}
	return &EpisodeViewer{Mobile: &resp}, nil
}

// FinishEpisodeViewer marks an episode as read, which grants the bonus
// point attached to it.
func (c *Client) FinishEpisodeViewer(ctx context.Context, episode *EpisodeNode) (*EpisodeViewerFinish, error) {
	var resp EpisodeViewerFinish
	err := c.request(ctx, http.MethodGet, "/episode/viewer/finish", map[string]string{
		"episode_id": strconv.FormatInt(int64(episode.ID), 10),
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetTitleTicket fetches the ticket ledger for one title.
func (c *Client) GetTitleTicket(ctx context.Context, titleID int32) (*TitleTicketListNode, error) {
	var resp titleTicketListResponse
	err := c.request(ctx, http.MethodGet, "/title/ticket/list", map[string]string{
		"title_id_list": strconv.FormatInt(int64(titleID), 10),
	}, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Tickets) == 0 {
		return nil, fmt.Errorf("km: no ticket info for title %d", titleID)
	}

	return &resp.Tickets[0], nil
}

// ClaimEpisode purchases one episode with points. The wallet is checked
// before the request and debited with the server-reported price after.
func (c *Client) ClaimEpisode(ctx context.Context, episode *EpisodeNode, wallet *UserPoint) (*EpisodePurchase, error) {
	price := uint64(max(episode.Point, 0))
	if !wallet.CanPurchase(price) {
		return nil, &NotEnoughPointsError{PointsNeeded: price, PointsHave: wallet.TotalPoint()}
	}

	var resp EpisodePurchase
	err := c.request(ctx, http.MethodPost, "/episode/paid", map[string]string{
		"episode_id":  strconv.FormatInt(int64(episode.ID), 10),
		"check_point": strconv.FormatInt(int64(episode.Point), 10),
	}, &resp)
	if err != nil {
		return nil, err
	}

	wallet.Subtract(uint64(max(resp.Paid, 0)))

	return &resp, nil
}

// ClaimEpisodes purchases several episodes in one call. The point-back
// bonus counts toward affordability, matching the storefront behavior.
func (c *Client) ClaimEpisodes(ctx context.Context, episodes []*EpisodeNode, wallet *UserPoint) (*BulkEpisodePurchase, error) {
	ids := make([]string, 0, len(episodes))
	var paidPoint, bonusPoint uint64
	for _, ep := range episodes {
		ids = append(ids, strconv.FormatInt(int64(ep.ID), 10))
		paidPoint += uint64(max(ep.Point, 0))
		bonusPoint += uint64(max(ep.BonusPoint, 0))
	}

	simulated := *wallet
	simulated.Add(bonusPoint)
	if !simulated.CanPurchase(paidPoint) {
		return nil, &NotEnoughPointsError{PointsNeeded: paidPoint, PointsHave: simulated.TotalPoint()}
	}

	var resp BulkEpisodePurchase
	err := c.request(ctx, http.MethodPost, "/episode/paid/bulk", map[string]string{
		"episode_id_list": strings.Join(ids, ","),
		"paid_point":      strconv.FormatUint(paidPoint, 10),
		"point_back":      strconv.FormatUint(bonusPoint, 10),
	}, &resp)
	if err != nil {
		return nil, err
	}

	wallet.Subtract(uint64(max(resp.Paid, 0)))
	wallet.Add(uint64(max(resp.PointBack, 0)))

	return &resp, nil
}

// ClaimEpisodeWithTicket rents one episode with a ticket. A premium
// claim passes a fixed version/type pair; a title claim passes the
// values from the title's own ticket info.
func (c *Client) ClaimEpisodeWithTicket(ctx context.Context, episodeID int32, ticket Ticket) error {
	params := map[string]string{
		"episode_id": strconv.FormatInt(int64(episodeID), 10),
	}
	if ticket.Title != nil {
		params["ticket_version"] = strconv.FormatInt(int64(ticket.Title.Version), 10)
		params["ticket_type"] = strconv.FormatInt(int64(ticket.Title.Type), 10)
	} else {
		params["ticket_version"] = "1"
		params["ticket_type"] = "99"
	}

	return c.request(ctx, http.MethodPost, "/episode/rental/ticket", params, nil)
}

// GetUserPoint fetches the account's point purse and ticket count.
func (c *Client) GetUserPoint(ctx context.Context) (*UserPointResponse, error) {
	var resp UserPointResponse
	if err := c.request(ctx, http.MethodGet, "/account/point", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Search looks up titles by keyword. A limit of 0 fetches everything.
func (c *Client) Search(ctx context.Context, keyword string, limit uint32) ([]TitleNode, error) {
	if limit == 0 {
		limit = 99999
	}

	var resp searchResponse
	err := c.request(ctx, http.MethodGet, "/search/title", map[string]string{
		"keyword": keyword,
		"limit":   strconv.FormatUint(uint64(limit), 10),
	}, &resp)
	if err != nil {
		return nil, err
	}

	return resp.Titles, nil
}

// GetWeekly fetches the weekly release schedule.
func (c *Client) GetWeekly(ctx context.Context) (*WeeklyListResponse, error) {
	var resp WeeklyListResponse
	if err := c.request(ctx, http.MethodGet, "/title/weekly", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetAccount fetches the current account's profile.
func (c *Client) GetAccount(ctx context.Context) (*UserAccount, error) {
	var resp accountResponse
	if err := c.request(ctx, http.MethodGet, "/account", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Account, nil
}

// GetUser fetches another user-level view of an account; it carries the
// per-user secret a mobile session signs with.
func (c *Client) GetUser(ctx context.Context, userID uint32) (*UserInfoResponse, error) {
	var resp UserInfoResponse
	err := c.request(ctx, http.MethodGet, "/user", map[string]string{
		"user_id": strconv.FormatUint(uint64(userID), 10),
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetPurchased fetches the account's purchased titles.
func (c *Client) GetPurchased(ctx context.Context) ([]TitlePurchaseNode, error) {
	var resp titlePurchaseResponse
	if err := c.request(ctx, http.MethodGet, "/web/title/purchased", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Titles, nil
}

// GetFavorites fetches the account's favorites with their titles.
func (c *Client) GetFavorites(ctx context.Context) (*TitleFavoriteResponse, error) {
	var resp TitleFavoriteResponse
	err := c.request(ctx, http.MethodGet, "/favorite/list", map[string]string{
		"limit":            "0",
		"offset":           "0",
		"needs_title_list": "1",
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetMagazines fetches the magazine imprint list.
func (c *Client) GetMagazines(ctx context.Context) (*MagazineCategoryResponse, error) {
	var resp MagazineCategoryResponse
	err := c.request(ctx, http.MethodGet, "/magazine/category/list", map[string]string{
		"limit":  "99999",
		"offset": "0",
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetGenres fetches the searchable genre list.
func (c *Client) GetGenres(ctx context.Context) (*GenreSearchResponse, error) {
	var resp GenreSearchResponse
	if err := c.request(ctx, http.MethodGet, "/genre/search/list", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetAllRankings fetches an ordered ranking. See RankingTabs for ids.
func (c *Client) GetAllRankings(ctx context.Context, rankingID uint32, limit, offset uint32) (*RankingListResponse, error) {
	if limit == 0 {
		limit = 101
	}

	var resp RankingListResponse
	err := c.request(ctx, http.MethodGet, "/ranking/all", map[string]string{
		"ranking_id": strconv.FormatUint(uint64(rankingID), 10),
		"limit":      strconv.FormatUint(uint64(limit), 10),
		"offset":     strconv.FormatUint(uint64(offset), 10),
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// DownloadImage fetches one page image. For web sessions the image is
// descrambled before writing, so the seed from the viewer response is
// required; mobile images are streamed through unchanged.
func (c *Client) DownloadImage(ctx context.Context, imageURL string, scrambleSeed *uint32, w io.Writer) error {
	if c.config.DeviceType() == DeviceWeb && scrambleSeed == nil {
		return fmt.Errorf("km: scramble seed required for web image download")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return fmt.Errorf("km: build image request: %w", err)
	}
	req.Header.Set("User-Agent", c.constants.imageUA)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("km: download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("km: download image: unexpected status %d", resp.StatusCode)
	}

	if c.config.DeviceType() != DeviceWeb {
		if _, err := io.Copy(w, resp.Body); err != nil {
			return fmt.Errorf("km: write image: %w", err)
		}
		return nil
	}

	scrambled, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("km: read image: %w", err)
	}

	plain, err := imaging.Descramble(scrambled, scrambleRectbox, *scrambleSeed)
	if err != nil {
		return fmt.Errorf("km: descramble image: %w", err)
	}

	if _, err := w.Write(plain); err != nil {
		return fmt.Errorf("km: write image: %w", err)
	}

	return nil
}

// LoginOptions configures Login.
type LoginOptions struct {
	Email    string
	Password string

	// MobilePlatform switches the result to a mobile session config.
	// Zero keeps the web session.
	MobilePlatform MobilePlatform

	HTTPClient *http.Client
	BaseURL    string
	Logger     *zap.Logger
}

// LoginResult pairs the authenticated config with the account profile.
type LoginResult struct {
	Config  Config
	Account *UserAccount
}

// Login authenticates with email and password. It always performs the
// web login flow first; when a mobile platform is requested the per-user
// secret is then fetched to derive a mobile session from the web one.
func Login(ctx context.Context, opts LoginOptions) (*LoginResult, error) {
	cfg := DefaultWebConfig()

	client, err := NewClient(ClientOptions{
		Config:     cfg,
		HTTPClient: opts.HTTPClient,
		BaseURL:    opts.BaseURL,
		Logger:     opts.Logger,
	})
	if err != nil {
		return nil, err
	}

	err = client.request(ctx, http.MethodPost, "/web/user/login", map[string]string{
		"email":    opts.Email,
		"password": opts.Password,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("km: login: %w", err)
	}

	// The login response rotated the cookies in cfg, so the client is
	// now fully authenticated.
	account, err := client.GetAccount(ctx)
	if err != nil {
		return nil, fmt.Errorf("km: login: %w", err)
	}

	cfg.Username = account.Name
	cfg.Email = account.Email
	cfg.AccountID = account.ID
	cfg.DeviceID = account.UserID

	if opts.MobilePlatform == 0 {
		return &LoginResult{Config: cfg, Account: account}, nil
	}

	info, err := client.GetUser(ctx, account.UserID)
	if err != nil {
		return nil, fmt.Errorf("km: login: %w", err)
	}

	mobile := &ConfigMobile{
		Username:   account.Name,
		Email:      account.Email,
		AccountID:  account.ID,
		DeviceID:   account.UserID,
		UserID:     strconv.FormatUint(uint64(info.ID), 10),
		UserSecret: info.HashKey,
		Platform:   opts.MobilePlatform,
	}

	return &LoginResult{Config: mobile, Account: account}, nil
}

// LoginWithCookies builds a web session from a Netscape cookies.txt
// export instead of credentials, then verifies it against the account
// endpoint. Email and Password in opts are ignored.
func LoginWithCookies(ctx context.Context, cookiesData string, opts LoginOptions) (*LoginResult, error) {
	cfg, err := ParseNetscapeCookies(cookiesData)
	if err != nil {
		return nil, err
	}

	client, err := NewClient(ClientOptions{
		Config:     cfg,
		HTTPClient: opts.HTTPClient,
		BaseURL:    opts.BaseURL,
		Logger:     opts.Logger,
	})
	if err != nil {
		return nil, err
	}

	account, err := client.GetAccount(ctx)
	if err != nil {
		return nil, fmt.Errorf("km: cookie login: %w", err)
	}

	cfg.Username = account.Name
	cfg.Email = account.Email
	cfg.AccountID = account.ID
	cfg.DeviceID = account.UserID

	return &LoginResult{Config: cfg, Account: account}, nil
}
