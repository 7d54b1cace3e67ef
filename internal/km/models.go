package km

import "strings"

// IntBool is a boolean the API represents as an integer (-1 unknown).
type IntBool int32

const (
	IntBoolFalse   IntBool = 0
	IntBoolTrue    IntBool = 1
	IntBoolUnknown IntBool = -1
)

func (b IntBool) Bool() bool { return b == IntBoolTrue }

// EpisodeBadge is the purchase status of an episode.
type EpisodeBadge int32

const (
	// BadgePurchaseable means the episode needs points or a ticket.
	BadgePurchaseable EpisodeBadge = 1
	BadgeFree         EpisodeBadge = 2
	BadgePurchased    EpisodeBadge = 3
	BadgeRental       EpisodeBadge = 4
)

// FavoriteStatus of a title for the current account.
type FavoriteStatus int32

const (
	FavoriteNone      FavoriteStatus = 0
	FavoriteFavorited FavoriteStatus = 1
	FavoritePurchased FavoriteStatus = 2
)

// DevicePlatform of a registered device.
type DevicePlatform int32

const (
	DeviceApple      DevicePlatform = 1
	DeviceAndroidApp DevicePlatform = 2
	DeviceWebApp     DevicePlatform = 3
)

// GenderType of the account holder.
type GenderType int32

const (
	GenderMale   GenderType = 1
	GenderFemale GenderType = 2
	GenderOther  GenderType = 3
)

// StatusResponse is embedded in every API payload.
type StatusResponse struct {
	Status       string `json:"status"`
	ResponseCode int32  `json:"response_code"`
	ErrorMessage string `json:"error_message"`
}

// Err returns a typed API error when the backend reported a failure.
func (s *StatusResponse) Err() error {
	if s.ResponseCode != 0 {
		return &APIError{Code: s.ResponseCode, Message: s.ErrorMessage}
	}
	return nil
}

// UserPoint is the account's point purse. It is fetched once per session
// and mutated locally after purchases to save round trips; the server
// totals always win when a response carries them.
type UserPoint struct {
	PaidPoint     uint64  `json:"paid_point"`
	FreePoint     uint64  `json:"free_point"`
	PointSale     *string `json:"point_sale_text"`
	PointSaleends *string `json:"point_sale_finish_datetime"`
}

// TotalPoint is the spendable sum across both balances.
func (p *UserPoint) TotalPoint() uint64 {
	return p.PaidPoint + p.FreePoint
}

// CanPurchase reports whether the purse covers a price.
func (p *UserPoint) CanPurchase(price uint64) bool {
	return p.TotalPoint() >= price
}

// Subtract deducts a price, draining free points before paid ones.
//
/* When the price exceeds the total balance this is a silent no-op. Every
   caller checks CanPurchase first, so the branch is believed dead, but the
   behavior is kept as-is rather than turned into an error. */
func (p *UserPoint) Subtract(price uint64) {
	if !p.CanPurchase(price) {
		return
	}

	fromFree := min(p.FreePoint, price)
	p.FreePoint -= fromFree

	fromPaid := min(p.PaidPoint, price-fromFree)
	p.PaidPoint -= fromPaid
}

// Add credits a bonus to the free balance.
func (p *UserPoint) Add(bonus uint64) {
	p.FreePoint += bonus
}

// UserTicket is the account-wide premium ticket count.
type UserTicket struct {
	TotalNum uint64 `json:"total_num"`
}

// UserPointResponse pairs the purse with the premium ticket count.
type UserPointResponse struct {
	Point  UserPoint  `json:"point"`
	Ticket UserTicket `json:"ticket"`
}

// UserAccountDevice is one registered device on an account.
type UserAccountDevice struct {
	ID       uint32         `json:"user_id"`
	Name     string         `json:"device_name"`
	Platform DevicePlatform `json:"platform"`
}

// UserAccount is the account profile.
type UserAccount struct {
	ID         uint32              `json:"account_id"`
	UserID     uint32              `json:"user_id"`
	Name       string              `json:"nickname"`
	Email      string              `json:"email"`
	Gender     GenderType          `json:"gender"`
	BirthYear  int32               `json:"birthyear"`
	Devices    []UserAccountDevice `json:"device_list"`
	Registered IntBool             `json:"is_registerd"`
	Days       int64               `json:"days_since_created"`
}

type accountResponse struct {
	Account UserAccount `json:"account"`
}

// UserInfoResponse carries the per-user secret needed to derive a mobile
// session from a web one.
type UserInfoResponse struct {
	ID      uint32     `json:"user_id"`
	Email   string     `json:"email"`
	Gender  GenderType `json:"gender"`
	HashKey string     `json:"hash_key"`
}

// EpisodeNode is one purchasable episode of a title.
type EpisodeNode struct {
	ID           int32        `json:"episode_id"`
	Title        string       `json:"episode_name"`
	Index        int32        `json:"index"`
	Badge        EpisodeBadge `json:"badge"`
	Point        int32        `json:"point"`
	BonusPoint   int32        `json:"bonus_point"`
	UseStatus    int32        `json:"use_status"`
	TicketRental IntBool      `json:"ticket_rental_enabled"`
	TitleID      int32        `json:"title_id"`
	StartTime    string       `json:"start_time"`
	RentalRest   *string      `json:"rental_rest_time"`
	MagazineID   *int32       `json:"magazine_id"`
}

// IsTicketable reports whether the episode accepts ticket rental.
func (e *EpisodeNode) IsTicketable() bool {
	return e.TicketRental == IntBoolTrue
}

// IsAvailable reports whether the episode can be read without paying.
func (e *EpisodeNode) IsAvailable() bool {
	return e.Badge != BadgePurchaseable
}

// SetAvailable flips the badge after a successful purchase so a later
// pass does not try to pay again.
func (e *EpisodeNode) SetAvailable() {
	e.Badge = BadgePurchased
}

type episodesListResponse struct {
	Episodes []EpisodeNode `json:"episode_list"`
}

// TitleNode is a single title's catalog entry.
type TitleNode struct {
	ID                  int32          `json:"title_id"`
	Title               string         `json:"title_name"`
	ThumbnailURL        string         `json:"thumbnail_image_url"`
	SquareThumbnailURL  string         `json:"thumbnail_rect_image_url"`
	BannerURL           string         `json:"feature_image_url"`
	CampaignText        string         `json:"campaign_text"`
	Notice              string         `json:"notice_text"`
	FirstEpisodeID      int32          `json:"first_episode_id"`
	NextUpdate          *string        `json:"next_updated_text"`
	Author              string         `json:"author_text"`
	AuthorList          []string       `json:"author_list"`
	Description         string         `json:"introduction_text"`
	Summary             string         `json:"short_introduction_text"`
	UpdateCycle         string         `json:"new_episode_update_cycle_text"`
	FreeUpdateCycle     string         `json:"free_episode_update_cycle_text"`
	EpisodeOrder        int32          `json:"episode_order"`
	EpisodeIDs          []int32        `json:"episode_id_list"`
	LatestPaidEpisodes  []int32        `json:"latest_paid_episode_id"`
	LatestFreeEpisodeID int32          `json:"latest_free_episode_id"`
	GenreIDs            []int32        `json:"genre_id_list"`
	Favorite            FavoriteStatus `json:"favorite_status"`
}

type titleListResponse struct {
	Titles []TitleNode `json:"title_list"`
}

type searchResponse struct {
	Titles   []TitleNode `json:"title_list"`
	TitleIDs []int32     `json:"title_id_list"`
}

// PremiumTicketInfo is the account-wide ticket usable on any eligible title.
type PremiumTicketInfo struct {
	Owned    uint64 `json:"own_ticket_num"`
	Type     int32  `json:"ticket_type"`
	Duration int32  `json:"rental_second"`
}

// TitleTicketInfo is the per-title recovering ticket.
type TitleTicketInfo struct {
	Owned           uint64 `json:"own_ticket_num"`
	Duration        int32  `json:"rental_second"`
	Type            int32  `json:"ticket_type"`
	Version         int32  `json:"ticket_version"`
	MaxOwned        uint64 `json:"max_ticket_num"`
	RecoverTime     int32  `json:"recover_second"`
	EndTime         *int32 `json:"finish_time"`
	NextRecoverTime int32  `json:"next_ticket_recover_second"`
}

// TicketInfo aggregates the premium and title tickets for one title.
type TicketInfo struct {
	Premium  *PremiumTicketInfo `json:"premium_ticket_info"`
	Title    *TitleTicketInfo   `json:"title_ticket_info"`
	TitleIDs []int32            `json:"target_episode_id_list"`
}

// TitleTicketListNode is the ticket ledger for one title. Counts only
// ever go down within a session; a decrement is always preceded by an
// availability check.
type TitleTicketListNode struct {
	ID   int32      `json:"title_id"`
	Info TicketInfo `json:"ticket_info"`
}

// TitleAvailable reports whether a title ticket can be spent.
func (t *TitleTicketListNode) TitleAvailable() bool {
	return t.Info.Title != nil && t.Info.Title.Owned > 0
}

// PremiumAvailable reports whether a premium ticket can be spent.
func (t *TitleTicketListNode) PremiumAvailable() bool {
	return t.Info.Premium != nil && t.Info.Premium.Owned > 0
}

// SubtractTitle consumes one title ticket.
func (t *TitleTicketListNode) SubtractTitle() {
	if t.Info.Title != nil && t.Info.Title.Owned > 0 {
		t.Info.Title.Owned--
	}
}

// SubtractPremium consumes one premium ticket.
func (t *TitleTicketListNode) SubtractPremium() {
	if t.Info.Premium != nil && t.Info.Premium.Owned > 0 {
		t.Info.Premium.Owned--
	}
}

// HasTicket reports whether any ticket kind remains.
func (t *TitleTicketListNode) HasTicket() bool {
	return t.TitleAvailable() || t.PremiumAvailable()
}

type titleTicketListResponse struct {
	Tickets []TitleTicketListNode `json:"title_ticket_list"`
}

// Ticket selects which ticket kind a claim spends.
type Ticket struct {
	// Title is nil for a premium claim.
	Title *TitleTicketInfo
}

// ImagePageNode is one page of an episode viewer response.
type ImagePageNode struct {
	Index int32  `json:"index"`
	URL   string `json:"image_url"`
}

// FileName extracts the file name from the page URL, dropping any query.
func (p *ImagePageNode) FileName() string {
	name := p.URL
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	if idx := strings.Index(name, "?"); idx >= 0 {
		name = name[:idx]
	}
	return name
}

// Extension returns the file extension without its dot, or "".
func (p *ImagePageNode) Extension() string {
	name := p.FileName()
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		return name[idx+1:]
	}
	return ""
}

// FileStem returns the file name without its extension.
func (p *ImagePageNode) FileStem() string {
	name := p.FileName()
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		return name[:idx]
	}
	return name
}

// MobileEpisodeViewer is the viewer payload for mobile sessions; pages
// come back unscrambled.
type MobileEpisodeViewer struct {
	ID       int32           `json:"episode_id"`
	Pages    []ImagePageNode `json:"page_list"`
	Episodes []EpisodeNode   `json:"episode_list"`
	NextID   *int32          `json:"next_episode_id"`
	PrevID   *int32          `json:"prev_episode_id"`
}

// WebEpisodeViewer is the viewer payload for web sessions; pages are
// scrambled with ScrambleSeed.
type WebEpisodeViewer struct {
	ID           int32    `json:"episode_id"`
	PageURLs     []string `json:"page_list"`
	BonusPoint   int32    `json:"bonus_point"`
	TitleID      int32    `json:"title_id"`
	ScrambleSeed uint32   `json:"scramble_seed"`
}

// EpisodeViewer is whichever viewer variant the session type produced.
type EpisodeViewer struct {
	Web    *WebEpisodeViewer
	Mobile *MobileEpisodeViewer
}

// EpisodePurchase is the server's accounting after a single purchase.
// Its numbers are authoritative and overwrite any client-side estimate.
type EpisodePurchase struct {
	Left int32 `json:"account_point"`
	Paid int32 `json:"paid_point"`
}

// BulkEpisodePurchase is the server's accounting after a bulk purchase.
type BulkEpisodePurchase struct {
	Left      int32 `json:"account_point"`
	Paid      int32 `json:"paid_point"`
	PointBack int32 `json:"earned_point_back"`
}

// TitleShare is the social sharing blob attached to a viewer-finish.
type TitleShare struct {
	Title    string `json:"title_name"`
	PostText string `json:"twitter_post_text"`
	URL      string `json:"url"`
}

// EpisodeViewerFinish is returned after marking an episode read; it
// carries the bonus point granted for finishing.
type EpisodeViewerFinish struct {
	ID         uint32         `json:"episode_id"`
	TitleID    int32          `json:"title_id"`
	Favorite   FavoriteStatus `json:"favorite_status"`
	BonusPoint int32          `json:"bonus_point"`
	ViewCount  uint64         `json:"view_finish_episode_count"`
	Share      TitleShare     `json:"title_share_ret"`
}

// TitlePurchaseNode is one previously purchased title.
type TitlePurchaseNode struct {
	ID               int32  `json:"title_id"`
	Title            string `json:"title_name"`
	ThumbnailURL     string `json:"thumbnail_image_url"`
	FirstEpisodeID   int32  `json:"first_episode_id"`
	RecentPurchaseID int32  `json:"recently_purchased_episode_id"`
}

type titlePurchaseResponse struct {
	Titles []TitlePurchaseNode `json:"title_list"`
}

// UserFavoriteList is one favorited title with its unread markers.
type UserFavoriteList struct {
	FreeEpisodeUpdated  string       `json:"free_episode_updated"`
	PaidEpisodeUpdated  string       `json:"paid_episode_updated"`
	UnreadFree          IntBool      `json:"is_unread_free_episode"`
	PurchaseStatus      EpisodeBadge `json:"purchase_status"`
	TicketRecoverTime   string       `json:"ticket_recover_time"`
	TitleID             int32        `json:"title_id"`
}

// TitleFavoriteResponse lists the account's favorites plus their titles.
type TitleFavoriteResponse struct {
	Favorites []UserFavoriteList `json:"favorite_title_list"`
	Titles    []TitleNode        `json:"title_list"`
}

// WeeklyListContent is one weekday column of the weekly schedule.
type WeeklyListContent struct {
	Weekday       int32   `json:"weekday_index"`
	Titles        []int32 `json:"title_id_list"`
	FeaturedID    int32   `json:"feature_title_id"`
	BonusTitles   []int32 `json:"bonus_point_title_id"`
	PopularTitles []int32 `json:"popular_title_id_list"`
	NewTitles     []int32 `json:"new_title_id_list"`
}

// WeeklyListResponse is the weekly release schedule.
type WeeklyListResponse struct {
	Contents []WeeklyListContent `json:"weekly_list"`
	Titles   []TitleNode         `json:"title_list"`
}

// MagazineCategoryInfo is one magazine imprint.
type MagazineCategoryInfo struct {
	ID           uint32  `json:"magazine_category_id"`
	Name         string  `json:"magazine_category_name_text"`
	Purchased    IntBool `json:"is_purchase"`
	Searchable   IntBool `json:"is_search"`
	Subscribable IntBool `json:"is_subscription"`
	ImageURL     *string `json:"subscription_image_url"`
}

// MagazineCategoryResponse lists magazine imprints.
type MagazineCategoryResponse struct {
	Categories []MagazineCategoryInfo `json:"magazine_category_list"`
}

// GenreNode is one searchable genre.
type GenreNode struct {
	ID       int32  `json:"genre_id"`
	Name     string `json:"genre_name"`
	ImageURL string `json:"image_url"`
}

// GenreSearchResponse lists searchable genres.
type GenreSearchResponse struct {
	Genres []GenreNode `json:"genre_list"`
}

// SimpleID wraps a bare id in ranking payloads.
type SimpleID struct {
	ID int32 `json:"id"`
}

// RankingListResponse is an ordered list of title ids.
type RankingListResponse struct {
	Titles []SimpleID `json:"titles"`
}
