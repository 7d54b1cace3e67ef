package mu

import "strings"

// The backend speaks bare protobuf wire format with no service schema
// distributed, so the messages here are decoded field by field against
// the observed tag layout. Unknown fields are skipped, which keeps the
// decoder tolerant of additive server-side changes.

// UserPoint is the account's coin purse, split by how the coins were
// obtained. Fetched fresh per session and mutated locally after
// purchases; server-reported balances always overwrite it.
type UserPoint struct {
	Free  uint64
	Event uint64
	Paid  uint64
}

// Total is the spendable sum across all three balances.
func (p *UserPoint) Total() uint64 {
	return p.Free + p.Event + p.Paid
}

func unmarshalUserPoint(b []byte) (*UserPoint, error) {
	p := &UserPoint{}
	s := newFieldScanner(b)
	for s.scan() {
		switch s.num {
		case 1:
			p.Free = s.varint()
		case 2:
			p.Event = s.varint()
		case 3:
			p.Paid = s.varint()
		default:
			s.skip()
		}
	}
	return p, s.err
}

// Subscription is one subscription offer in the point shop.
type Subscription struct {
	MonthlyID       string
	YearlyID        string
	Status          SubscriptionKind
	End             int64
	EventPoint      uint64
	Name            string
	SeasonallyID    *string
	HalfYearlyID    *string
	Banner          *string
	SeriesURLScheme *string
}

func unmarshalSubscription(b []byte) (*Subscription, error) {
	m := &Subscription{}
	s := newFieldScanner(b)
	for s.scan() {
		switch s.num {
		case 1:
			m.MonthlyID = s.text()
		case 2:
			m.YearlyID = s.text()
		case 3:
			m.Status = SubscriptionKind(s.varint())
		case 4:
			m.End = int64(s.varint())
		case 5:
			m.EventPoint = s.varint()
		case 6:
			m.Name = s.text()
		case 7:
			m.SeasonallyID = s.textPtr()
		case 8:
			m.HalfYearlyID = s.textPtr()
		case 9:
			m.Banner = s.textPtr()
		case 10:
			m.SeriesURLScheme = s.textPtr()
		default:
			s.skip()
		}
	}
	return m, s.err
}

// Billing is one coin bundle offered in the point shop.
type Billing struct {
	ID         string
	EventPoint uint64
	PaidPoint  uint64
	Details    string
}

// TotalPoint is the combined coin yield of the bundle.
func (b *Billing) TotalPoint() uint64 {
	return b.EventPoint + b.PaidPoint
}

func unmarshalBilling(b []byte) (*Billing, error) {
	m := &Billing{}
	s := newFieldScanner(b)
	for s.scan() {
		switch s.num {
		case 1:
			m.ID = s.text()
		case 2:
			m.EventPoint = s.varint()
		case 3:
			m.PaidPoint = s.varint()
		case 4:
			m.Details = s.text()
		default:
			s.skip()
		}
	}
	return m, s.err
}

// PointShopView is the point shop page.
type PointShopView struct {
	UserPoint     *UserPoint
	PointLimit    *UserPoint
	NextRecovery  uint64
	Subscriptions []Subscription
	Billings      []Billing
	DefaultSelect uint64
}

func unmarshalPointShopView(b []byte) (*PointShopView, error) {
	m := &PointShopView{}
	s := newFieldScanner(b)
	for s.scan() {
		switch s.num {
		case 1:
			p, err := unmarshalUserPoint(s.bytes())
			if err != nil {
				return nil, err
			}
			m.UserPoint = p
		case 2:
			p, err := unmarshalUserPoint(s.bytes())
			if err != nil {
				return nil, err
			}
			m.PointLimit = p
		case 3:
			m.NextRecovery = s.varint()
		case 4:
			sub, err := unmarshalSubscription(s.bytes())
			if err != nil {
				return nil, err
			}
			m.Subscriptions = append(m.Subscriptions, *sub)
		case 5:
			bill, err := unmarshalBilling(s.bytes())
			if err != nil {
				return nil, err
			}
			m.Billings = append(m.Billings, *bill)
		case 6:
			m.DefaultSelect = s.varint()
		default:
			s.skip()
		}
	}
	return m, s.err
}

// PointHistory is one entry of the coin acquisition log.
type PointHistory struct {
	DisplayedText string
	FreePoint     uint64
	EventPoint    uint64
	PaidPoint     uint64
	CreatedAt     uint64
}

func unmarshalPointHistory(b []byte) (*PointHistory, error) {
	m := &PointHistory{}
	s := newFieldScanner(b)
	for s.scan() {
		switch s.num {
		case 1:
			m.DisplayedText = s.text()
		case 2:
			m.FreePoint = s.varint()
		case 3:
			m.EventPoint = s.varint()
		case 4:
			m.PaidPoint = s.varint()
		case 5:
			m.CreatedAt = s.varint()
		default:
			s.skip()
		}
	}
	return m, s.err
}

// PointHistoryView is the coin acquisition history page.
type PointHistoryView struct {
	UserPoint *UserPoint
	Logs      []PointHistory
}

func unmarshalPointHistoryView(b []byte) (*PointHistoryView, error) {
	m := &PointHistoryView{}
	s := newFieldScanner(b)
	for s.scan() {
		switch s.num {
		case 1:
			p, err := unmarshalUserPoint(s.bytes())
			if err != nil {
				return nil, err
			}
			m.UserPoint = p
		case 2:
			log, err := unmarshalPointHistory(s.bytes())
			if err != nil {
				return nil, err
			}
			m.Logs = append(m.Logs, *log)
		default:
			s.skip()
		}
	}
	return m, s.err
}

// ChapterV2 is one chapter of a title.
type ChapterV2 struct {
	ID              uint64
	Title           string
	Subtitle        *string
	ThumbnailURL    string
	Consumption     ConsumptionType
	Price           uint64
	EndOfRental     *uint64
	Comments        *uint64
	PublishedAt     *string
	Badge           Badge
	FirstPageURL    string
	FinalChapter    bool
	PageCount       uint64
	ReadCount       uint64
}

// IsFree reports whether the chapter costs nothing.
func (c *ChapterV2) IsFree() bool {
	return c.Price == 0
}

// FormattedTitle joins the title and subtitle for display.
func (c *ChapterV2) FormattedTitle() string {
	if c.Subtitle != nil && *c.Subtitle != "" {
		return c.Title + " — " + *c.Subtitle
	}
	return c.Title
}

func unmarshalChapterV2(b []byte) (*ChapterV2, error) {
	m := &ChapterV2{}
	s := newFieldScanner(b)
	for s.scan() {
		switch s.num {
		case 1:
			m.ID = s.varint()
		case 2:
			m.Title = s.text()
		case 3:
			m.Subtitle = s.textPtr()
		case 4:
			m.ThumbnailURL = s.text()
		case 5:
			m.Consumption = ConsumptionType(s.varint())
		case 6:
			m.Price = s.varint()
		case 7:
			m.EndOfRental = s.uint64Ptr()
		case 8:
			m.Comments = s.uint64Ptr()
		case 9:
			m.PublishedAt = s.textPtr()
		case 10:
			m.Badge = Badge(s.varint())
		case 11:
			m.FirstPageURL = s.text()
		case 12:
			m.FinalChapter = s.varint() != 0
		case 13:
			m.PageCount = s.varint()
		case 14:
			m.ReadCount = s.varint()
		default:
			s.skip()
		}
	}
	return m, s.err
}

// ChapterPage is one page image of a chapter.
type ChapterPage struct {
	URL       string
	VideoURL  *string
	IntentURL *string
	ExtraID   *uint64
}

// FileName extracts the file name from the page URL, dropping any query.
func (p *ChapterPage) FileName() string {
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
func (p *ChapterPage) Extension() string {
	name := p.FileName()
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		return name[idx+1:]
	}
	return ""
}

// FileStem returns the file name without its extension.
func (p *ChapterPage) FileStem() string {
	name := p.FileName()
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		return name[:idx]
	}
	return name
}

func unmarshalChapterPage(b []byte) (*ChapterPage, error) {
	m := &ChapterPage{}
	s := newFieldScanner(b)
	for s.scan() {
		switch s.num {
		case 1:
			m.URL = s.text()
		case 2:
			m.VideoURL = s.textPtr()
		case 3:
			m.IntentURL = s.textPtr()
		case 4:
			m.ExtraID = s.uint64Ptr()
		default:
			s.skip()
		}
	}
	return m, s.err
}

// SNSInfo is the share blob attached to a page block.
type SNSInfo struct {
	Body string
	URL  string
}

func unmarshalSNSInfo(b []byte) (*SNSInfo, error) {
	m := &SNSInfo{}
	s := newFieldScanner(b)
	for s.scan() {
		switch s.num {
		case 1:
			m.Body = s.text()
		case 2:
			m.URL = s.text()
		default:
			s.skip()
		}
	}
	return m, s.err
}

// PageBlock groups the pages of one chapter inside a viewer response.
type PageBlock struct {
	ID        uint64
	Title     string
	Images    []ChapterPage
	LastPage  bool
	StartPage uint64
	SNS       *SNSInfo
	PageStart uint64
	PageEnd   uint64
}

func unmarshalPageBlock(b []byte) (*PageBlock, error) {
	m := &PageBlock{}
	s := newFieldScanner(b)
	for s.scan() {
		switch s.num {
		case 1:
			m.ID = s.varint()
		case 2:
			m.Title = s.text()
		case 3:
			page, err := unmarshalChapterPage(s.bytes())
			if err != nil {
				return nil, err
			}
			m.Images = append(m.Images, *page)
		case 4:
			m.LastPage = s.varint() != 0
		case 5:
			m.StartPage = s.varint()
		case 6:
			sns, err := unmarshalSNSInfo(s.bytes())
			if err != nil {
				return nil, err
			}
			m.SNS = sns
		case 7:
			m.PageStart = s.varint()
		case 8:
			m.PageEnd = s.varint()
		default:
			s.skip()
		}
	}
	return m, s.err
}

// ChapterViewerV2 is the chapter reader payload.
type ChapterViewerV2 struct {
	Status           Status
	UserPoint        *UserPoint
	Blocks           []PageBlock
	NextChapter      *ChapterV2
	IsCommentEnabled bool
	EnableGuide      bool
}

func unmarshalChapterViewerV2(b []byte) (*ChapterViewerV2, error) {
	m := &ChapterViewerV2{}
	s := newFieldScanner(b)
	for s.scan() {
		switch s.num {
		case 1:
			m.Status = Status(s.varint())
		case 2:
			p, err := unmarshalUserPoint(s.bytes())
			if err != nil {
				return nil, err
			}
			m.UserPoint = p
		case 3:
			block, err := unmarshalPageBlock(s.bytes())
			if err != nil {
				return nil, err
			}
			m.Blocks = append(m.Blocks, *block)
		case 4:
			ch, err := unmarshalChapterV2(s.bytes())
			if err != nil {
				return nil, err
			}
			m.NextChapter = ch
		case 5:
			m.IsCommentEnabled = s.varint() != 0
		case 6:
			m.EnableGuide = s.varint() != 0
		default:
			s.skip()
		}
	}
	return m, s.err
}

// Tag is one genre/tag entry.
type Tag struct {
	ID       uint64
	Name     string
	ImageURL *string
}

func unmarshalTag(b []byte) (*Tag, error) {
	m := &Tag{}
	s := newFieldScanner(b)
	for s.scan() {
		switch s.num {
		case 1:
			m.ID = s.varint()
		case 2:
			m.Name = s.text()
		case 3:
			m.ImageURL = s.textPtr()
		default:
			s.skip()
		}
	}
	return m, s.err
}

// ViewButton is the continue-reading button of a title detail page.
type ViewButton struct {
	Chapter *ChapterV2
	Text    string
}

func unmarshalViewButton(b []byte) (*ViewButton, error) {
	m := &ViewButton{}
	s := newFieldScanner(b)
	for s.scan() {
		switch s.num {
		case 1:
			ch, err := unmarshalChapterV2(s.bytes())
			if err != nil {
				return nil, err
			}
			m.Chapter = ch
		case 2:
			m.Text = s.text()
		default:
			s.skip()
		}
	}
	return m, s.err
}

// ChaptersRange marks a run of chapters hidden from the listing.
type ChaptersRange struct {
	Start uint64
	End   uint64
}

func unmarshalChaptersRange(b []byte) (*ChaptersRange, error) {
	m := &ChaptersRange{}
	s := newFieldScanner(b)
	for s.scan() {
		switch s.num {
		case 1:
			m.Start = s.varint()
		case 2:
			m.End = s.varint()
		default:
			s.skip()
		}
	}
	return m, s.err
}

// MangaResultNode is one title entry in search/listing responses.
type MangaResultNode struct {
	ID                uint64
	Title             string
	ImageURL          string
	VideoURL          *string
	ShortDescription  string
	Campaign          *string
	Favorites         uint64
	Badge             BadgeManga
	LastUpdate        *string
	LabelBadge        LabelBadgeManga
	SubscriptionBadge SubscriptionBadge
}

func unmarshalMangaResultNode(b []byte) (*MangaResultNode, error) {
	m := &MangaResultNode{}
	s := newFieldScanner(b)
	for s.scan() {
		switch s.num {
		case 1:
			m.ID = s.varint()
		case 2:
			m.Title = s.text()
		case 3:
			m.ImageURL = s.text()
		case 4:
			m.VideoURL = s.textPtr()
		case 5:
			m.ShortDescription = s.text()
		case 6:
			m.Campaign = s.textPtr()
		case 7:
			m.Favorites = s.varint()
		case 8:
			m.Badge = BadgeManga(s.varint())
		case 9:
			m.LastUpdate = s.textPtr()
		case 10:
			m.LabelBadge = LabelBadgeManga(s.varint())
		case 11:
			m.SubscriptionBadge = SubscriptionBadge(s.varint())
		default:
			s.skip()
		}
	}
	return m, s.err
}

// MangaResults is a flat title listing.
type MangaResults struct {
	Titles []MangaResultNode
}

func unmarshalMangaResults(b []byte) (*MangaResults, error) {
	m := &MangaResults{}
	s := newFieldScanner(b)
	for s.scan() {
		switch s.num {
		case 1:
			node, err := unmarshalMangaResultNode(s.bytes())
			if err != nil {
				return nil, err
			}
			m.Titles = append(m.Titles, *node)
		default:
			s.skip()
		}
	}
	return m, s.err
}

// MangaGroup is a named title listing, used by the ranking sections.
type MangaGroup struct {
	Name   string
	Titles []MangaResultNode
	TagID  uint64
}

func unmarshalMangaGroup(b []byte) (*MangaGroup, error) {
	m := &MangaGroup{}
	s := newFieldScanner(b)
	for s.scan() {
		switch s.num {
		case 1:
			m.Name = s.text()
		case 2:
			node, err := unmarshalMangaResultNode(s.bytes())
			if err != nil {
				return nil, err
			}
			m.Titles = append(m.Titles, *node)
		case 3:
			m.TagID = s.varint()
		default:
			s.skip()
		}
	}
	return m, s.err
}

// MangaDetailV2 is the title detail page.
type MangaDetailV2 struct {
	Status             Status
	UserPoint          *UserPoint
	Title              string
	Authors            string
	Copyright          string
	NextUpdate         *string
	Warning            *string
	Description        string
	DisplayDescription bool
	Tags               []Tag
	ThumbnailURL       string
	VideoURL           *string
	Chapters           []ChapterV2
	IsFavorite         bool
	ViewButton         *ViewButton
	IsCommentEnabled   bool
	RelatedManga       []MangaResultNode
	HiddenChapters     *ChaptersRange
	SubscriptionStatus SubscriptionStatus
}

func unmarshalMangaDetailV2(b []byte) (*MangaDetailV2, error) {
	m := &MangaDetailV2{}
	s := newFieldScanner(b)
	for s.scan() {
		switch s.num {
		case 1:
			m.Status = Status(s.varint())
		case 2:
			p, err := unmarshalUserPoint(s.bytes())
			if err != nil {
				return nil, err
			}
			m.UserPoint = p
		case 3:
			m.Title = s.text()
		case 4:
			m.Authors = s.text()
		case 5:
			m.Copyright = s.text()
		case 6:
			m.NextUpdate = s.textPtr()
		case 7:
			m.Warning = s.textPtr()
		case 8:
			m.Description = s.text()
		case 9:
			m.DisplayDescription = s.varint() != 0
		case 10:
			tag, err := unmarshalTag(s.bytes())
			if err != nil {
				return nil, err
			}
			m.Tags = append(m.Tags, *tag)
		case 11:
			m.ThumbnailURL = s.text()
		case 12:
			m.VideoURL = s.textPtr()
		case 13:
			ch, err := unmarshalChapterV2(s.bytes())
			if err != nil {
				return nil, err
			}
			m.Chapters = append(m.Chapters, *ch)
		case 14:
			m.IsFavorite = s.varint() != 0
		case 15:
			vb, err := unmarshalViewButton(s.bytes())
			if err != nil {
				return nil, err
			}
			m.ViewButton = vb
		case 16:
			m.IsCommentEnabled = s.varint() != 0
		case 17:
			node, err := unmarshalMangaResultNode(s.bytes())
			if err != nil {
				return nil, err
			}
			m.RelatedManga = append(m.RelatedManga, *node)
		case 18:
			r, err := unmarshalChaptersRange(s.bytes())
			if err != nil {
				return nil, err
			}
			m.HiddenChapters = r
		case 19:
			m.SubscriptionStatus = SubscriptionStatus(s.varint())
		default:
			s.skip()
		}
	}
	return m, s.err
}

// AccountDevice is one registered device on an account.
type AccountDevice struct {
	ID        uint64
	Name      string
	InstallAt uint64
}

func unmarshalAccountDevice(b []byte) (*AccountDevice, error) {
	m := &AccountDevice{}
	s := newFieldScanner(b)
	for s.scan() {
		switch s.num {
		case 1:
			m.ID = s.varint()
		case 2:
			m.Name = s.text()
		case 3:
			m.InstallAt = s.varint()
		default:
			s.skip()
		}
	}
	return m, s.err
}

// AccountView is the account page.
type AccountView struct {
	Devices    []AccountDevice
	Registered *bool
	LoginURL   string
}

func unmarshalAccountView(b []byte) (*AccountView, error) {
	m := &AccountView{}
	s := newFieldScanner(b)
	for s.scan() {
		switch s.num {
		case 1:
			dev, err := unmarshalAccountDevice(s.bytes())
			if err != nil {
				return nil, err
			}
			m.Devices = append(m.Devices, *dev)
		case 2:
			v := s.varint() != 0
			m.Registered = &v
		case 3:
			m.LoginURL = s.text()
		default:
			s.skip()
		}
	}
	return m, s.err
}

// SettingView is the account settings page.
type SettingView struct {
	TagName string
	Keyword string
}

func unmarshalSettingView(b []byte) (*SettingView, error) {
	m := &SettingView{}
	s := newFieldScanner(b)
	for s.scan() {
		switch s.num {
		case 1:
			m.TagName = s.text()
		case 2:
			m.Keyword = s.text()
		default:
			s.skip()
		}
	}
	return m, s.err
}

// MyPageView is the personal library page.
type MyPageView struct {
	Favorites          []MangaResultNode
	History            []MangaResultNode
	RegisterEventPoint uint64
}

func unmarshalMyPageView(b []byte) (*MyPageView, error) {
	m := &MyPageView{}
	s := newFieldScanner(b)
	for s.scan() {
		switch s.num {
		case 1:
			node, err := unmarshalMangaResultNode(s.bytes())
			if err != nil {
				return nil, err
			}
			m.Favorites = append(m.Favorites, *node)
		case 2:
			node, err := unmarshalMangaResultNode(s.bytes())
			if err != nil {
				return nil, err
			}
			m.History = append(m.History, *node)
		case 3:
			m.RegisterEventPoint = s.varint()
		default:
			s.skip()
		}
	}
	return m, s.err
}

// HomeBanner is one carousel banner on the home page.
type HomeBanner struct {
	ID        uint64
	ImageURL  string
	IntentURL string
}

func unmarshalHomeBanner(b []byte) (*HomeBanner, error) {
	m := &HomeBanner{}
	s := newFieldScanner(b)
	for s.scan() {
		switch s.num {
		case 1:
			m.ID = s.varint()
		case 2:
			m.ImageURL = s.text()
		case 3:
			m.IntentURL = s.text()
		default:
			s.skip()
		}
	}
	return m, s.err
}

// HomeFeatured is the currently featured title on the home page.
type HomeFeatured struct {
	ID               uint64
	ImageURL         string
	VideoURL         *string
	ShortDescription string
	IntentURL        string
	Title            string
}

func unmarshalHomeFeatured(b []byte) (*HomeFeatured, error) {
	m := &HomeFeatured{}
	s := newFieldScanner(b)
	for s.scan() {
		switch s.num {
		case 1:
			m.ID = s.varint()
		case 2:
			m.ImageURL = s.text()
		case 3:
			m.VideoURL = s.textPtr()
		case 4:
			m.ShortDescription = s.text()
		case 5:
			m.IntentURL = s.text()
		case 6:
			m.Title = s.text()
		default:
			s.skip()
		}
	}
	return m, s.err
}

// HomeViewV2 is the home feed.
type HomeViewV2 struct {
	UserPoint              *UserPoint
	TopBanners             []HomeBanner
	TopSubBanners          []HomeBanner
	TutorialBanner         *HomeBanner
	UpdatedSectionName     string
	UpdatedTitles          []MangaResultNode
	Tags                   []Tag
	Featured               *HomeFeatured
	NewSectionName         string
	NewTitles              []MangaResultNode
	RankingSectionName     string
	Rankings               []MangaGroup
	RankingDescription     string
	RecommendedBannerImage string
}

func unmarshalHomeViewV2(b []byte) (*HomeViewV2, error) {
	m := &HomeViewV2{}
	s := newFieldScanner(b)
	for s.scan() {
		switch s.num {
		case 1:
			p, err := unmarshalUserPoint(s.bytes())
			if err != nil {
				return nil, err
			}
			m.UserPoint = p
		case 3:
			banner, err := unmarshalHomeBanner(s.bytes())
			if err != nil {
				return nil, err
			}
			m.TopBanners = append(m.TopBanners, *banner)
		case 4:
			banner, err := unmarshalHomeBanner(s.bytes())
			if err != nil {
				return nil, err
			}
			m.TopSubBanners = append(m.TopSubBanners, *banner)
		case 5:
			banner, err := unmarshalHomeBanner(s.bytes())
			if err != nil {
				return nil, err
			}
			m.TutorialBanner = banner
		case 6:
			m.UpdatedSectionName = s.text()
		case 7:
			node, err := unmarshalMangaResultNode(s.bytes())
			if err != nil {
				return nil, err
			}
			m.UpdatedTitles = append(m.UpdatedTitles, *node)
		case 8:
			tag, err := unmarshalTag(s.bytes())
			if err != nil {
				return nil, err
			}
			m.Tags = append(m.Tags, *tag)
		case 9:
			feat, err := unmarshalHomeFeatured(s.bytes())
			if err != nil {
				return nil, err
			}
			m.Featured = feat
		case 10:
			m.NewSectionName = s.text()
		case 11:
			node, err := unmarshalMangaResultNode(s.bytes())
			if err != nil {
				return nil, err
			}
			m.NewTitles = append(m.NewTitles, *node)
		case 12:
			m.RankingSectionName = s.text()
		case 13:
			group, err := unmarshalMangaGroup(s.bytes())
			if err != nil {
				return nil, err
			}
			m.Rankings = append(m.Rankings, *group)
		case 14:
			m.RankingDescription = s.text()
		case 15:
			m.RecommendedBannerImage = s.text()
		default:
			s.skip()
		}
	}
	return m, s.err
}
