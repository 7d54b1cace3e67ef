package mu

// Status is the embedded result code every viewer/detail payload carries.
type Status int32

const (
	StatusSuccess         Status = 0
	StatusContentNotFound Status = 1
)

// Badge marks a chapter's update state in listings.
type Badge int32

const (
	BadgeNone    Badge = 0
	BadgeUpdate  Badge = 1
	BadgeAdvance Badge = 2
)

// BadgeManga marks a title's update state in listings.
type BadgeManga int32

const (
	BadgeMangaNone       BadgeManga = 0
	BadgeMangaNew        BadgeManga = 1
	BadgeMangaUpdate     BadgeManga = 2
	BadgeMangaUpdateWeek BadgeManga = 3
	BadgeMangaUnread     BadgeManga = 4
)

// LabelBadgeManga marks a title's label in listings.
type LabelBadgeManga int32

const (
	LabelBadgeNone     LabelBadgeManga = 0
	LabelBadgeOriginal LabelBadgeManga = 1
)

// ConsumptionType is the coin policy a chapter is sold under.
type ConsumptionType int32

const (
	// ConsumeAny draws free coins first, then event, then paid.
	ConsumeAny ConsumptionType = 0
	// ConsumeEventOrPaid never draws free coins.
	ConsumeEventOrPaid ConsumptionType = 1
	// ConsumePaid requires the whole price in paid coins.
	ConsumePaid ConsumptionType = 2
)

// SubscriptionStatus is the user's subscription state on a title detail
// page. The backend has not published its variants; keeping the raw
// value preserves whatever it sends.
type SubscriptionStatus int32

const SubscriptionStatusNone SubscriptionStatus = 0

// SubscriptionBadge marks a title's subscription tier in listings. Raw
// value kept for the same reason as SubscriptionStatus.
type SubscriptionBadge int32

const SubscriptionBadgeNone SubscriptionBadge = 0

// SubscriptionKind is the billing period of a subscription offer.
type SubscriptionKind int32

const (
	SubscriptionNone       SubscriptionKind = 0
	SubscriptionMonthly    SubscriptionKind = 1
	SubscriptionYearly     SubscriptionKind = 2
	SubscriptionSeasonally SubscriptionKind = 3
	SubscriptionHalfYearly SubscriptionKind = 4
)
