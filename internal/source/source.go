// Package source puts the two manga backends behind one capability
// surface so command code can stay backend-agnostic. Each variant is
// picked at construction; callers never type-switch on the backend.
package source

import "context"

// Kind identifies a backend.
type Kind string

const (
	KindKM Kind = "km"
	KindMU Kind = "mu"
)

// Balance is a backend-neutral view of an account's purse. Backends
// without an event balance or tickets leave those fields zero.
type Balance struct {
	Free  uint64
	Event uint64
	Paid  uint64

	TitleTickets   uint64
	PremiumTickets uint64
}

// Total is the spendable sum across all point balances.
func (b Balance) Total() uint64 {
	return b.Free + b.Event + b.Paid
}

// Chapter is one purchasable reading unit of a title.
type Chapter struct {
	ID    int64
	Title string
	Price uint64
	// Owned marks chapters the account can already read.
	Owned bool
}

// Title is a catalog entry with its chapter list.
type Title struct {
	ID          int64
	Name        string
	Authors     string
	Description string
	Chapters    []Chapter
}

// Failure records one chapter a batch purchase could not complete.
type Failure struct {
	ChapterID int64
	Reason    string
}

// PurchaseReport summarizes a batch purchase. A batch never aborts on a
// per-chapter problem; every requested chapter lands in exactly one of
// the three buckets.
type PurchaseReport struct {
	// Purchased lists chapters claimed during this batch.
	Purchased []int64
	// Skipped lists chapters that were already owned.
	Skipped []int64
	Failures []Failure
}

func (r *PurchaseReport) fail(chapterID int64, reason string) {
	r.Failures = append(r.Failures, Failure{ChapterID: chapterID, Reason: reason})
}

// FailureCount is the number of chapters that could not be purchased.
func (r *PurchaseReport) FailureCount() int { return len(r.Failures) }

// Source is the capability surface shared by both backends.
type Source interface {
	Kind() Kind

	// FetchTitle loads one title and its chapter list.
	FetchTitle(ctx context.Context, titleID int64) (*Title, error)

	// Purchase claims the given chapters of a title, continuing past
	// per-chapter errors. The returned report is valid even when err is
	// nil and some chapters failed; err is reserved for problems that
	// prevent the batch from running at all.
	Purchase(ctx context.Context, titleID int64, chapterIDs []int64) (*PurchaseReport, error)

	// Balance fetches the account's current purse.
	Balance(ctx context.Context) (*Balance, error)
}
