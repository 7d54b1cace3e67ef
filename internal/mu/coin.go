package mu

// ConsumeCoin records how many coins of each kind a chapter purchase
// would spend, plus the chapter's total price. It is derived once per
// chapter and never stored.
type ConsumeCoin struct {
	Free  uint64
	Event uint64
	Paid  uint64
	Need  uint64
}

// IsPossible reports whether the allocated coins cover the price.
func (c ConsumeCoin) IsPossible() bool {
	return c.Free+c.Event+c.Paid >= c.Need
}

// IsFree reports whether the chapter costs nothing at all.
func (c ConsumeCoin) IsFree() bool {
	return c.Need == 0
}

// CalculateCoin allocates coins from a purse for one chapter under the
// chapter's consumption policy. The result is provisional; the server's
// post-purchase balances are authoritative.
//
// When the purse cannot cover the price the allocation comes back with
// whatever the eligible tiers held, so IsPossible reports false.
func CalculateCoin(point *UserPoint, chapter *ChapterV2) ConsumeCoin {
	if chapter.IsFree() {
		return ConsumeCoin{}
	}

	price := chapter.Price

	switch chapter.Consumption {
	case ConsumeAny:
		// Free coins first, then event, then paid.
		if point.Free >= price {
			return ConsumeCoin{Free: price, Need: price}
		}

		rest := price - point.Free
		if point.Event >= rest {
			return ConsumeCoin{Free: point.Free, Event: rest, Need: price}
		}

		rest -= point.Event
		paid := rest
		if point.Paid < rest {
			paid = point.Paid
		}
		return ConsumeCoin{Free: point.Free, Event: point.Event, Paid: paid, Need: price}

	case ConsumeEventOrPaid:
		// Free coins are never eligible here.
		if point.Event >= price {
			return ConsumeCoin{Event: price, Need: price}
		}

		rest := price - point.Event
		paid := rest
		if point.Paid < rest {
			paid = point.Paid
		}
		return ConsumeCoin{Event: point.Event, Paid: paid, Need: price}

	case ConsumePaid:
		// All or nothing from the paid balance.
		if point.Paid < price {
			return ConsumeCoin{Need: price}
		}
		return ConsumeCoin{Paid: price, Need: price}

	default:
		return ConsumeCoin{Need: price}
	}
}
