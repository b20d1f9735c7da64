package domain

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
)

// CalculatedStockOnHand is a derived cache row: the stock on hand of a card
// at the end of an occurred date, accounting for every line item on or before
// it. At most one row exists per (stock card, occurred date); the line item
// ledger is the durable source of truth and these rows are rebuildable from
// it.
type CalculatedStockOnHand struct {
	ID           uuid.UUID `db:"id" json:"id"`
	StockCardID  uuid.UUID `db:"stock_card_id" json:"stock_card_id"`
	OccurredDate time.Time `db:"occurred_date" json:"occurred_date"`
	StockOnHand  int       `db:"stock_on_hand" json:"stock_on_hand"`
	ProcessedAt  time.Time `db:"processed_at" json:"processed_at"`
}

// DailyBalance is one day's ending stock on hand produced by a ledger replay.
type DailyBalance struct {
	Date        time.Time
	StockOnHand int
}

// InsufficientStockError reports a replay step that would drive stock on hand
// below zero.
type InsufficientStockError struct {
	Date        time.Time
	StockOnHand int
	Quantity    int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock on hand %d on %s cannot cover debit of %d",
		e.StockOnHand, e.Date.Format("2006-01-02"), e.Quantity)
}

// StockOverflowError reports a credit that would exceed the integer range.
type StockOverflowError struct {
	Date        time.Time
	StockOnHand int
	Quantity    int
}

func (e *StockOverflowError) Error() string {
	return fmt.Sprintf("stock on hand %d on %s overflows when credited %d",
		e.StockOnHand, e.Date.Format("2006-01-02"), e.Quantity)
}

// ReplayLedger recomputes per-day ending balances starting from an anchor
// value. It walks the union of the line items' occurred dates and extraDates
// (dates that already have cached rows and must be shifted) in ascending
// order, applying each day's line items in their deterministic order: a
// physical inventory claim replaces the running total with its declared
// quantity, a reason-based movement adds its signed delta.
//
// The returned balances carry one entry per walked date. Replay fails when
// any intermediate balance would go negative or overflow; it never mutates
// its inputs' ordering guarantees beyond sorting the given slice.
func ReplayLedger(anchor int, items []*StockCardLineItem, extraDates []time.Time) ([]DailyBalance, error) {
	SortLineItems(items)

	byDate := make(map[time.Time][]*StockCardLineItem, len(items))
	dates := make(map[time.Time]struct{}, len(items)+len(extraDates))
	for _, li := range items {
		d := DateOnly(li.OccurredDate)
		byDate[d] = append(byDate[d], li)
		dates[d] = struct{}{}
	}
	for _, d := range extraDates {
		dates[DateOnly(d)] = struct{}{}
	}

	ordered := make([]time.Time, 0, len(dates))
	for d := range dates {
		ordered = append(ordered, d)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Before(ordered[j]) })

	balances := make([]DailyBalance, 0, len(ordered))
	running := anchor
	for _, d := range ordered {
		for _, li := range byDate[d] {
			var err error
			running, err = applyLineItem(running, li, d)
			if err != nil {
				return nil, err
			}
			soh := running
			li.StockOnHand = &soh
		}
		balances = append(balances, DailyBalance{Date: d, StockOnHand: running})
	}
	return balances, nil
}

func applyLineItem(running int, li *StockCardLineItem, date time.Time) (int, error) {
	if li.IsPhysicalInventory() {
		return li.Quantity, nil
	}
	delta := li.SignedQuantity()
	if delta > 0 && running > math.MaxInt32-delta {
		return 0, &StockOverflowError{Date: date, StockOnHand: running, Quantity: li.Quantity}
	}
	next := running + delta
	if next < 0 {
		return 0, &InsufficientStockError{Date: date, StockOnHand: running, Quantity: li.Quantity}
	}
	return next, nil
}
