// Package console implements the admin order console: filter and sort
// transformations over an order list, and a Console that mutates orders
// through the Order API and reconciles with the server afterwards.
package console

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"herbal_store/internal/domain"

	"github.com/shopspring/decimal"
)

type AmountRange string

const (
	AmountAll       AmountRange = "all"
	AmountBelow500  AmountRange = "below-500"
	Amount500To1000 AmountRange = "500-1000"
	AmountAbove1000 AmountRange = "above-1000"
)

type Period string

const (
	PeriodAll       Period = "all"
	PeriodToday     Period = "today"
	PeriodThisWeek  Period = "this-week"
	PeriodLastWeek  Period = "last-week"
	PeriodThisMonth Period = "this-month"
	PeriodLastMonth Period = "last-month"
	PeriodThisYear  Period = "this-year"
)

type SortKey string

const (
	SortLatest     SortKey = "latest"
	SortOldest     SortKey = "oldest"
	SortAmountHigh SortKey = "amount-high"
	SortAmountLow  SortKey = "amount-low"
	SortStatus     SortKey = "status"
)

// StatusAll matches every status.
const StatusAll = "all"

var (
	amount500  = decimal.NewFromInt(500)
	amount1000 = decimal.NewFromInt(1000)
)

// Filter is the console's view state. Zero values mean "no restriction",
// except ShowArchived: false shows only active orders, true only archived ones.
type Filter struct {
	Search       string
	Status       string
	Amount       AmountRange
	Period       Period
	ShowArchived bool
	Sort         SortKey
}

func (f Filter) Validate() error {
	if f.Status != "" && f.Status != StatusAll && !domain.IsValidStatus(domain.OrderStatus(f.Status)) {
		return fmt.Errorf("unknown status filter %q: %w", f.Status, domain.ErrInvalidInput)
	}
	switch f.Amount {
	case "", AmountAll, AmountBelow500, Amount500To1000, AmountAbove1000:
	default:
		return fmt.Errorf("unknown amount range %q: %w", f.Amount, domain.ErrInvalidInput)
	}
	switch f.Period {
	case "", PeriodAll, PeriodToday, PeriodThisWeek, PeriodLastWeek, PeriodThisMonth, PeriodLastMonth, PeriodThisYear:
	default:
		return fmt.Errorf("unknown period %q: %w", f.Period, domain.ErrInvalidInput)
	}
	switch f.Sort {
	case "", SortLatest, SortOldest, SortAmountHigh, SortAmountLow, SortStatus:
	default:
		return fmt.Errorf("unknown sort %q: %w", f.Sort, domain.ErrInvalidInput)
	}
	return nil
}

func (f Filter) Matches(o domain.Order, now time.Time) bool {
	if o.Archived != f.ShowArchived {
		return false
	}
	if f.Status != "" && f.Status != StatusAll && string(o.Status) != f.Status {
		return false
	}
	if !matchesSearch(o, f.Search) {
		return false
	}
	if !matchesAmount(o.TotalAmount, f.Amount) {
		return false
	}
	return matchesPeriod(o.CreatedAt, f.Period, now)
}

func matchesSearch(o domain.Order, search string) bool {
	q := strings.ToLower(strings.TrimSpace(search))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(o.ShippingAddress.Name), q) ||
		strings.Contains(strings.ToLower(o.ID), q) ||
		strings.Contains(strings.ToLower(o.ShippingAddress.City), q)
}

func matchesAmount(total decimal.Decimal, r AmountRange) bool {
	switch r {
	case AmountBelow500:
		return total.LessThan(amount500)
	case Amount500To1000:
		return total.GreaterThanOrEqual(amount500) && total.LessThanOrEqual(amount1000)
	case AmountAbove1000:
		return total.GreaterThan(amount1000)
	default:
		return true
	}
}

func matchesPeriod(created time.Time, p Period, now time.Time) bool {
	start, end, ok := PeriodBounds(p, now)
	if !ok {
		return true
	}
	t := created.In(now.Location())
	return !t.Before(start) && t.Before(end)
}

// PeriodBounds returns the half-open [start, end) range of p in now's location.
// Weeks start on Monday.
func PeriodBounds(p Period, now time.Time) (time.Time, time.Time, bool) {
	loc := now.Location()
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, loc)
	monday := today.AddDate(0, 0, -((int(today.Weekday()) + 6) % 7))
	firstOfMonth := time.Date(y, m, 1, 0, 0, 0, 0, loc)

	switch p {
	case PeriodToday:
		return today, today.AddDate(0, 0, 1), true
	case PeriodThisWeek:
		return monday, monday.AddDate(0, 0, 7), true
	case PeriodLastWeek:
		return monday.AddDate(0, 0, -7), monday, true
	case PeriodThisMonth:
		return firstOfMonth, firstOfMonth.AddDate(0, 1, 0), true
	case PeriodLastMonth:
		return firstOfMonth.AddDate(0, -1, 0), firstOfMonth, true
	case PeriodThisYear:
		jan1 := time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
		return jan1, jan1.AddDate(1, 0, 0), true
	default:
		return time.Time{}, time.Time{}, false
	}
}

// Apply filters orders and returns a sorted copy. The input is not modified.
func Apply(orders []domain.Order, f Filter, now time.Time) []domain.Order {
	out := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		if f.Matches(o, now) {
			out = append(out, o)
		}
	}
	SortOrders(out, f.Sort)
	return out
}

// SortOrders sorts in place. Equal keys keep their input order.
func SortOrders(orders []domain.Order, key SortKey) {
	var less func(a, b domain.Order) bool
	switch key {
	case SortOldest:
		less = func(a, b domain.Order) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case SortAmountHigh:
		less = func(a, b domain.Order) bool { return a.TotalAmount.GreaterThan(b.TotalAmount) }
	case SortAmountLow:
		less = func(a, b domain.Order) bool { return a.TotalAmount.LessThan(b.TotalAmount) }
	case SortStatus:
		less = func(a, b domain.Order) bool { return domain.StatusRank(a.Status) < domain.StatusRank(b.Status) }
	case SortLatest, "":
		less = func(a, b domain.Order) bool { return a.CreatedAt.After(b.CreatedAt) }
	default:
		return
	}
	sort.SliceStable(orders, func(i, j int) bool { return less(orders[i], orders[j]) })
}
