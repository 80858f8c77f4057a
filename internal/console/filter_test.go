package console

import (
	"testing"
	"time"

	"herbal_store/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Wednesday.
var now = time.Date(2024, time.May, 15, 14, 0, 0, 0, time.UTC)

func order(id, name, city string, total int64, status domain.OrderStatus, created time.Time) domain.Order {
	return domain.Order{
		RecordMeta:      domain.RecordMeta{ID: id, CreatedAt: created},
		TotalAmount:     decimal.NewFromInt(total),
		ShippingAddress: domain.ShippingAddress{Name: name, City: city},
		Status:          status,
	}
}

func ids(orders []domain.Order) []string {
	out := make([]string, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.ID)
	}
	return out
}

func fixtures() []domain.Order {
	archived := order("5", "Esha", "Goa", 800, domain.StatusDelivered, now.AddDate(0, 0, -1))
	archived.Archived = true
	return []domain.Order{
		order("1", "Asha Rao", "Pune", 450, domain.StatusPending, now.Add(-2*time.Hour)),
		order("2", "Bala", "Chennai", 500, domain.StatusShipped, now.AddDate(0, 0, -8)),
		order("3", "Chitra", "Mumbai", 1000, domain.StatusPending, now.AddDate(0, -1, 0)),
		order("4", "Dev", "pune", 1200, domain.StatusCancelled, now.AddDate(-1, 0, 0)),
		archived,
	}
}

func TestSearchIsCaseInsensitiveOverNameIDCity(t *testing.T) {
	orders := fixtures()
	assert.Equal(t, []string{"4", "1"}, ids(Apply(orders, Filter{Search: "PUNE", Sort: SortOldest}, now)))
	assert.Equal(t, []string{"1"}, ids(Apply(orders, Filter{Search: "asha r"}, now)))
	assert.Equal(t, []string{"3"}, ids(Apply(orders, Filter{Search: "3"}, now)))
}

func TestSearchIgnoresPhone(t *testing.T) {
	orders := fixtures()
	orders[1].ShippingAddress.Phone = "9876543210"
	assert.Empty(t, ids(Apply(orders, Filter{Search: "98765"}, now)))
}

func TestArchiveToggleIsExclusive(t *testing.T) {
	orders := fixtures()
	assert.Equal(t, []string{"5"}, ids(Apply(orders, Filter{ShowArchived: true}, now)))
	assert.NotContains(t, ids(Apply(orders, Filter{}, now)), "5")
}

func TestStatusFilter(t *testing.T) {
	orders := fixtures()
	assert.Equal(t, []string{"1", "3"}, ids(Apply(orders, Filter{Status: "pending", Sort: SortAmountLow}, now)))
	assert.Len(t, Apply(orders, Filter{Status: StatusAll}, now), 4)
}

func TestAmountBuckets(t *testing.T) {
	orders := fixtures()
	assert.Equal(t, []string{"1"}, ids(Apply(orders, Filter{Amount: AmountBelow500}, now)))
	assert.Equal(t, []string{"2", "3"}, ids(Apply(orders, Filter{Amount: Amount500To1000, Sort: SortAmountLow}, now)))
	assert.Equal(t, []string{"4"}, ids(Apply(orders, Filter{Amount: AmountAbove1000}, now)))
}

func TestPeriodBoundsWeekStartsMonday(t *testing.T) {
	start, end, ok := PeriodBounds(PeriodThisWeek, now)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, time.May, 13, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, time.May, 20, 0, 0, 0, 0, time.UTC), end)

	sunday := time.Date(2024, time.May, 19, 23, 0, 0, 0, time.UTC)
	start, _, _ = PeriodBounds(PeriodThisWeek, sunday)
	assert.Equal(t, time.Date(2024, time.May, 13, 0, 0, 0, 0, time.UTC), start)

	start, end, _ = PeriodBounds(PeriodLastMonth, time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2023, time.December, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), end)

	_, _, ok = PeriodBounds(PeriodAll, now)
	assert.False(t, ok)
}

func TestPeriodFilter(t *testing.T) {
	orders := fixtures()
	assert.Equal(t, []string{"1"}, ids(Apply(orders, Filter{Period: PeriodToday}, now)))
	assert.Equal(t, []string{"1"}, ids(Apply(orders, Filter{Period: PeriodThisWeek}, now)))
	assert.Equal(t, []string{"2"}, ids(Apply(orders, Filter{Period: PeriodLastWeek}, now)))
	assert.Equal(t, []string{"3"}, ids(Apply(orders, Filter{Period: PeriodLastMonth}, now)))
	assert.Equal(t, []string{"1", "2"}, ids(Apply(orders, Filter{Period: PeriodThisMonth}, now)))
	assert.NotContains(t, ids(Apply(orders, Filter{Period: PeriodThisYear}, now)), "4")
}

func TestSortsAreStable(t *testing.T) {
	tie := now.Add(-time.Hour)
	orders := []domain.Order{
		order("a", "", "", 300, domain.StatusShipped, tie),
		order("b", "", "", 300, domain.StatusPending, tie),
		order("c", "", "", 100, domain.StatusPending, now),
		order("d", "", "", 300, domain.StatusPending, tie),
	}

	assert.Equal(t, []string{"c", "a", "b", "d"}, ids(Apply(orders, Filter{Sort: SortLatest}, now)))
	assert.Equal(t, []string{"a", "b", "d", "c"}, ids(Apply(orders, Filter{Sort: SortOldest}, now)))
	assert.Equal(t, []string{"a", "b", "d", "c"}, ids(Apply(orders, Filter{Sort: SortAmountHigh}, now)))
	assert.Equal(t, []string{"c", "a", "b", "d"}, ids(Apply(orders, Filter{Sort: SortAmountLow}, now)))
	assert.Equal(t, []string{"b", "c", "d", "a"}, ids(Apply(orders, Filter{Sort: SortStatus}, now)))
	assert.Equal(t, "a", orders[0].ID, "input must not be reordered")
}

func TestFilterValidate(t *testing.T) {
	assert.NoError(t, Filter{}.Validate())
	assert.NoError(t, Filter{Status: "shipped", Amount: AmountAbove1000, Period: PeriodToday, Sort: SortStatus}.Validate())
	assert.ErrorIs(t, Filter{Status: "lost"}.Validate(), domain.ErrInvalidInput)
	assert.ErrorIs(t, Filter{Amount: "huge"}.Validate(), domain.ErrInvalidInput)
	assert.ErrorIs(t, Filter{Period: "yesterday"}.Validate(), domain.ErrInvalidInput)
	assert.ErrorIs(t, Filter{Sort: "random"}.Validate(), domain.ErrInvalidInput)
}
