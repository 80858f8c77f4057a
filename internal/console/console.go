package console

import (
	"context"
	"fmt"
	"sync"
	"time"

	"herbal_store/internal/domain"

	"github.com/sirupsen/logrus"
)

const DefaultRefreshDelay = time.Second

type OrderAPI interface {
	ListOrders(ctx context.Context) ([]domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, patch domain.OrderPatch) (*domain.Order, error)
}

type Console struct {
	api          OrderAPI
	log          *logrus.Logger
	refreshDelay time.Duration
	now          func() time.Time

	mu     sync.Mutex
	orders []domain.Order
	timer  *time.Timer
	closed bool
}

type Option func(*Console)

func WithRefreshDelay(d time.Duration) Option {
	return func(c *Console) { c.refreshDelay = d }
}

func WithClock(now func() time.Time) Option {
	return func(c *Console) { c.now = now }
}

func New(api OrderAPI, logger *logrus.Logger, opts ...Option) *Console {
	c := &Console{
		api:          api,
		log:          logger,
		refreshDelay: DefaultRefreshDelay,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Refresh replaces the in-memory list with the server's.
func (c *Console) Refresh(ctx context.Context) error {
	orders, err := c.api.ListOrders(ctx)
	if err != nil {
		c.log.Warnf("Console: Failed to fetch orders: %v", err)
		return err
	}
	c.mu.Lock()
	c.orders = orders
	c.mu.Unlock()
	c.log.Debugf("Console: Loaded %d orders", len(orders))
	return nil
}

func (c *Console) Orders() []domain.Order {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Order(nil), c.orders...)
}

// View is the filtered, sorted list as the console displays it.
func (c *Console) View(f Filter) []domain.Order {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Apply(c.orders, f, c.now())
}

func (c *Console) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	if !domain.IsValidStatus(status) {
		return fmt.Errorf("invalid order status %q: %w", status, domain.ErrInvalidInput)
	}
	return c.mutate(ctx, id, domain.OrderPatch{Status: &status})
}

func (c *Console) ToggleArchive(ctx context.Context, id string) error {
	c.mu.Lock()
	idx := c.indexOf(id)
	if idx < 0 {
		c.mu.Unlock()
		return fmt.Errorf("order %s not loaded: %w", id, domain.ErrNotFound)
	}
	archived := !c.orders[idx].Archived
	c.mu.Unlock()
	return c.mutate(ctx, id, domain.OrderPatch{Archived: &archived})
}

// mutate patches the local copy first, reverts it if the server rejects
// the change, and schedules a refetch either way.
func (c *Console) mutate(ctx context.Context, id string, patch domain.OrderPatch) error {
	c.mu.Lock()
	var previous *domain.Order
	if idx := c.indexOf(id); idx >= 0 {
		prev := c.orders[idx]
		previous = &prev
		patch.Apply(&c.orders[idx])
	}
	c.mu.Unlock()

	_, err := c.api.UpdateOrderStatus(ctx, id, patch)
	if err != nil {
		c.log.Warnf("Console: Update of order %s failed: %v", id, err)
		if previous != nil {
			c.mu.Lock()
			if idx := c.indexOf(id); idx >= 0 {
				c.orders[idx] = *previous
			}
			c.mu.Unlock()
		}
	}
	c.scheduleRefresh()
	return err
}

func (c *Console) indexOf(id string) int {
	for i := range c.orders {
		if c.orders[i].ID == id {
			return i
		}
	}
	return -1
}

// scheduleRefresh debounces refetches: a newer mutation restarts the delay.
func (c *Console) scheduleRefresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.refreshDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		c.mu.Lock()
		closed := c.closed
		c.mu.Unlock()
		if closed {
			return
		}
		_ = c.Refresh(ctx)
	})
}

// Close stops any pending refresh.
func (c *Console) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
	}
}
