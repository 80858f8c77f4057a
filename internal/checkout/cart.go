package checkout

import (
	"sync"

	"herbal_store/internal/domain"
)

type Cart interface {
	Items() []domain.OrderItem
	Clear()
}

type MemoryCart struct {
	mu    sync.Mutex
	items []domain.OrderItem
}

func NewMemoryCart(items ...domain.OrderItem) *MemoryCart {
	return &MemoryCart{items: items}
}

// Add merges quantities for a product already in the cart.
func (c *MemoryCart) Add(item domain.OrderItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].ProductID == item.ProductID {
			c.items[i].Quantity += item.Quantity
			return
		}
	}
	c.items = append(c.items, item)
}

func (c *MemoryCart) Items() []domain.OrderItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.OrderItem(nil), c.items...)
}

func (c *MemoryCart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
}
