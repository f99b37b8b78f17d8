package chat

import (
	"context"
	"slices"
	"sync"

	"case-chat/internal/model"
)

type CaseSource interface {
	UserDetails(ctx context.Context) (*model.UserDetails, error)
}

// Cases is a read-through cache of the signed-in user's cases.
type Cases struct {
	src CaseSource

	mu     sync.Mutex
	list   []model.Case
	loaded bool
}

func NewCases(src CaseSource) *Cases { return &Cases{src: src} }

func (c *Cases) List(ctx context.Context) ([]model.Case, error) {
	c.mu.Lock()
	if c.loaded {
		out := slices.Clone(c.list)
		c.mu.Unlock()
		return out, nil
	}
	c.mu.Unlock()
	return c.Refresh(ctx)
}

func (c *Cases) Refresh(ctx context.Context) ([]model.Case, error) {
	u, err := c.src.UserDetails(ctx)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.list = slices.Clone(u.Cases)
	c.loaded = true
	return slices.Clone(c.list), nil
}

// Add records a newly created case at the top of the list.
func (c *Cases) Add(cs model.Case) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.list = append([]model.Case{cs}, c.list...)
}

func (c *Cases) Find(id model.CaseID) (model.Case, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := slices.IndexFunc(c.list, func(cs model.Case) bool { return cs.CaseID == id })
	if i < 0 {
		return model.Case{}, false
	}
	return c.list[i], true
}

// Invalidate forces the next List to refetch, e.g. after logout.
func (c *Cases) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.list, c.loaded = nil, false
}
