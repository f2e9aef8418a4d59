// Package prefs holds the locally-authoritative preference overlays:
// per-event position and color, and per-event-name chart type. Overlay
// values win over backend-sourced values when a repository composes its
// in-memory view, and are pushed to the backend opportunistically.
package prefs

import (
	"sync"

	"github.com/google/uuid"

	"trackany/internal/cache"
	"trackany/internal/model"
)

const (
	positionsKey = "prefs:positions"
	colorsKey    = "prefs:colors"
	chartsKey    = "prefs:charts"
)

// DefaultColors is the palette new events draw from.
var DefaultColors = []string{
	"#000000", // black
	"#3B82F6", // blue
	"#10B981", // green
	"#F59E0B", // amber
	"#EF4444", // red
	"#8B5CF6", // purple
	"#EC4899", // pink
	"#06B6D4", // cyan
}

// Positions is the per-event sort-order overlay. The mutex serializes the
// read-modify-write of the stored map so concurrent Sets cannot drop entries.
type Positions struct {
	mu    sync.Mutex
	store *cache.Store
}

func NewPositions(store *cache.Store) *Positions {
	return &Positions{store: store}
}

func (p *Positions) Get(id uuid.UUID) (int, bool) {
	all := p.All()
	v, ok := all[id.String()]
	return v, ok
}

// Set writes the overlay entry durably before returning, so a caller that
// re-reads immediately afterwards observes the new position.
func (p *Positions) Set(id uuid.UUID, position int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	all := p.read()
	all[id.String()] = position
	p.store.WriteSlot(positionsKey, all)
}

func (p *Positions) Delete(id uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	all := p.read()
	delete(all, id.String())
	p.store.WriteSlot(positionsKey, all)
}

func (p *Positions) All() map[string]int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.read()
}

func (p *Positions) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.store.RemoveSlot(positionsKey)
}

func (p *Positions) read() map[string]int {
	all := map[string]int{}
	p.store.ReadSlot(positionsKey, &all)
	return all
}

// Colors is the per-event chart color overlay. Setting a color also fires an
// unawaited backend update through the push hook, when one is registered.
type Colors struct {
	mu    sync.Mutex
	store *cache.Store
	push  func(id uuid.UUID, color string)
}

func NewColors(store *cache.Store) *Colors {
	return &Colors{store: store}
}

// SetPush registers the detached backend update fired on every Set.
// The events repository installs this at construction.
func (c *Colors) SetPush(push func(id uuid.UUID, color string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.push = push
}

// Get returns the overlay color for id, falling back to the palette head.
func (c *Colors) Get(id uuid.UUID) string {
	if v, ok := c.Lookup(id); ok {
		return v
	}
	return DefaultColors[0]
}

func (c *Colors) Lookup(id uuid.UUID) (string, bool) {
	all := c.All()
	v, ok := all[id.String()]
	return v, ok
}

func (c *Colors) Set(id uuid.UUID, color string) {
	c.mu.Lock()
	all := c.read()
	all[id.String()] = color
	c.store.WriteSlot(colorsKey, all)
	push := c.push
	c.mu.Unlock()
	if push != nil {
		push(id, color)
	}
}

func (c *Colors) All() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.read()
}

func (c *Colors) read() map[string]string {
	all := map[string]string{}
	c.store.ReadSlot(colorsKey, &all)
	return all
}

// Charts is the chart-type preference, keyed by event name.
type Charts struct {
	mu    sync.Mutex
	store *cache.Store
}

func NewCharts(store *cache.Store) *Charts {
	return &Charts{store: store}
}

func (c *Charts) Get(eventName string) (model.ChartType, bool) {
	all := c.All()
	v, ok := all[eventName]
	return v, ok
}

func (c *Charts) Set(eventName string, t model.ChartType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	all := c.read()
	all[eventName] = t
	c.store.WriteSlot(chartsKey, all)
}

func (c *Charts) Remove(eventName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	all := c.read()
	delete(all, eventName)
	c.store.WriteSlot(chartsKey, all)
}

func (c *Charts) All() map[string]model.ChartType {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.read()
}

func (c *Charts) read() map[string]model.ChartType {
	all := map[string]model.ChartType{}
	c.store.ReadSlot(chartsKey, &all)
	return all
}
