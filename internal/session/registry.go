package session

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// Registry tracks all live panes and optionally reaps idle ones on a
// schedule.
type Registry struct {
	mu    sync.RWMutex
	panes map[uuid.UUID]*Pane
	cron  *cron.Cron
}

func NewRegistry() *Registry {
	return &Registry{panes: make(map[uuid.UUID]*Pane)}
}

func (r *Registry) Add(p *Pane) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.panes[p.ID] = p
}

func (r *Registry) Remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.panes, id)
}

func (r *Registry) Get(id uuid.UUID) *Pane {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.panes[id]
}

// ListActive returns the live panes ordered by start time.
func (r *Registry) ListActive() []*Pane {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*Pane, 0, len(r.panes))
	for _, p := range r.panes {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartTime.Before(result[j].StartTime)
	})
	return result
}

// StartIdleSweep schedules a recurring sweep (cron spec, e.g. "@every 1m")
// that closes and removes panes idle longer than limit.
func (r *Registry) StartIdleSweep(schedule string, limit time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cron != nil {
		return fmt.Errorf("idle sweep already running")
	}
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() { r.sweep(limit) }); err != nil {
		return fmt.Errorf("schedule idle sweep %q: %w", schedule, err)
	}
	c.Start()
	r.cron = c
	log.Printf("INFO: Idle pane sweep scheduled (%s, limit %s)", schedule, limit)
	return nil
}

// Stop halts the idle sweep scheduler. Panes are left running.
func (r *Registry) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cron != nil {
		r.cron.Stop()
		r.cron = nil
	}
}

func (r *Registry) sweep(limit time.Duration) {
	for _, p := range r.ListActive() {
		if p.IdleFor() <= limit {
			continue
		}
		log.Printf("INFO: Pane %s: idle for %s, closing", p.ID, p.IdleFor().Round(time.Second))
		p.Close()
		r.Remove(p.ID)
	}
}
