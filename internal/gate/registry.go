// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

package gate

import (
	"sort"
	"sync"
)

// Resource classes with their own gate.
const (
	ClassAvailability = "availability"
	ClassDetails      = "details"
	ClassRatings      = "ratings"
)

// Registry hands out one Gate per resource class. Every gate of a
// registry has the same capacity.
type Registry struct {
	capacity int

	mu    sync.Mutex
	gates map[string]*Gate
}

// NewRegistry creates a registry whose gates admit capacity holders each.
func NewRegistry(capacity int) *Registry {
	return &Registry{
		capacity: capacity,
		gates:    make(map[string]*Gate),
	}
}

// Get returns the gate for class, creating it on first use.
func (r *Registry) Get(class string) *Gate {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.gates[class]
	if !ok {
		g = New(class, r.capacity)
		r.gates[class] = g
	}
	return g
}

// Stats returns the occupancy of every gate created so far, by name.
func (r *Registry) Stats() []Stats {
	r.mu.Lock()
	out := make([]Stats, 0, len(r.gates))
	for _, g := range r.gates {
		out = append(out, g.Stats())
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Close closes every gate.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, g := range r.gates {
		g.Close()
	}
}
