/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package relay

import (
	"context"
	"sort"
	"sync"

	"github.com/carverauto/camshim/pkg/logger"
	"github.com/carverauto/camshim/pkg/models"
)

// EventType says whether a stream's relay routes appeared or went away.
type EventType string

const (
	EventPublished EventType = "published"
	EventWithdrawn EventType = "withdrawn"
)

// Event is delivered to Table subscribers.
type Event struct {
	Type       EventType              `json:"type"`
	StreamName string                 `json:"stream_name"`
	Endpoints  *models.RelayEndpoints `json:"endpoints,omitempty"`
}

// Table is the in-memory set of currently published relay routes. It is safe
// for concurrent use.
type Table struct {
	logger logger.Logger

	mu      sync.RWMutex
	entries map[string]models.RelayEndpoints
	subs    map[chan Event]struct{}
}

func NewTable(log logger.Logger) *Table {
	return &Table{
		logger:  log,
		entries: make(map[string]models.RelayEndpoints),
		subs:    make(map[chan Event]struct{}),
	}
}

func (t *Table) Publish(_ context.Context, endpoints models.RelayEndpoints) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries[endpoints.StreamName] = endpoints

	e := endpoints
	t.broadcastLocked(Event{Type: EventPublished, StreamName: endpoints.StreamName, Endpoints: &e})

	return nil
}

// Withdraw removes a stream's routes. Withdrawing an unknown stream is a no-op.
func (t *Table) Withdraw(_ context.Context, streamName string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.entries[streamName]; !ok {
		return nil
	}

	delete(t.entries, streamName)
	t.broadcastLocked(Event{Type: EventWithdrawn, StreamName: streamName})

	return nil
}

// Get returns the routes published for streamName.
func (t *Table) Get(streamName string) (models.RelayEndpoints, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, ok := t.entries[streamName]

	return e, ok
}

// List returns all published routes ordered by stream name.
func (t *Table) List() []models.RelayEndpoints {
	t.mu.RLock()
	out := make([]models.RelayEndpoints, 0, len(t.entries))

	for _, e := range t.entries {
		out = append(out, e)
	}
	t.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].StreamName < out[j].StreamName })

	return out
}

// Subscribe returns a channel of future events and a function that ends the
// subscription. A subscriber that falls more than buffer events behind misses
// events rather than blocking publishers.
func (t *Table) Subscribe(buffer int) (<-chan Event, func()) {
	ch := make(chan Event, buffer)

	t.mu.Lock()
	t.subs[ch] = struct{}{}
	t.mu.Unlock()

	var once sync.Once

	return ch, func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.subs, ch)
			t.mu.Unlock()
			close(ch)
		})
	}
}

func (t *Table) broadcastLocked(ev Event) {
	for ch := range t.subs {
		select {
		case ch <- ev:
		default:
			t.logger.Warn().
				Str("stream", ev.StreamName).
				Str("event", string(ev.Type)).
				Msg("Dropping relay event for slow subscriber")
		}
	}
}
