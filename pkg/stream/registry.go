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

package stream

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/carverauto/camshim/pkg/logger"
	"github.com/carverauto/camshim/pkg/models"
)

// DefaultStartConcurrency bounds how many attempts StartAll runs at once.
const DefaultStartConcurrency = 16

// Registry maps stream names to their coordinators. It holds no stream state
// itself.
type Registry struct {
	logger      logger.Logger
	concurrency int

	mu      sync.RWMutex
	streams map[string]*Coordinator
}

// NewRegistry returns an empty registry. concurrency bounds StartAll and
// StopAll; values below one select DefaultStartConcurrency.
func NewRegistry(log logger.Logger, concurrency int) *Registry {
	if concurrency < 1 {
		concurrency = DefaultStartConcurrency
	}

	return &Registry{
		logger:      log,
		concurrency: concurrency,
		streams:     make(map[string]*Coordinator),
	}
}

// Register adds c under its name.
func (r *Registry) Register(c *Coordinator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.streams[c.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateStream, c.Name())
	}

	r.streams[c.Name()] = c

	return nil
}

// Deregister stops the named stream and removes it.
func (r *Registry) Deregister(ctx context.Context, name string) error {
	r.mu.Lock()
	c, ok := r.streams[name]
	delete(r.streams, name)
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrStreamNotFound, name)
	}

	_, err := c.Stop(ctx)

	return err
}

// Get returns the coordinator registered under name.
func (r *Registry) Get(name string) (*Coordinator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.streams[name]

	return c, ok
}

// Status returns the snapshot of one stream.
func (r *Registry) Status(name string) (models.StreamStatus, error) {
	c, ok := r.Get(name)
	if !ok {
		return models.StreamStatus{}, fmt.Errorf("%w: %s", ErrStreamNotFound, name)
	}

	return c.Status(), nil
}

func (r *Registry) Start(ctx context.Context, name string) (models.StartResult, error) {
	c, ok := r.Get(name)
	if !ok {
		return models.StartResult{}, fmt.Errorf("%w: %s", ErrStreamNotFound, name)
	}

	return c.Start(ctx)
}

func (r *Registry) Stop(ctx context.Context, name string) (models.StreamState, error) {
	c, ok := r.Get(name)
	if !ok {
		return models.StreamStopped, fmt.Errorf("%w: %s", ErrStreamNotFound, name)
	}

	return c.Stop(ctx)
}

// StartAll starts every registered stream concurrently and returns each
// stream's result. Failed attempts are joined into the error; one stream's
// failure does not cancel the others.
func (r *Registry) StartAll(ctx context.Context) (map[string]models.StartResult, error) {
	coordinators := r.list()

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)

	results := make(map[string]models.StartResult, len(coordinators))

	g.SetLimit(r.concurrency)

	for _, c := range coordinators {
		g.Go(func() error {
			res, err := c.Start(ctx)

			mu.Lock()
			defer mu.Unlock()

			results[c.Name()] = res

			if err != nil {
				errs = append(errs, err)
			}

			return nil
		})
	}

	_ = g.Wait()

	r.logger.Info().
		Int("streams", len(coordinators)).
		Int("failed", len(errs)).
		Msg("Started registered streams")

	return results, errors.Join(errs...)
}

// StopAll stops every registered stream.
func (r *Registry) StopAll(ctx context.Context) error {
	coordinators := r.list()

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)

	g.SetLimit(r.concurrency)

	for _, c := range coordinators {
		g.Go(func() error {
			if _, err := c.Stop(ctx); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("stream %s: %w", c.Name(), err))
				mu.Unlock()
			}

			return nil
		})
	}

	_ = g.Wait()

	return errors.Join(errs...)
}

// Snapshot returns the status of every stream ordered by name.
func (r *Registry) Snapshot() []models.StreamStatus {
	coordinators := r.list()
	out := make([]models.StreamStatus, 0, len(coordinators))

	for _, c := range coordinators {
		out = append(out, c.Status())
	}

	return out
}

func (r *Registry) list() []*Coordinator {
	r.mu.RLock()
	out := make([]*Coordinator, 0, len(r.streams))

	for _, c := range r.streams {
		out = append(out, c)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })

	return out
}
