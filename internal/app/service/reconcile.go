package service

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/sifan077/PowerLink/internal/app/model"
	metrics "github.com/sifan077/PowerLink/internal/infra/prometheus"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// OrderChange is one order correction issued after a reorder.
type OrderChange struct {
	LinkID int64 `json:"link_id"`
	From   int   `json:"from"`
	To     int   `json:"to"`
}

// Reconciliation tracks the order updates issued for one reorder.
type Reconciliation struct {
	Changes []OrderChange

	done chan struct{}
	err  error
}

func newReconciliation(changes []OrderChange) *Reconciliation {
	return &Reconciliation{Changes: changes, done: make(chan struct{})}
}

// Pending returns the number of order updates that were issued.
func (r *Reconciliation) Pending() int {
	return len(r.Changes)
}

// Done is closed once every order update has completed.
func (r *Reconciliation) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until every order update has completed or ctx ends. The returned error
// aggregates one *PersistenceError per failed update.
func (r *Reconciliation) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return r.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reorder moves the link at from to position to and shows the new order right away.
// The order corrections are sent in the background; their failures are reported as
// warnings and never roll the local order back. A move that would shift a record with
// an update or delete in flight is refused with ErrRecordBusy.
func (m *LinkManager) Reorder(ctx context.Context, from, to int) (*Reconciliation, error) {
	m.mu.Lock()
	n := len(m.links)
	if from < 0 || from >= n || to < 0 || to >= n {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: from=%d to=%d len=%d", ErrInvalidIndex, from, to, n)
	}
	if from == to {
		m.mu.Unlock()
		return m.dispatch(ctx, nil), nil
	}
	moved := moveLink(m.links, from, to)
	for i := range moved {
		if _, pending := m.pending[moved[i].ID]; pending && moved[i].Order != i {
			m.mu.Unlock()
			return nil, fmt.Errorf("%w: link %d", ErrRecordBusy, moved[i].ID)
		}
	}
	m.links = moved
	changes := m.reconcileLocked()
	m.mu.Unlock()

	return m.dispatch(ctx, changes), nil
}

// reconcileLocked aligns every record's order with its index and returns the
// corrections to persist. Must be called with mu held.
func (m *LinkManager) reconcileLocked() []OrderChange {
	var changes []OrderChange
	for i := range m.links {
		if m.links[i].Order == i {
			continue
		}
		changes = append(changes, OrderChange{
			LinkID: m.links[i].ID,
			From:   m.links[i].Order,
			To:     i,
		})
		m.links[i].Order = i
		m.reordering[m.links[i].ID]++
	}
	return changes
}

// dispatch sends one update per change. Requests outlive the caller's context and are
// bounded by the gateway's own timeout.
func (m *LinkManager) dispatch(ctx context.Context, changes []OrderChange) *Reconciliation {
	rec := newReconciliation(changes)
	if len(changes) == 0 {
		close(rec.done)
		return rec
	}

	bg := context.WithoutCancel(ctx)
	go func() {
		defer close(rec.done)

		var (
			g    errgroup.Group
			mu   sync.Mutex
			errs error
		)
		g.SetLimit(m.concurrency)
		for _, change := range changes {
			g.Go(func() error {
				if err := m.persistOrder(bg, change); err != nil {
					mu.Lock()
					errs = multierr.Append(errs, err)
					mu.Unlock()
				}
				return nil
			})
		}
		_ = g.Wait()
		rec.err = errs
	}()

	return rec
}

func (m *LinkManager) persistOrder(ctx context.Context, change OrderChange) error {
	order := change.To
	_, err := m.gateway.UpdateLink(ctx, change.LinkID, model.LinkPatch{Order: &order})

	m.mu.Lock()
	if m.reordering[change.LinkID] <= 1 {
		delete(m.reordering, change.LinkID)
	} else {
		m.reordering[change.LinkID]--
	}
	m.mu.Unlock()

	metrics.ReconcileUpdates.WithLabelValues(metrics.Outcome(err)).Inc()
	if err == nil {
		return nil
	}

	perr := &PersistenceError{Op: OpReorder, LinkID: change.LinkID, Err: err}
	m.logger.Warn("order update failed, local order kept",
		zap.Int64("link_id", change.LinkID),
		zap.Int("order", order),
		zap.Error(err),
	)
	m.notify(ctx, model.NotificationWarning, perr)
	return perr
}

// moveLink returns a new slice with the element at from moved to index to.
func moveLink(links []model.Link, from, to int) []model.Link {
	item := links[from]
	out := make([]model.Link, 0, len(links))
	out = append(out, links[:from]...)
	out = append(out, links[from+1:]...)
	return slices.Insert(out, to, item)
}
