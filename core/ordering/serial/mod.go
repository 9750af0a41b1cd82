// Package serial implements an ordering service for a single node.
//
// The transactions are applied one after the other, each one in its own
// storage transaction. A transaction that aborts or that is not accepted by
// the execution leaves no write behind.
package serial

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.missionstake.io/stake"
	"go.missionstake.io/stake/core/execution"
	"go.missionstake.io/stake/core/ordering"
	"go.missionstake.io/stake/core/store"
	"go.missionstake.io/stake/core/txn"
	"golang.org/x/xerrors"
)

const watchBuffer = 100

var errRejected = xerrors.New("rejected")

var txCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "stake_ordering_transactions_total",
	Help: "number of transactions processed by outcome",
}, []string{"outcome"})

func init() {
	stake.PromCollectors = append(stake.PromCollectors, txCounter)
}

// Option is the type of option to set some fields of the service.
type Option func(*Service)

// WithClock sets the clock giving the ledger time of the transactions.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

// Service is an ordering service that applies the transactions in the order
// they are submitted.
//
// - implements ordering.Service
type Service struct {
	sync.Mutex

	backend  Backend
	exec     execution.Service
	clock    func() time.Time
	index    uint64
	watchers map[chan ordering.Event]struct{}
	closed   bool
}

// NewService creates a new service that executes the transactions with the
// execution service and stores the state in the backend.
func NewService(backend Backend, exec execution.Service, opts ...Option) *Service {
	s := &Service{
		backend:  backend,
		exec:     exec,
		clock:    time.Now,
		watchers: make(map[chan ordering.Event]struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Execute implements ordering.Service. The ledger time of the transaction is
// read from the clock once it is its turn.
func (s *Service) Execute(ctx context.Context, tx txn.Transaction) (execution.Result, error) {
	s.Lock()
	defer s.Unlock()

	if s.closed {
		return execution.Result{}, xerrors.New("service is closed")
	}

	err := ctx.Err()
	if err != nil {
		return execution.Result{}, xerrors.Errorf("context done: %w", err)
	}

	step := execution.Step{
		Current:   tx,
		Timestamp: s.clock().UTC(),
	}

	var res execution.Result

	err = s.backend.Update(func(snap store.Snapshot) error {
		r, err := s.exec.Execute(snap, step)
		res = r
		if err != nil {
			return err
		}

		if !res.Accepted {
			return errRejected
		}

		return nil
	})

	switch {
	case err == nil:
		txCounter.WithLabelValues("accepted").Inc()
	case xerrors.Is(err, errRejected):
		txCounter.WithLabelValues("rejected").Inc()
	default:
		txCounter.WithLabelValues("aborted").Inc()

		stake.Logger.Debug().Err(err).Hex("tx", tx.GetID()).Msg("transaction aborted")

		return res, xerrors.Errorf("transaction aborted: %w", err)
	}

	s.index++

	stake.Logger.Debug().
		Uint64("index", s.index).
		Hex("tx", tx.GetID()).
		Bool("accepted", res.Accepted).
		Str("message", res.Message).
		Msg("transaction applied")

	s.notify(ordering.Event{Index: s.index, TxID: tx.GetID(), Result: res})

	return res, nil
}

// View implements ordering.Service.
func (s *Service) View(fn func(store.Snapshot) error) error {
	err := s.backend.View(fn)
	if err != nil {
		return xerrors.Errorf("failed to view: %v", err)
	}

	return nil
}

// Watch implements ordering.Service.
func (s *Service) Watch(ctx context.Context) <-chan ordering.Event {
	ch := make(chan ordering.Event, watchBuffer)

	s.Lock()
	if s.closed {
		close(ch)
		s.Unlock()

		return ch
	}

	s.watchers[ch] = struct{}{}
	s.Unlock()

	go func() {
		<-ctx.Done()

		s.Lock()
		defer s.Unlock()

		_, found := s.watchers[ch]
		if found {
			delete(s.watchers, ch)
			close(ch)
		}
	}()

	return ch
}

// Close implements ordering.Service. It closes the watchers and the backend.
func (s *Service) Close() error {
	s.Lock()
	defer s.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true

	for ch := range s.watchers {
		delete(s.watchers, ch)
		close(ch)
	}

	err := s.backend.Close()
	if err != nil {
		return xerrors.Errorf("failed to close backend: %v", err)
	}

	return nil
}

func (s *Service) notify(evt ordering.Event) {
	for ch := range s.watchers {
		select {
		case ch <- evt:
		default:
			stake.Logger.Warn().Uint64("index", evt.Index).Msg("watcher is full, event dropped")
		}
	}
}
