package cart

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/grocery-storefront/internal/domain"
	"github.com/spec-kit/grocery-storefront/internal/storefront/notify"
)

// syncState is guarded by Store.mu. At most one remote call is in flight;
// dirty coalesces any number of mutations into one push of the snapshot
// current when the push starts.
//
// Until the remote cart of the bound token has loaded, nothing is pushed:
// mutations are kept in replay and applied on top of the remote cart once
// it arrives. A failed load leaves stale set and the next mutation queues
// another load.
type syncState struct {
	dirty    bool
	load     bool
	loaded   bool
	stale    bool
	replay   []func(domain.CartSnapshot)
	busy     bool
	failures int
	warned   bool
	idle     chan struct{}
}

// resetLocked forgets all sync work for the previous token.
func (st *syncState) resetLocked(load bool) {
	st.dirty = false
	st.load = load
	st.loaded = false
	st.stale = false
	st.replay = nil
	st.failures = 0
	st.warned = false
}

// recordLocked notes a local mutation made while a token is bound.
func (st *syncState) recordLocked(apply func(domain.CartSnapshot)) {
	if st.loaded {
		st.dirty = true
		return
	}
	st.replay = append(st.replay, apply)
	if st.stale {
		st.stale = false
		st.load = true
	}
}

type syncTask struct {
	load       bool
	token      string
	generation uint64
	snapshot   domain.CartSnapshot
}

func (t syncTask) kind() string {
	if t.load {
		return "load"
	}
	return "push"
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

func (s *Store) markBusyLocked() {
	if !s.sync.busy {
		s.sync.busy = true
		s.sync.idle = make(chan struct{})
	}
}

func (s *Store) markIdleLocked() {
	if s.sync.busy {
		s.sync.busy = false
		close(s.sync.idle)
	}
}

func (s *Store) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Store) run() {
	defer func() {
		s.mu.Lock()
		s.markIdleLocked()
		s.mu.Unlock()
		close(s.stopped)
	}()

	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}

		for {
			task, ok := s.next()
			if !ok {
				break
			}
			s.execute(task)

			select {
			case <-s.done:
				return
			default:
			}
		}
	}
}

// next pops the pending work. A load wins over a push; a push is only
// queued once the remote cart has loaded.
func (s *Store) next() (syncTask, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.sync.load:
		s.sync.load = false
		return syncTask{load: true, token: s.token, generation: s.generation}, true
	case s.sync.dirty:
		s.sync.dirty = false
		return syncTask{token: s.token, generation: s.generation, snapshot: s.items.Clone()}, true
	}
	s.markIdleLocked()
	return syncTask{}, false
}

func (s *Store) execute(t syncTask) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	var (
		remote domain.CartSnapshot
		err    error
	)
	if t.load {
		remote, err = s.gateway.GetCart(ctx, t.token)
	} else {
		err = s.gateway.UpdateCart(ctx, t.token, t.snapshot)
	}

	s.mu.Lock()
	if t.generation != s.generation {
		s.mu.Unlock()
		s.logger.Debug("discarding cart sync result from previous session",
			zap.String("kind", t.kind()), zap.Uint64("generation", t.generation))
		return
	}

	if err != nil {
		if t.load {
			s.sync.stale = true
		}
		s.sync.failures++
		warn := s.failureThreshold > 0 && s.sync.failures >= s.failureThreshold && !s.sync.warned
		if warn {
			s.sync.warned = true
		}
		failures := s.sync.failures
		s.mu.Unlock()

		s.logger.Warn("cart sync failed",
			zap.String("kind", t.kind()),
			zap.Uint64("generation", t.generation),
			zap.Int("consecutive_failures", failures),
			zap.Error(err))
		if warn {
			notify.Warning(s.notifier, "Your cart changes could not be saved to your account.")
		}
		return
	}

	s.sync.failures = 0
	s.sync.warned = false
	if !t.load {
		s.mu.Unlock()
		return
	}
	items := remote.Clone()
	for _, apply := range s.sync.replay {
		apply(items)
	}
	s.items = items
	s.sync.dirty = len(s.sync.replay) > 0
	s.sync.replay = nil
	s.sync.loaded = true
	s.sync.stale = false
	c := s.changeLocked()
	s.mu.Unlock()
	s.publish(c)
}
