package axisplot

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const DefaultHistorySize = 32

// DefaultWatchBufferSize is the Watch buffer used by the render broadcaster.
// Only the newest revision matters to it, so it does not grow with history.
const DefaultWatchBufferSize = 4

// Revision is one configuration accepted by the ConfigStore. Numbers start at
// 1 for the initial configuration and increase by one per replacement.
type Revision struct {
	Number uint64      `json:"revision"`
	Config ChartConfig `json:"config"`
	At     time.Time   `json:"at"`
}

// ConfigStore owns the current ChartConfig. It is the only place where the
// current configuration changes, one Replace at a time.
type ConfigStore struct {
	mutex sync.Mutex

	current     Revision
	history     *ThreadUnsafeRing[Revision]
	subscribers []func(Revision)

	now    func() time.Time
	logger logrus.FieldLogger
}

// NewConfigStore starts a store at revision 1. initial must be valid.
func NewConfigStore(initial ChartConfig, historySize int) (*ConfigStore, error) {
	if err := initial.Validate(); err != nil {
		return nil, fmt.Errorf("invalid initial config: %w", err)
	}

	s := &ConfigStore{
		history: NewRing[Revision](Max(historySize, 1)),
		now:     time.Now,
		logger:  logrus.WithField("tag", "ConfigStore"),
	}

	s.current = Revision{Number: 1, Config: initial.clone(), At: s.now()}
	s.history.Push(s.current)

	return s, nil
}

func (s *ConfigStore) Current() Revision {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	current := s.current
	current.Config = current.Config.clone()
	return current
}

// History returns the most recent revisions, oldest first. The current
// revision is always the last element.
func (s *ConfigStore) History() []Revision {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.history.ReadAllOrdered()
}

// Subscribe registers fn to be called with every new revision, in order. fn
// runs while the store is locked and must not call back into the store.
func (s *ConfigStore) Subscribe(fn func(Revision)) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.subscribers = append(s.subscribers, fn)
}

// Watch returns a channel that receives the current revision followed by every
// later one. Replace never waits for the receiver: when the channel is full
// the oldest queued revision is dropped, so the newest revision is always the
// last one delivered.
func (s *ConfigStore) Watch(bufferSize int) <-chan Revision {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	c := make(chan Revision, Max(bufferSize, 1))
	c <- s.current
	s.subscribers = append(s.subscribers, func(revision Revision) {
		if dropped := SendLatest(c, revision); dropped > 0 {
			s.logger.WithFields(logrus.Fields{
				"revision": revision.Number,
				"dropped":  dropped,
			}).Warn("watcher is behind, dropped stale revisions")
		}
	})
	return c
}

// Replace makes newConfig the current configuration if it is valid.
func (s *ConfigStore) Replace(newConfig ChartConfig) (Revision, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.replaceLocked(newConfig)
}

// Apply runs mutation against the current configuration and replaces it with
// the result, atomically with respect to other edits.
func (s *ConfigStore) Apply(mutation func(ChartConfig) ChartConfig) (Revision, error) {
	return s.Edit(func(config ChartConfig) (ChartConfig, error) {
		return mutation(config), nil
	})
}

// Edit is Apply for mutations that can refuse to run, for example because the
// entity they target is gone. Lookups made inside edit see the same
// configuration the result replaces. When edit returns an error the store is
// left unchanged and the current revision is returned with that error.
func (s *ConfigStore) Edit(edit func(ChartConfig) (ChartConfig, error)) (Revision, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	newConfig, err := edit(s.current.Config)
	if err != nil {
		s.logger.WithError(err).WithField("revision", s.current.Number).Info("edit refused")
		return s.current, err
	}

	return s.replaceLocked(newConfig)
}

func (s *ConfigStore) replaceLocked(newConfig ChartConfig) (Revision, error) {
	if err := newConfig.Validate(); err != nil {
		s.logger.WithError(err).WithField("revision", s.current.Number).Warn("rejected config")
		return s.current, err
	}

	s.current = Revision{
		Number: s.current.Number + 1,
		Config: newConfig.clone(),
		At:     s.now(),
	}
	s.history.Push(s.current)

	s.logger.WithFields(logrus.Fields{
		"revision": s.current.Number,
		"axes":     len(newConfig.Axes),
		"series":   len(newConfig.Series),
	}).Info("config replaced")

	for _, fn := range s.subscribers {
		fn(s.current)
	}

	return s.current, nil
}
