package catalog

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Store holds the current Repository and replaces it on reload. Readers
// always see one complete document.
type Store struct {
	src     Source
	log     *logrus.Logger
	hooks   []func(*Repository)
	onFail  []func(error)
	current atomic.Pointer[Repository]
	reload  sync.Mutex
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithStoreLogger sets the store logger
func WithStoreLogger(log *logrus.Logger) StoreOption {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// WithLoadHook registers fn to run after every successful load
func WithLoadHook(fn func(*Repository)) StoreOption {
	return func(s *Store) {
		s.hooks = append(s.hooks, fn)
	}
}

// WithFailureHook registers fn to run after every failed load
func WithFailureHook(fn func(error)) StoreOption {
	return func(s *Store) {
		s.onFail = append(s.onFail, fn)
	}
}

// NewStore loads src once. It fails when the first load fails.
func NewStore(ctx context.Context, src Source, opts ...StoreOption) (*Store, error) {
	s := &Store{
		src: src,
		log: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Current returns the repository in use
func (s *Store) Current() *Repository {
	return s.current.Load()
}

// Source returns the document source
func (s *Store) Source() Source {
	return s.src
}

// Reload builds a new repository from the source and swaps it in. On
// failure the previous repository stays in place.
func (s *Store) Reload(ctx context.Context) error {
	s.reload.Lock()
	defer s.reload.Unlock()

	repo, err := Load(ctx, s.src, s.log)
	if err != nil {
		for _, fn := range s.onFail {
			fn(err)
		}
		if s.current.Load() != nil {
			s.log.WithError(err).Warn("Catalog reload failed, keeping previous data")
		}
		return err
	}

	s.current.Store(repo)
	for _, fn := range s.hooks {
		fn(repo)
	}
	s.log.WithField("source", s.src.String()).Info("Catalog loaded")
	return nil
}

// FindUser looks the email up in the current repository
func (s *Store) FindUser(email string) (Record, Collection, bool) {
	return s.Current().FindUser(email)
}
