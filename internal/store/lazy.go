package store

import (
	"context"
	"sync"

	"github.com/MikeSquared-Agency/estimator/internal/fault"
)

// Lazy opens the Store on first use and shares it afterwards. A failed
// open is not cached, so the next call retries.
type Lazy struct {
	url  string
	open func(ctx context.Context, url string) (*Store, error)

	mu    sync.Mutex
	store *Store
}

func NewLazy(databaseURL string) *Lazy {
	return &Lazy{url: databaseURL, open: New}
}

// Open returns the shared Store, connecting if needed.
func (l *Lazy) Open(ctx context.Context) (*Store, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.store != nil {
		return l.store, nil
	}
	if l.url == "" {
		return nil, fault.New(fault.KindConfiguration, "store.open", "Record store is not configured").
			WithHint("set DATABASE_URL")
	}

	s, err := l.open(ctx, l.url)
	if err != nil {
		return nil, fault.Wrap(fault.KindUpstream, "store.open", err, "Could not connect to the record store")
	}
	l.store = s
	return s, nil
}

// Ping connects if needed and checks the database is reachable.
func (l *Lazy) Ping(ctx context.Context) error {
	s, err := l.Open(ctx)
	if err != nil {
		return err
	}
	return s.Ping(ctx)
}

// Configured reports whether a database URL was provided.
func (l *Lazy) Configured() bool { return l.url != "" }

func (l *Lazy) List(ctx context.Context, opts ListOptions) ([]Estimation, error) {
	s, err := l.Open(ctx)
	if err != nil {
		return nil, err
	}
	return s.List(ctx, opts)
}

func (l *Lazy) Get(ctx context.Context, id string) (*Estimation, error) {
	s, err := l.Open(ctx)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (l *Lazy) Create(ctx context.Context, in NewEstimation) (*Estimation, error) {
	s, err := l.Open(ctx)
	if err != nil {
		return nil, err
	}
	return s.Create(ctx, in)
}

func (l *Lazy) Update(ctx context.Context, id string, patch Patch) (*Estimation, error) {
	s, err := l.Open(ctx)
	if err != nil {
		return nil, err
	}
	return s.Update(ctx, id, patch)
}

func (l *Lazy) Delete(ctx context.Context, id string) error {
	s, err := l.Open(ctx)
	if err != nil {
		return err
	}
	return s.Delete(ctx, id)
}

// Close releases the pool if one was opened.
func (l *Lazy) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.store != nil {
		l.store.Close()
		l.store = nil
	}
}

func (l *Lazy) FindBySlackLink(ctx context.Context, link string) (*Estimation, error) {
	s, err := l.Open(ctx)
	if err != nil {
		return nil, err
	}
	return s.FindBySlackLink(ctx, link)
}
