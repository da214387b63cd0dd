// Package bootstrap turns a sandbox link into a ready dashboard.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/uncase/dashboard/internal/api"
	"github.com/uncase/dashboard/internal/models"
	"github.com/uncase/dashboard/internal/snapshot"
)

const (
	DefaultSeedFetchTimeout = 10 * time.Second
	DefaultErrorDelay       = 1500 * time.Millisecond
)

var ErrAlreadyRan = errors.New("bootstrap already ran")

type Status string

const (
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

// Navigator moves the user to the given path once bootstrap is done.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a plain function to Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

type Activator interface {
	Activate(ctx context.Context) error
}

type SessionStore interface {
	Set(ctx context.Context, session models.SandboxSession) error
}

type Options struct {
	Store        *snapshot.Store
	Demo         Activator
	Sessions     SessionStore
	Navigator    Navigator
	DashboardURL string

	// optional
	HTTPClient   *http.Client
	FetchTimeout time.Duration
	ErrorDelay   time.Duration
	OnStatus     func(Status, error)
	Logger       *log.Logger
}

// Result describes what the run did.
type Result struct {
	Status      Status
	SeedsLoaded int
	FetchErr    error
	Err         error
}

// Flow is single-use; only the first Run does anything.
type Flow struct {
	opts Options
	ran  atomic.Bool
	now  func() time.Time
}

func New(opts Options) *Flow {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultSeedFetchTimeout
	}
	if opts.ErrorDelay <= 0 {
		opts.ErrorDelay = DefaultErrorDelay
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.DashboardURL == "" {
		opts.DashboardURL = "/dashboard"
	}
	return &Flow{opts: opts, now: time.Now}
}

// Run always ends with navigation to the dashboard, including after a failure.
func (f *Flow) Run(ctx context.Context, p Params) (res Result) {
	if !f.ran.CompareAndSwap(false, true) {
		return Result{Err: ErrAlreadyRan}
	}

	f.report(StatusLoading, nil)

	err := f.populate(ctx, p, &res)
	if err != nil {
		res.Status = StatusError
		res.Err = err
		f.opts.Logger.Printf("bootstrap: %v", err)
		f.report(StatusError, err)
		f.wait(ctx, f.opts.ErrorDelay)
	} else {
		res.Status = StatusReady
		f.report(StatusReady, nil)
	}

	f.opts.Navigator.Navigate(f.opts.DashboardURL)
	return res
}

// populate runs the data steps, converting panics into errors.
func (f *Flow) populate(ctx context.Context, p Params, res *Result) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	if err := f.opts.Demo.Activate(ctx); err != nil {
		return fmt.Errorf("failed to activate demo: %w", err)
	}

	if p.Fallback || p.APIURL == "" {
		return nil
	}

	if err := f.opts.Sessions.Set(ctx, p.Session(f.now())); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	seeds, err := f.fetchSeeds(ctx, p.APIURL)
	if err != nil {
		// live seeds are optional; the demo set stays in place
		res.FetchErr = err
		f.opts.Logger.Printf("bootstrap: seed fetch from %s failed: %v", p.APIURL, err)
		return nil
	}

	if err := f.opts.Store.Write(ctx, snapshot.KeySeeds, seeds); err != nil {
		return fmt.Errorf("failed to store seeds: %w", err)
	}
	res.SeedsLoaded = len(seeds)
	return nil
}

func (f *Flow) fetchSeeds(ctx context.Context, apiURL string) ([]models.Seed, error) {
	ctx, cancel := context.WithTimeout(ctx, f.opts.FetchTimeout)
	defer cancel()

	client := api.New(apiURL, api.WithHTTPClient(f.opts.HTTPClient))
	seeds, err := client.ListSeeds(ctx, api.SeedFilter{})
	if err != nil {
		return nil, err
	}
	if seeds == nil {
		seeds = []models.Seed{}
	}
	return seeds, nil
}

func (f *Flow) report(s Status, err error) {
	if f.opts.OnStatus != nil {
		f.opts.OnStatus(s, err)
	}
}

func (f *Flow) wait(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
