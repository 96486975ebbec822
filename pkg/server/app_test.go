package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"DivDash/internal/service/ratelimit"
	"DivDash/pkg/config"
	xhttp "DivDash/pkg/http"
	applogger "DivDash/pkg/logger"
	"DivDash/pkg/query"
	"DivDash/pkg/schema"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Query.GCSchedule = "@every 1m"
	return cfg
}

func TestNewRejectsBadSchedule(t *testing.T) {
	cfg := testConfig(t)
	cfg.Query.GCSchedule = "every now and then"

	store := query.NewStore()
	defer store.Close()
	if _, err := New(cfg, applogger.Nop(), store, nil, xhttp.NewServer(nil)); err == nil {
		t.Fatal("expected schedule error")
	}
}

func TestRunContextShutsDownStore(t *testing.T) {
	store := query.NewStore()
	srv := xhttp.NewServer(nil, xhttp.WithHost("127.0.0.1"), xhttp.WithPort(0))
	app, err := New(testConfig(t), applogger.Nop(), store, nil, srv)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := app.RunContext(ctx); err != nil {
		t.Fatal(err)
	}

	_, err = query.Use(store, query.Spec[struct{}]{
		Key:    query.Key{"overview"},
		Fetch:  func(context.Context) ([]byte, error) { return []byte(`{}`), nil },
		Schema: schema.Object("empty"),
	})
	if !errors.Is(err, query.ErrStoreClosed) {
		t.Fatalf("expected closed store, got %v", err)
	}
}

func TestCollectEvictsUnusedEntriesAndBuckets(t *testing.T) {
	store := query.NewStore(query.WithGCTime(0))
	defer store.Close()

	limiter := ratelimit.New(1, 1e6)
	limiter.Allow("127.0.0.1")
	cfg := testConfig(t)
	cfg.Refetch.IdleAfter = time.Nanosecond

	app, err := New(cfg, applogger.Nop(), store, limiter, xhttp.NewServer(nil))
	if err != nil {
		t.Fatal(err)
	}
	_, err = query.Get(context.Background(), store, query.Spec[struct{}]{
		Key:    query.Key{"overview"},
		Fetch:  func(context.Context) ([]byte, error) { return []byte(`{}`), nil },
		Schema: schema.Object("empty"),
	})
	if err != nil {
		t.Fatal(err)
	}

	time.Sleep(time.Millisecond)
	app.collect()
	if n := store.Len(); n != 0 {
		t.Fatalf("%d entries left after sweep", n)
	}
	if n := limiter.Len(); n != 0 {
		t.Fatalf("%d refetch buckets left after sweep", n)
	}
}
