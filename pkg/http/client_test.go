package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

func TestGetRawReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer t0ken" {
			t.Errorf("authorization header = %q", r.Header.Get("Authorization"))
		}
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("accept header = %q", r.Header.Get("Accept"))
		}
		if got := r.URL.Query().Get("period"); got != "Monthly" {
			t.Errorf("period = %q", got)
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient(WithTimeout(time.Second), WithHeader("Authorization", "Bearer t0ken"))
	body, err := c.GetRaw(context.Background(), &RequestOptions{
		URL:         srv.URL + "/stocks/by-period",
		QueryParams: url.Values{"period": {"Monthly"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != `{"ok":true}` {
		t.Fatalf("body = %s", body)
	}
}

func TestGetRawNon2xxIsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such ticker", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient().GetRaw(context.Background(), &RequestOptions{URL: srv.URL})
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.StatusCode != http.StatusNotFound || se.Body != "no such ticker\n" {
		t.Fatalf("got %+v", se)
	}
}

func TestGetRawRejectsOversizedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.URL.Query().Get("body")))
	}))
	defer srv.Close()

	c := NewClient(WithMaxBodySize(8))
	body, err := c.GetRaw(context.Background(), &RequestOptions{
		URL:         srv.URL,
		QueryParams: url.Values{"body": {`{"a":12}`}},
	})
	if err != nil || string(body) != `{"a":12}` {
		t.Fatalf("body at limit: %q %v", body, err)
	}

	_, err = c.GetRaw(context.Background(), &RequestOptions{
		URL:         srv.URL,
		QueryParams: url.Values{"body": {`{"a":123}`}},
	})
	if !errors.Is(err, ErrBodyTooLarge) {
		t.Fatalf("expected ErrBodyTooLarge, got %v", err)
	}
}

func TestGetRawHonoursContext(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := NewClient().GetRaw(ctx, &RequestOptions{URL: srv.URL}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}
