package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ripple-go/ripple/pkg/reactive"
)

type quote struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

func TestHTTPJSONDecodesResponse(t *testing.T) {
	var sawAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"symbol":"RPL","price":19.5}`))
	}))
	defer srv.Close()

	fetch := HTTPJSON[quote](nil, srv.URL)
	got, err := fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected fetch error: %v", err)
	}
	if got.Symbol != "RPL" || got.Price != 19.5 {
		t.Fatalf("expected decoded quote, got %+v", got)
	}
	if sawAccept != "application/json" {
		t.Fatalf("expected Accept: application/json header, got %q", sawAccept)
	}
}

func TestHTTPJSONStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	fetch := HTTPJSON[quote](nil, srv.URL)
	_, err := fetch(context.Background())
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	if !strings.Contains(err.Error(), "unexpected status") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestHTTPJSONDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	}))
	defer srv.Close()

	fetch := HTTPJSON[quote](nil, srv.URL)
	_, err := fetch(context.Background())
	if err == nil {
		t.Fatal("expected decode error")
	}
	if !strings.Contains(err.Error(), "decode") {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestHTTPJSONHonorsContext(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	fetch := HTTPJSON[quote](nil, srv.URL)
	_, err := fetch(ctx)
	if err == nil {
		t.Fatal("expected error when context expires")
	}
}

func TestHTTPBytesReadsRaw(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("raw payload"))
	}))
	defer srv.Close()

	fetch := HTTPBytes(nil, srv.URL)
	got, err := fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected fetch error: %v", err)
	}
	if string(got) != "raw payload" {
		t.Fatalf("expected raw payload, got %q", got)
	}
}

func TestHTTPJSONFeedsTask(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"symbol":"RPL","price":20.25}`))
	}))
	defer srv.Close()

	rt := reactive.NewRuntime()
	rt.Run(func() {
		scope := reactive.NewScope()
		defer scope.Dispose()

		scope.Run(func() {
			quotes := reactive.NewTask(HTTPJSON[quote](nil, srv.URL))

			waitSettled(t, quotes.Pending, quotes.Generation)
			if got := quotes.Peek(); got.Price != 20.25 {
				t.Fatalf("expected task to hold fetched quote, got %+v", got)
			}
		})
	})
}
