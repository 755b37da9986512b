package service

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"connectrpc.com/connect"

	"github.com/mmynk/tabsplit/internal/locker"
	"github.com/mmynk/tabsplit/internal/metrics"
	"github.com/mmynk/tabsplit/internal/middleware"
	"github.com/mmynk/tabsplit/internal/receipt"
	"github.com/mmynk/tabsplit/internal/storage/sqlite"
	"github.com/mmynk/tabsplit/pkg/api"
)

const testUserHeader = "X-Test-User"

// testAuthInterceptor runs each call as the user named in X-Test-User, or Alice.
func testAuthInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			user := req.Header().Get(testUserHeader)
			if user == "" {
				user = "Alice"
			}
			return next(middleware.WithUser(ctx, user, ""), req)
		}
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// setupTestServer serves SessionService and ReceiptService over a temp-file SQLite database.
func setupTestServer(t *testing.T, extractor receipt.Extractor) (*api.SessionServiceClient, *api.ReceiptServiceClient) {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	m := metrics.New()
	logger := discardLogger()

	interceptors := connect.WithInterceptors(testAuthInterceptor())
	sessionPath, sessionHandler := api.NewSessionServiceHandler(
		NewSessionService(store, locker.NewLocal(), m, logger), interceptors)
	receiptPath, receiptHandler := api.NewReceiptServiceHandler(
		NewReceiptService(extractor, 0, m, logger), interceptors)

	mux := http.NewServeMux()
	mux.Handle(sessionPath, sessionHandler)
	mux.Handle(receiptPath, receiptHandler)

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		store.Close()
	})

	return api.NewSessionServiceClient(http.DefaultClient, server.URL),
		api.NewReceiptServiceClient(http.DefaultClient, server.URL)
}

func requireCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	if got := connect.CodeOf(err); got != want {
		t.Fatalf("expected code %v, got %v (%v)", want, got, err)
	}
}
