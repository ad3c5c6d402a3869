package cmd

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/Tiliavir/medrem/internal/store"
)

// closeCountingStore counts Close calls on a real JSON store.
type closeCountingStore struct {
	store.Store
	closed int
}

func (s *closeCountingStore) Close() error {
	s.closed++
	return s.Store.Close()
}

func TestServeUntilClosesStore(t *testing.T) {
	tests := []struct {
		name    string
		addr    string
		cancel  bool
		wantErr bool
	}{
		{"listen fails", "127.0.0.1:-1", false, true},
		{"context cancelled", "127.0.0.1:0", true, false},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &closeCountingStore{Store: store.NewJSONStore(filepath.Join(t.TempDir(), "medicine_data.json"))}
			srv := &http.Server{Addr: tt.addr, Handler: http.NotFoundHandler()}
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if tt.cancel {
				cancel()
			}

			err := serveUntil(ctx, srv, st, logger)
			if (err != nil) != tt.wantErr {
				t.Errorf("serveUntil() error = %v, wantErr %v", err, tt.wantErr)
			}
			if st.closed != 1 {
				t.Errorf("store closed %d times, want 1", st.closed)
			}
		})
	}
}
