package insights

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Droze-svj/click-platform-sub013/scheduling/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/audience/u1/instagram/peaks", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"peaks":[{"hour":9,"share":40},{"hour":27,"share":5}]}`))
	})
	mux.HandleFunc("/v1/performance/u1/instagram/best-hours", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"hours":[18,-1,9]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Providers(t *testing.T) {
	srv := newServer(t)
	client := NewClient(Config{BaseURL: srv.URL + "/", Token: "tok"})

	peaks, err := client.PeakHours(context.Background(), "u1", "instagram")
	require.NoError(t, err)
	assert.Equal(t, []domain.PeakHour{{Hour: 9, Share: 40}}, peaks)

	hours, err := client.BestHours(context.Background(), "u1", "instagram")
	require.NoError(t, err)
	assert.Equal(t, []int{18, 9}, hours)
}

func TestClient_Errors(t *testing.T) {
	srv := newServer(t)

	_, err := NewClient(Config{BaseURL: srv.URL}).PeakHours(context.Background(), "u1", "instagram")
	assert.ErrorContains(t, err, "unexpected status 401")

	_, err = NewClient(Config{BaseURL: srv.URL, Token: "tok"}).BestHours(context.Background(), "u2", "instagram")
	assert.ErrorContains(t, err, "unexpected status 404")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewClient(Config{BaseURL: srv.URL}).BestHours(ctx, "u1", "instagram")
	assert.ErrorIs(t, err, context.Canceled)
}
