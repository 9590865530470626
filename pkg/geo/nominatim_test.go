package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantLat float64
		wantLon float64
		wantErr error
	}{
		{
			name: "first result wins",
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "paris", r.URL.Query().Get("q"))
				assert.Equal(t, "1", r.URL.Query().Get("limit"))
				w.Write([]byte(`[{"lat":"48.85","lon":"2.35"},{"lat":"33.66","lon":"-95.55"}]`))
			},
			wantLat: 48.85,
			wantLon: 2.35,
		},
		{
			name: "no results",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`[]`))
			},
			wantErr: ErrLocationNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			client := NewClient(srv.URL)
			lat, lon, err := client.Resolve(context.Background(), "paris")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLat, lat)
			assert.Equal(t, tt.wantLon, lon)
		})
	}
}

func TestResolveUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, _, err := client.Resolve(context.Background(), "paris")
	assert.Error(t, err)
}

func TestResolveSendsUserAgent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Write([]byte(`[{"lat":"1","lon":"2"}]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, _, err := client.Resolve(context.Background(), "paris")
	assert.NoError(t, err)
}
