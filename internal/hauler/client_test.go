package hauler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curbcycle/curbcycle/internal/hauler"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/holiday-schedule/get-region", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("zipCode") {
		case "45202":
			_, _ = w.Write([]byte(`{"region":"Cincinnati"}`))
		case "12345":
			_, _ = w.Write([]byte(`{"region":"Atlantis"}`))
		default:
			_, _ = w.Write([]byte(`{"region":""}`))
		}
	})
	mux.HandleFunc("/schedule/wci", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "45202", r.URL.Query().Get("zip"))
		_, _ = w.Write([]byte("<html>holiday schedule</html>"))
	})
	mux.HandleFunc("/service-alerts", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>service alerts</html>"))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestClient(server *httptest.Server) *hauler.Client {
	return hauler.NewClient(hauler.ClientConfig{
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
	})
}

func TestClient_Region(t *testing.T) {
	client := newTestClient(newTestServer(t))

	region, err := client.Region(context.Background(), "45202")
	require.NoError(t, err)
	assert.Equal(t, "Cincinnati", region)
}

func TestClient_RegionUnknownZip(t *testing.T) {
	client := newTestClient(newTestServer(t))

	_, err := client.Region(context.Background(), "00000")
	assert.ErrorIs(t, err, hauler.ErrUnknownRegion)
}

func TestClient_HolidaySchedule(t *testing.T) {
	client := newTestClient(newTestServer(t))

	body, err := client.HolidaySchedule(context.Background(), "45202")
	require.NoError(t, err)
	assert.Contains(t, string(body), "holiday schedule")
}

func TestClient_HolidayScheduleRegionWithoutPage(t *testing.T) {
	client := newTestClient(newTestServer(t))

	// The region resolves but has no known schedule page.
	_, err := client.HolidaySchedule(context.Background(), "12345")
	assert.ErrorIs(t, err, hauler.ErrUnknownRegion)
}

func TestClient_ServiceAlerts(t *testing.T) {
	client := newTestClient(newTestServer(t))

	body, err := client.ServiceAlerts(context.Background())
	require.NoError(t, err)
	assert.Contains(t, string(body), "service alerts")
}

func TestClient_Non200Status(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := hauler.NewClient(hauler.ClientConfig{
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
	})

	_, err := client.ServiceAlerts(context.Background())
	assert.Error(t, err)
}
