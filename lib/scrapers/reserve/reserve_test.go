package reserve

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"campwatch/lib/telemetry"

	"github.com/stretchr/testify/require"
)

const pageWithSites = `<html>
<head><title>Campground Reservations</title></head>
<body>
	<form>
		<input id="arrival-date-field" />
		<input id="departure-date-field" />
	</form>
	<button id="list-view-button-button">List</button>
	<div class="results">
		<div class="site-row">Site A12 - Tent</div>
		<div class="site-row">Site B3 - RV</div>
	</div>
</body>
</html>`

const pageWithoutSites = `<html>
<head><title>Campground Reservations</title></head>
<body>
	<form>
		<input id="arrival-date-field" />
		<input id="departure-date-field" />
	</form>
	<div class="results">
		<h2>  No
	Available Sites</h2>
	</div>
</body>
</html>`

const pageNotReady = `<html>
<head><title>One moment...</title></head>
<body><div id="challenge">Checking your browser</div></body>
</html>`

func serve(t *testing.T, status int, body string) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			w.Write([]byte(body))
		},
	))
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t *testing.T, targetUrl string) *Client {
	client, err := NewClient(ClientOptions{
		TargetUrl: targetUrl,
		Timeout:   time.Second * 5,
	})
	require.NoError(t, err)
	return client
}

func TestCheckAvailabilitySitesFound(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:reserve")
	defer cleanup()

	server := serve(t, 200, pageWithSites)
	client := newTestClient(t, server.URL)

	result, err := client.CheckAvailability(context.Background())
	require.NoError(t, err)
	require.Equal(t, StatusSitesFound, result.Status)
	require.Equal(t, "Campground Reservations", result.PageTitle)
	require.False(t, result.CheckedAt.IsZero())
}

func TestCheckAvailabilityNoSites(t *testing.T) {
	server := serve(t, 200, pageWithoutSites)
	client := newTestClient(t, server.URL)

	result, err := client.CheckAvailability(context.Background())
	require.NoError(t, err)
	require.Equal(t, StatusNoSites, result.Status)
}

func TestCheckAvailabilityPageNotReady(t *testing.T) {
	server := serve(t, 200, pageNotReady)

	dumpDir := filepath.Join(t.TempDir(), "dumps")
	client, err := NewClient(ClientOptions{
		TargetUrl: server.URL,
		DumpDir:   dumpDir,
	})
	require.NoError(t, err)

	_, err = client.CheckAvailability(context.Background())
	require.ErrorIs(t, err, ErrPageNotReady)

	entries, err := os.ReadDir(dumpDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestCheckAvailabilityBadStatus(t *testing.T) {
	server := serve(t, 503, "upstream unavailable")
	client := newTestClient(t, server.URL)

	_, err := client.CheckAvailability(context.Background())
	require.Error(t, err)
}

func TestNewClientRejectsBadUrl(t *testing.T) {
	_, err := NewClient(ClientOptions{TargetUrl: "not a url"})
	require.Error(t, err)
}
