package commands

import (
	"testing"

	"campwatch/lib/checkstore"
	"campwatch/lib/scrapers/reserve"
	"campwatch/services/watcher"

	"github.com/stretchr/testify/require"
)

func TestCheckVerdict(t *testing.T) {
	target := "https://example.com/camp"

	message, code := checkVerdict(checkstore.CheckRecord{
		Status: string(reserve.StatusSitesFound),
	}, target)
	require.Equal(t, 0, code)
	require.Contains(t, message, "SITES FOUND!")
	require.Contains(t, message, target)

	message, code = checkVerdict(checkstore.CheckRecord{
		Status: string(reserve.StatusNoSites),
	}, target)
	require.Equal(t, 0, code)
	require.Equal(t, "No sites available.", message)

	message, code = checkVerdict(checkstore.CheckRecord{
		Status: watcher.StatusFailure,
		Detail: "connection refused",
	}, target)
	require.Equal(t, 1, code)
	require.Equal(t, "Check failed: connection refused", message)
}
