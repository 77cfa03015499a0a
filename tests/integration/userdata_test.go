//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/bissquit/fitgram/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgress(t *testing.T) {
	user := newTestClient(t).AsUser(signedInitData(newUserID()))

	for _, date := range []string{"2026-03-02", "2026-03-01", "2026-03-02"} {
		resp, err := user.PUT("/api/v1/me/progress/"+date, nil)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()
	}

	resp, err := user.DELETE("/api/v1/me/progress/2026-03-02")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = user.GET("/api/v1/me/progress")
	require.NoError(t, err)
	var progress struct {
		Data struct {
			CompletedDates []string `json:"completed_dates"`
		} `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &progress)
	assert.Equal(t, []string{"2026-03-01"}, progress.Data.CompletedDates)
}

func TestProfile(t *testing.T) {
	user := newTestClient(t).AsUser(signedInitData(newUserID()))

	resp, err := user.PUT("/api/v1/me/profile", map[string]string{
		"name":      "Ann",
		"birthdate": "1990-05-17",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = user.GET("/api/v1/me/profile")
	require.NoError(t, err)
	var profile struct {
		Data struct {
			Name      string `json:"name"`
			Birthdate string `json:"birthdate"`
		} `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &profile)
	assert.Equal(t, "Ann", profile.Data.Name)
	assert.Equal(t, "1990-05-17", profile.Data.Birthdate)
}

func TestMe_RequiresInitData(t *testing.T) {
	resp, err := newTestClient(t).GET("/api/v1/me/progress")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()
}
