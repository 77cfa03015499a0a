//go:build integration

package integration

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bissquit/fitgram/internal/pkg/initdata"
	"github.com/bissquit/fitgram/internal/testutil"
	"github.com/stretchr/testify/require"
)

var nextUserID atomic.Int64

func init() {
	nextUserID.Store(time.Now().UnixMilli() % 1_000_000_000)
}

// newUserID returns a Telegram user id not used by other tests.
func newUserID() int64 {
	return nextUserID.Add(1)
}

// signedInitData returns init data for userID signed with the test bot token.
func signedInitData(userID int64) string {
	return signedInitDataWith(userID, testBotToken)
}

func signedInitDataWith(userID int64, botToken string) string {
	values := url.Values{}
	values.Set("user", `{"id":`+strconv.FormatInt(userID, 10)+`,"first_name":"Test","username":"u`+strconv.FormatInt(userID, 10)+`"}`)
	values.Set("auth_date", strconv.FormatInt(time.Now().Unix(), 10))
	return initdata.Sign(values, botToken)
}

// addEditor puts userID on the allow-list.
func addEditor(t *testing.T, userID int64) {
	t.Helper()
	_, err := testDB.Exec(context.Background(),
		`INSERT INTO editors (tg_user_id, note) VALUES ($1, 'integration test')`, userID)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = testDB.Exec(context.Background(), `DELETE FROM editors WHERE tg_user_id = $1`, userID)
	})
}

// editorClient returns a client authenticated as a fresh allow-listed editor.
func editorClient(t *testing.T) *testutil.Client {
	t.Helper()
	userID := newUserID()
	addEditor(t, userID)

	client := newTestClient(t)
	resp, err := client.POST("/api/v1/auth/verify-editor", map[string]string{
		"initDataRaw": signedInitData(userID),
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		IsEditor bool   `json:"is_editor"`
		Token    string `json:"token"`
	}
	testutil.DecodeJSON(t, resp, &result)
	require.True(t, result.IsEditor)
	require.NotEmpty(t, result.Token)

	return client.AsEditor(result.Token)
}

// createProgram creates a program and deletes it when the test ends.
func createProgram(t *testing.T, client *testutil.Client, published bool) (id, slug string) {
	t.Helper()
	slug = testutil.RandomSlug("program")

	resp, err := client.POST("/api/v1/admin/programs", map[string]interface{}{
		"slug":         slug,
		"title":        "Program " + slug,
		"is_published": published,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)

	t.Cleanup(func() {
		_, _ = testDB.Exec(context.Background(), `DELETE FROM programs WHERE id = $1`, result.Data.ID)
	})
	return result.Data.ID, slug
}

// addDay adds a day with an optional explicit index and returns its id and index.
func addDay(t *testing.T, client *testutil.Client, programID string, dayIndex int) (string, int) {
	t.Helper()
	body := map[string]interface{}{"title": "Day"}
	if dayIndex > 0 {
		body["day_index"] = dayIndex
	}

	resp, err := client.POST("/api/v1/admin/programs/"+programID+"/days", body)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result struct {
		Data struct {
			ID       string `json:"id"`
			DayIndex int    `json:"day_index"`
		} `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)
	return result.Data.ID, result.Data.DayIndex
}
