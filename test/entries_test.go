//go:build integration_test || all_tests

package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/trackfit/internal/workouts"
	"github.com/2beens/trackfit/internal/workouts/entries"
	"github.com/2beens/trackfit/internal/workouts/stats"
)

func (s *IntegrationTestSuite) doRequest(ctx context.Context, method, path, token string, body any) (int, []byte) {
	t := s.T()

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, serverEndpoint+path, reqBody)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, respBytes
}

func (s *IntegrationTestSuite) TestEntriesAndStats() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t := s.T()
	token := s.newSession(ctx, "athlete-1")
	otherToken := s.newSession(ctx, "athlete-2")

	status, _ := s.doRequest(ctx, "GET", "/stats", "", nil)
	require.Equal(t, http.StatusUnauthorized, status)

	today := time.Now().UTC()
	weight := 80.0
	var added []workouts.Entry
	for i, sets := range [][]string{{"100@10"}, {"50x10", "50x10"}} {
		status, body := s.doRequest(ctx, "POST", "/entries", token, workouts.Entry{
			DateDay:     today.AddDate(0, 0, -i).Format(workouts.DateLayout),
			WorkoutType: "Chest/Triceps",
			Exercises:   []workouts.Exercise{{Name: "Bench", Sets: sets}},
			Weight:      &weight,
		})
		require.Equal(t, http.StatusCreated, status, string(body))

		var entry workouts.Entry
		require.NoError(t, json.Unmarshal(body, &entry))
		assert.Equal(t, workouts.FormatDateDay(workouts.CalendarDate(today.AddDate(0, 0, -i), time.UTC)), entry.DateDay)
		added = append(added, entry)
	}

	status, body := s.doRequest(ctx, "GET", "/stats?period=7d", token, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var bundle stats.Bundle
	require.NoError(t, json.Unmarshal(body, &bundle))
	assert.Equal(t, 2, bundle.EntryCount)
	assert.Equal(t, 2000.0, bundle.TotalVolume)
	assert.Equal(t, 2, bundle.CurrentStreak)
	require.NotNil(t, bundle.WeightTrend.Latest)
	assert.Equal(t, 80.0, *bundle.WeightTrend.Latest)

	// other users see nothing of it
	status, body = s.doRequest(ctx, "GET", "/entries", otherToken, nil)
	require.Equal(t, http.StatusOK, status)
	var list entries.ListResponse
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Equal(t, 0, list.Total)

	status, _ = s.doRequest(ctx, "GET", "/entries/"+added[0].ID, otherToken, nil)
	assert.Equal(t, http.StatusNotFound, status)

	// delete and undo
	status, body = s.doRequest(ctx, "DELETE", "/entries/"+added[0].ID, token, nil)
	require.Equal(t, http.StatusOK, status)
	var removed workouts.Entry
	require.NoError(t, json.Unmarshal(body, &removed))

	status, body = s.doRequest(ctx, "GET", "/stats?period=7d", token, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &bundle))
	assert.Equal(t, 1, bundle.EntryCount, "write invalidates the cached bundle")
	assert.Equal(t, 0, bundle.CurrentStreak)

	status, _ = s.doRequest(ctx, "POST", "/entries", token, removed)
	require.Equal(t, http.StatusCreated, status)

	status, body = s.doRequest(ctx, "GET", "/entries/history?days=7&type=All", token, nil)
	require.Equal(t, http.StatusOK, status)
	var history entries.HistoryResponse
	require.NoError(t, json.Unmarshal(body, &history))
	require.Equal(t, 2, history.Total)
	assert.Equal(t, today.Format(workouts.DateLayout), history.Days[0].Date)
	assert.Equal(t, 1000.0, history.Days[0].Volume)
}

func (s *IntegrationTestSuite) TestEntriesRateLimit() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t := s.T()
	token := s.newSession(ctx, "athlete-rate-limited")

	rateLimited := false
	for i := 0; i < 10; i++ {
		status, _ := s.doRequest(ctx, "POST", "/entries", token, workouts.Entry{
			DateDay:     fmt.Sprintf("2024-01-%02d", i+1),
			WorkoutType: "Legs",
		})
		if status == http.StatusTooEarly {
			rateLimited = true
			break
		}
		require.Equal(t, http.StatusCreated, status)
	}
	assert.True(t, rateLimited)

	// reads are not limited
	status, _ := s.doRequest(ctx, "GET", "/entries", token, nil)
	assert.Equal(t, http.StatusOK, status)
}
