package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/rafsoh/workout-tracker/internal/workouts"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) addWorkout(ctx context.Context, token string, addReq workouts.AddWorkoutRequest) workouts.Workout {
	t := s.T()
	addReqJson, err := json.Marshal(addReq)
	require.NoError(t, err)

	req, err := http.NewRequestWithContext(ctx, "POST", fmt.Sprintf("%s/workouts", serverEndpoint), bytes.NewBuffer(addReqJson))
	require.NoError(t, err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-WT-TOKEN", token)

	resp, err := s.httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var added workouts.Workout
	require.NoError(t, json.Unmarshal(respBytes, &added))
	require.NotEmpty(t, added.ID)
	return added
}

func (s *IntegrationTestSuite) listWorkouts(ctx context.Context, token, bucket, query string) workouts.ListResponse {
	t := s.T()
	target := fmt.Sprintf("%s/workouts/list/%s", serverEndpoint, bucket)
	if query != "" {
		target += "?" + query
	}
	req, err := http.NewRequestWithContext(ctx, "GET", target, nil)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("X-WT-TOKEN", token)

	resp, err := s.httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var listResp workouts.ListResponse
	require.NoError(t, json.Unmarshal(respBytes, &listResp))
	return listResp
}

func (s *IntegrationTestSuite) putWorkoutFlag(ctx context.Context, token, id, flag string) {
	t := s.T()
	req, err := http.NewRequestWithContext(
		ctx, "PUT",
		fmt.Sprintf("%s/workouts/%s/%s", serverEndpoint, id, flag),
		nil,
	)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("X-WT-TOKEN", token)

	resp, err := s.httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func (s *IntegrationTestSuite) TestWorkouts() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t := s.T()
	token := s.doLogin(ctx)

	now := time.Now()
	morningRun := s.addWorkout(ctx, token, workouts.AddWorkoutRequest{
		Workout: workouts.Workout{
			Type:        "Run",
			Description: "easy morning run",
			Location:    "riverside",
			Date:        now.Add(-2 * time.Hour),
		},
	})
	assert.True(t, morningRun.IsCompleted, "past-dated workout starts completed")

	missedGym := s.addWorkout(ctx, token, workouts.AddWorkoutRequest{
		Workout: workouts.Workout{
			Type: "Gym",
			Date: now.Add(-26 * time.Hour),
		},
	})
	// normalization fills the empty fields
	assert.Equal(t, workouts.DefaultDescription, missedGym.Description)
	assert.Equal(t, workouts.DefaultLocation, missedGym.Location)

	plannedSwim := s.addWorkout(ctx, token, workouts.AddWorkoutRequest{
		Workout: workouts.Workout{
			Type:        "Swim",
			Description: "open water practice",
			Date:        now.Add(48 * time.Hour),
			IsCompleted: true, // must be ignored for a future date
		},
	})
	assert.False(t, plannedSwim.IsCompleted)

	t.Run("buckets", func(t *testing.T) {
		completed := s.listWorkouts(ctx, token, "completed", "")
		require.Equal(t, 1, completed.Total)
		assert.Equal(t, morningRun.ID, completed.Workouts[0].ID)

		upcoming := s.listWorkouts(ctx, token, "upcoming", "")
		require.Equal(t, 1, upcoming.Total)
		assert.Equal(t, plannedSwim.ID, upcoming.Workouts[0].ID)

		unknown := s.listWorkouts(ctx, token, "whatever", "")
		assert.Equal(t, 0, unknown.Total)
	})

	t.Run("lapsed then marked done", func(t *testing.T) {
		lapsed := s.listWorkouts(ctx, token, "lapsed", "")
		require.Equal(t, 1, lapsed.Total)
		assert.Equal(t, missedGym.ID, lapsed.Workouts[0].ID)

		s.putWorkoutFlag(ctx, token, missedGym.ID, "completed")

		lapsed = s.listWorkouts(ctx, token, "lapsed", "")
		assert.Equal(t, 0, lapsed.Total)

		completed := s.listWorkouts(ctx, token, "completed", "")
		assert.Equal(t, 2, completed.Total)
	})

	t.Run("favourites cut across buckets", func(t *testing.T) {
		s.putWorkoutFlag(ctx, token, morningRun.ID, "favourite")
		s.putWorkoutFlag(ctx, token, plannedSwim.ID, "favourite")

		favourites := s.listWorkouts(ctx, token, "favourites", "")
		require.Equal(t, 2, favourites.Total)

		s.putWorkoutFlag(ctx, token, plannedSwim.ID, "unfavourite")
		favourites = s.listWorkouts(ctx, token, "favourites", "")
		require.Equal(t, 1, favourites.Total)
		assert.Equal(t, morningRun.ID, favourites.Workouts[0].ID)
	})

	t.Run("type filter and search", func(t *testing.T) {
		runsOnly := s.listWorkouts(ctx, token, "completed", "type=Run")
		require.Equal(t, 1, runsOnly.Total)
		assert.Equal(t, morningRun.ID, runsOnly.Workouts[0].ID)

		searched := s.listWorkouts(ctx, token, "upcoming", "q=open+water")
		require.Equal(t, 1, searched.Total)
		assert.Equal(t, plannedSwim.ID, searched.Workouts[0].ID)

		// search is case-insensitive
		searched = s.listWorkouts(ctx, token, "upcoming", "q=SWIM")
		require.Equal(t, 1, searched.Total)

		noMatch := s.listWorkouts(ctx, token, "completed", "type=Tennis")
		assert.Equal(t, 0, noMatch.Total)
	})

	t.Run("update heals completion", func(t *testing.T) {
		// mark the planned swim completed even though its date is in the
		// future, then edit it; the edit re-derives completion
		s.putWorkoutFlag(ctx, token, plannedSwim.ID, "completed")

		plannedSwim.IsCompleted = true
		updateReqJson, err := json.Marshal(plannedSwim)
		require.NoError(t, err)

		req, err := http.NewRequestWithContext(ctx, "PUT", fmt.Sprintf("%s/workouts", serverEndpoint), bytes.NewBuffer(updateReqJson))
		require.NoError(t, err)
		req.Header.Set("User-Agent", "test-agent")
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-WT-TOKEN", token)

		resp, err := s.httpClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		upcoming := s.listWorkouts(ctx, token, "upcoming", "")
		require.Equal(t, 1, upcoming.Total)
		assert.Equal(t, plannedSwim.ID, upcoming.Workouts[0].ID)
	})

	t.Run("calendar and day", func(t *testing.T) {
		day := morningRun.Date
		req, err := http.NewRequestWithContext(
			ctx, "GET",
			fmt.Sprintf("%s/workouts/calendar/%d/%d", serverEndpoint, day.Year(), int(day.Month())),
			nil,
		)
		require.NoError(t, err)
		req.Header.Set("User-Agent", "test-agent")
		req.Header.Set("X-WT-TOKEN", token)

		resp, err := s.httpClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		respBytes, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		var calendarResp workouts.CalendarResponse
		require.NoError(t, json.Unmarshal(respBytes, &calendarResp))
		assert.NotEmpty(t, calendarResp.Days)

		dayReq, err := http.NewRequestWithContext(
			ctx, "GET",
			fmt.Sprintf("%s/workouts/day/%s", serverEndpoint, day.Local().Format("2006-01-02")),
			nil,
		)
		require.NoError(t, err)
		dayReq.Header.Set("User-Agent", "test-agent")
		dayReq.Header.Set("X-WT-TOKEN", token)

		dayResp, err := s.httpClient.Do(dayReq)
		require.NoError(t, err)
		defer dayResp.Body.Close()
		require.Equal(t, http.StatusOK, dayResp.StatusCode)

		dayRespBytes, err := io.ReadAll(dayResp.Body)
		require.NoError(t, err)

		var dayList workouts.ListResponse
		require.NoError(t, json.Unmarshal(dayRespBytes, &dayList))
		assert.NotZero(t, dayList.Total)
	})

	t.Run("get and delete", func(t *testing.T) {
		req, err := http.NewRequestWithContext(ctx, "GET", fmt.Sprintf("%s/workouts/%s", serverEndpoint, missedGym.ID), nil)
		require.NoError(t, err)
		req.Header.Set("User-Agent", "test-agent")
		req.Header.Set("X-WT-TOKEN", token)

		resp, err := s.httpClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		delReq, err := http.NewRequestWithContext(ctx, "DELETE", fmt.Sprintf("%s/workouts/%s", serverEndpoint, missedGym.ID), nil)
		require.NoError(t, err)
		delReq.Header.Set("User-Agent", "test-agent")
		delReq.Header.Set("X-WT-TOKEN", token)

		delResp, err := s.httpClient.Do(delReq)
		require.NoError(t, err)
		delResp.Body.Close()
		require.Equal(t, http.StatusOK, delResp.StatusCode)

		getReq, err := http.NewRequestWithContext(ctx, "GET", fmt.Sprintf("%s/workouts/%s", serverEndpoint, missedGym.ID), nil)
		require.NoError(t, err)
		getReq.Header.Set("User-Agent", "test-agent")
		getReq.Header.Set("X-WT-TOKEN", token)

		getResp, err := s.httpClient.Do(getReq)
		require.NoError(t, err)
		getResp.Body.Close()
		require.Equal(t, http.StatusNotFound, getResp.StatusCode)
	})

	t.Run("ios app secret instead of session token", func(t *testing.T) {
		listResp := s.listWorkouts(ctx, testIOSAppSecret, "completed", "")
		assert.NotZero(t, listResp.Total)
	})

	t.Run("no token", func(t *testing.T) {
		req, err := http.NewRequestWithContext(ctx, "GET", fmt.Sprintf("%s/workouts/list/completed", serverEndpoint), nil)
		require.NoError(t, err)
		req.Header.Set("User-Agent", "test-agent")

		resp, err := s.httpClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}
