package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/rafsoh/workout-tracker/internal/categories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) TestCategories() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t := s.T()
	token := s.doLogin(ctx)

	doCategoriesReq := func(method, path string, body []byte) *http.Response {
		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewBuffer(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, serverEndpoint+path, bodyReader)
		require.NoError(t, err)
		req.Header.Set("User-Agent", "test-agent")
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-WT-TOKEN", token)

		resp, err := s.httpClient.Do(req)
		require.NoError(t, err)
		return resp
	}

	getCategories := func(path string) []string {
		resp := doCategoriesReq("GET", path, nil)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		respBytes, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		var listResp categories.ListCategoriesResponse
		require.NoError(t, json.Unmarshal(respBytes, &listResp))
		return listResp.Categories
	}

	t.Run("defaults", func(t *testing.T) {
		assert.Equal(t,
			[]string{"Run", "Walk", "Gym", "Swim", "Cycle", "Yoga"},
			getCategories("/categories"),
		)
		assert.Equal(t,
			[]string{"Football", "Basketball", "Bouldering", "Pilates", "Spin", "Calisthenics"},
			getCategories("/categories/suggested"),
		)
	})

	t.Run("append and delete", func(t *testing.T) {
		addResp := doCategoriesReq("POST", "/categories", []byte(`{"name":"Tennis"}`))
		addResp.Body.Close()
		require.Equal(t, http.StatusCreated, addResp.StatusCode)

		assert.Equal(t,
			[]string{"Run", "Walk", "Gym", "Swim", "Cycle", "Yoga", "Tennis"},
			getCategories("/categories"),
		)

		// duplicates are rejected
		dupResp := doCategoriesReq("POST", "/categories", []byte(`{"name":"Tennis"}`))
		dupResp.Body.Close()
		require.Equal(t, http.StatusConflict, dupResp.StatusCode)

		delResp := doCategoriesReq("DELETE", "/categories/Tennis", nil)
		delResp.Body.Close()
		require.Equal(t, http.StatusOK, delResp.StatusCode)

		delResp = doCategoriesReq("DELETE", "/categories/Tennis", nil)
		delResp.Body.Close()
		require.Equal(t, http.StatusNotFound, delResp.StatusCode)
	})

	t.Run("replace keeps order", func(t *testing.T) {
		newList := []string{"Yoga", "Run", "Bouldering"}
		replaceJson, err := json.Marshal(categories.ListCategoriesResponse{Categories: newList})
		require.NoError(t, err)

		replaceResp := doCategoriesReq("PUT", "/categories", replaceJson)
		defer replaceResp.Body.Close()
		require.Equal(t, http.StatusOK, replaceResp.StatusCode)

		assert.Equal(t, newList, getCategories("/categories"))
	})

	t.Run("no token", func(t *testing.T) {
		req, err := http.NewRequestWithContext(ctx, "GET", fmt.Sprintf("%s/categories", serverEndpoint), nil)
		require.NoError(t, err)
		req.Header.Set("User-Agent", "test-agent")

		resp, err := s.httpClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}
