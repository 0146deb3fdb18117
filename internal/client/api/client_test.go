package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"aichess/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeMoveSendsJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/games/abc/moves", r.URL.Path)
		assert.Contains(t, r.Header.Get("Content-Type"), "application/json")

		var req core.MoveRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "e2e4", req.Move)

		json.NewEncoder(w).Encode(core.GameResponse{GameID: "abc", Moves: []string{"e4"}, AIThinking: true})
	}))
	defer srv.Close()

	c := New(srv.URL + "/")
	c.Out = io.Discard
	g, err := c.MakeMove("abc", "e2e4")
	require.NoError(t, err)
	assert.Equal(t, []string{"e4"}, g.Moves)
	assert.True(t, g.AIThinking)
}

func TestErrorResponseDecoded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(core.ErrorResponse{Error: "AI move in progress", Code: core.ErrAIPending})
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.UndoMoves("abc", 1)
	require.Error(t, err)
	assert.True(t, IsCode(err, core.ErrAIPending))
	assert.False(t, IsCode(err, core.ErrGameNotFound))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "AI move in progress (AI_PENDING)", apiErr.Error())
}
