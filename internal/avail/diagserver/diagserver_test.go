package diagserver_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/avail/internal/avail/diagserver"
)

func TestServer_ModulesList_EmptyInitially(t *testing.T) {
	s := diagserver.New()
	srv := httptest.NewServer(s)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/modules")
	require.NoError(t, err)
	defer resp.Body.Close()

	var reports []diagserver.Report
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&reports))
	assert.Empty(t, reports)
}

func TestServer_PublishThenGetOne(t *testing.T) {
	s := diagserver.New()
	s.Publish(diagserver.Report{Module: "Arithmetic", Success: true})

	srv := httptest.NewServer(s)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/modules/Arithmetic")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got diagserver.Report
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "Arithmetic", got.Module)
	assert.True(t, got.Success)
	assert.False(t, got.Finished.IsZero(), "Publish should stamp Finished")
}

func TestServer_GetOne_UnknownModuleIs404(t *testing.T) {
	s := diagserver.New()
	srv := httptest.NewServer(s)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/modules/DoesNotExist")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_Publish_ReplacesPriorReport(t *testing.T) {
	s := diagserver.New()
	s.Publish(diagserver.Report{Module: "M", Success: false, Line: 3})
	s.Publish(diagserver.Report{Module: "M", Success: true})

	srv := httptest.NewServer(s)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/modules/M")
	require.NoError(t, err)
	defer resp.Body.Close()

	var got diagserver.Report
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.True(t, got.Success)
	assert.Zero(t, got.Line)
}
