package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"text2phenotype.com/hmmpos/corpus"
	"text2phenotype.com/hmmpos/pipeline"
	"text2phenotype.com/hmmpos/pos"
	"text2phenotype.com/hmmpos/types"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stringLoader struct{}

func (stringLoader) Load(context.Context, types.CorpusConfig) ([]pos.Sequence, error) {
	return corpus.ReadSequences(
		strings.NewReader("the dog runs\na cat jumps\n"),
		strings.NewReader("DET N V\nDET N V\n"),
	)
}

func newTestServer(t *testing.T) *httptest.Server {
	params, err := pipeline.GetDefaultParams(context.Background(), []types.Configuration{
		{Name: "toy", Order: "trigram", Corpus: types.CorpusConfig{Sentences: "s", Tags: "t"}},
	}, stringLoader{})
	require.NoError(t, err)

	srv := httptest.NewServer(NewHandler(params).Routes())
	t.Cleanup(srv.Close)
	return srv
}

func TestTag(t *testing.T) {
	srv := newTestServer(t)

	res, err := http.Post(srv.URL+"/tag?profile=toy", "text/plain", strings.NewReader("The cat runs"))
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "application/json", res.Header.Get("Content-Type"))

	var resp types.Response
	require.NoError(t, json.NewDecoder(res.Body).Decode(&resp))
	_, err = uuid.Parse(resp.Tid)
	assert.NoError(t, err)
	assert.Equal(t, "toy", resp.Profile)
	require.Len(t, resp.Sentences, 1)
	assert.Equal(t, []string{"DET", "N", "V"}, resp.Sentences[0].Tags)
}

func TestTagDefaultProfile(t *testing.T) {
	srv := newTestServer(t)

	res, err := http.Post(srv.URL+"/tag", "text/plain", strings.NewReader("a dog"))
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestTagErrors(t *testing.T) {
	srv := newTestServer(t)

	res, err := http.Get(srv.URL + "/tag")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)

	res, err = http.Post(srv.URL+"/tag?profile=missing", "text/plain", strings.NewReader("a dog"))
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	var errResp types.ErrorResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&errResp))
	assert.Equal(t, pipeline.ErrUnknownProfile.Error(), errResp.Error)
	assert.NotEmpty(t, errResp.Tid)
}

func TestProfiles(t *testing.T) {
	srv := newTestServer(t)

	res, err := http.Get(srv.URL + "/profiles")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var body struct {
		Default  string                 `json:"default"`
		Profiles []pipeline.ProfileInfo `json:"profiles"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, "toy", body.Default)
	require.Len(t, body.Profiles, 1)
	assert.Equal(t, "trigram", body.Profiles[0].Order)
	assert.Equal(t, 3, body.Profiles[0].Tags)

	res, err = http.Post(srv.URL+"/profiles", "text/plain", nil)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)
}
