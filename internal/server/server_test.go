package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/qtikit/pkg/cache"
	"github.com/matzehuels/qtikit/pkg/observability"
	"github.com/matzehuels/qtikit/pkg/observability/prom"
	"github.com/matzehuels/qtikit/pkg/pipeline"
)

const item = `<?xml version="1.0" encoding="UTF-8"?>
<assessmentItem xmlns="http://www.imsglobal.org/xsd/imsqti_v2p1"
    identifier="capital" title="Capitals" adaptive="false" timeDependent="false">
  <responseDeclaration identifier="RESPONSE" cardinality="single" baseType="identifier"/>
  <itemBody>
    <choiceInteraction responseIdentifier="RESPONSE" maxChoices="1">
      <simpleChoice identifier="ChoiceA">Paris</simpleChoice>
      <simpleChoice identifier="ChoiceB">Lyon</simpleChoice>
    </choiceInteraction>
  </itemBody>
</assessmentItem>
`

func newTestServer(t *testing.T, opts Options) *httptest.Server {
	t.Helper()
	c, err := cache.NewMemoryCache(0)
	require.NoError(t, err)
	logger := log.New(io.Discard)
	runner := pipeline.NewRunner(c, nil, logger)
	t.Cleanup(func() { runner.Close() })

	ts := httptest.NewServer(New(runner, logger, opts).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func upload(t *testing.T, ts *httptest.Server, body string) (*http.Response, documentResponse) {
	t.Helper()
	resp, err := http.Post(ts.URL+"/v1/documents", "application/xml", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var doc documentResponse
	if resp.StatusCode == http.StatusCreated {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	}
	return resp, doc
}

func get(t *testing.T, url string, header ...string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestDocumentLifecycle(t *testing.T) {
	ts := newTestServer(t, Options{Formatted: true})

	resp, doc := upload(t, ts, item)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "/v1/documents/"+doc.ID, resp.Header.Get("Location"))
	assert.Equal(t, "assessmentItem", doc.Kind)
	assert.Equal(t, "2.1", doc.Version)
	assert.Equal(t, 2, doc.Kinds["simpleChoice"])
	assert.False(t, doc.Cached)

	_, again := upload(t, ts, item)
	assert.True(t, again.Cached, "second upload of the same bytes should hit the stream cache")
	assert.NotEqual(t, doc.ID, again.ID)

	base := ts.URL + "/v1/documents/" + doc.ID

	resp, body := get(t, base)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/xml", resp.Header.Get("Content-Type"))
	assert.Contains(t, body, `identifier="ChoiceA"`)
	assert.Contains(t, body, `>Paris</simpleChoice>`)
	assert.Contains(t, body, "\n  <itemBody>")

	_, compact := get(t, base+"?compact=true")
	assert.NotContains(t, compact, "\n  <itemBody>")

	resp, body = get(t, base+"/graph.json")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"kind": "choiceInteraction"`)

	req, err := http.NewRequest(http.MethodDelete, base, nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = get(t, base)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, `"code":"DOCUMENT_NOT_FOUND"`)
}

func TestStreamETag(t *testing.T) {
	ts := newTestServer(t, Options{})
	_, doc := upload(t, ts, item)
	url := ts.URL + "/v1/documents/" + doc.ID + "/stream"

	resp, body := get(t, url)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(body, "$v0 = "), "stream = %q", body)
	etag := resp.Header.Get("ETag")
	require.NotEmpty(t, etag)

	resp, body = get(t, url, "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, resp.StatusCode)
	assert.Empty(t, body)
}

func TestTreeSVG(t *testing.T) {
	ts := newTestServer(t, Options{})
	_, doc := upload(t, ts, item)

	resp, body := get(t, ts.URL+"/v1/documents/"+doc.ID+"/tree.svg?detailed=true")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	assert.Contains(t, body, "<svg")
}

func TestUploadErrors(t *testing.T) {
	ts := newTestServer(t, Options{MaxBodySize: 1024})

	tests := []struct {
		name   string
		body   string
		url    string
		status int
		code   string
	}{
		{"empty", "", "", http.StatusBadRequest, "INVALID_INPUT"},
		{"malformed", "<assessmentItem><itemBody>", "", http.StatusUnprocessableEntity, "INVALID_XML"},
		{"too large", "<a>" + strings.Repeat("x", 2048) + "</a>", "", http.StatusBadRequest, "INVALID_INPUT"},
		{"no validator", item, "?validate=true", http.StatusNotImplemented, "UNSUPPORTED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/v1/documents"+tt.url, "application/xml", strings.NewReader(tt.body))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)

			var e errorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
			assert.Equal(t, tt.code, string(e.Code))
		})
	}
}

func TestParseProblemsReported(t *testing.T) {
	ts := newTestServer(t, Options{})
	resp, err := http.Post(ts.URL+"/v1/documents", "application/xml", strings.NewReader("<a>\n<b>"))
	require.NoError(t, err)
	defer resp.Body.Close()

	var e errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
	require.NotEmpty(t, e.Problems)
	assert.Positive(t, e.Problems[0].Line)
}

func TestUnknownDocument(t *testing.T) {
	ts := newTestServer(t, Options{})
	for _, id := range []string{"not-a-uuid", "6f1c1d3e-8c55-4a0e-9a34-2d1f0c1b2a3d"} {
		resp, _ := get(t, ts.URL+"/v1/documents/"+id+"/stream")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, id)
	}

	resp, body := get(t, ts.URL+"/v1/documents/a.b/stream")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "INVALID_INPUT")
}

func TestHealthzAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	hooks := prom.NewHooks(reg)
	observability.SetHTTPHooks(hooks)
	defer observability.Reset()

	ts := newTestServer(t, Options{Gatherer: reg})

	resp, body := get(t, ts.URL+"/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok\n", body)
	assert.Contains(t, resp.Header.Get("Server"), "qtikit/")

	resp, body = get(t, ts.URL+"/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `qtikit_http_requests_total{code="200",method="GET",route="/healthz"} 1`)
}

func TestMetricsDisabled(t *testing.T) {
	ts := newTestServer(t, Options{})
	resp, _ := get(t, ts.URL+"/metrics")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	c, err := cache.NewMemoryCache(0)
	require.NoError(t, err)
	s := New(pipeline.NewRunner(c, nil, log.New(io.Discard)), log.New(io.Discard), Options{})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, _ := get(t, "http://"+ln.Addr().String()+"/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
