// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/rouzwelt/rainlang/compiler"
	"github.com/rouzwelt/rainlang/internal/cache"
)

func newTestServer(t *testing.T) *server {
	t.Helper()
	c, err := cache.New(64)
	require.NoError(t, err)
	return &server{
		compiler: compiler.New(),
		cache:    c,
		limiter:  rate.NewLimiter(rate.Inf, 1),
	}
}

func postJSON(t *testing.T, h httprouter.Handle, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	h(rec, req, nil)
	return rec
}

func TestHandleCompile_Success(t *testing.T) {
	s := newTestServer(t)
	rec := postJSON(t, s.handleCompile, parseRequest{Text: "add(1 2)"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp compileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Diagnostics)
	assert.Len(t, resp.Sources, 1)
	assert.NotEmpty(t, resp.Constants)
}

func TestHandleCompile_ParseErrorYieldsDiagnostics(t *testing.T) {
	s := newTestServer(t)
	rec := postJSON(t, s.handleCompile, parseRequest{Text: "this_is_not_an_opcode(1 2)"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp compileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Diagnostics)
	assert.Empty(t, resp.Sources)
}

func TestHandleCompile_OctetStreamSnappy(t *testing.T) {
	s := newTestServer(t)
	raw, err := json.Marshal(parseRequest{Text: "add(1 2)"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(raw))
	req.Header.Set("Accept", "application/octet-stream")
	req.Header.Set("Accept-Encoding", "gzip, snappy")
	rec := httptest.NewRecorder()

	s.handleCompile(rec, req, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "snappy", rec.Header().Get("Content-Encoding"))
	assert.NotEmpty(t, rec.Body.Bytes())
}

func TestHandleCompile_SourceMapQueryParam(t *testing.T) {
	s := newTestServer(t)
	raw, err := json.Marshal(parseRequest{Text: "add(1 2)"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/?sourcemap=1", bytes.NewReader(raw))
	rec := httptest.NewRecorder()

	s.handleCompile(rec, req, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp compileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.SourceMap)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(resp.SourceMap, &doc))
	assert.Equal(t, "add(1 2)", doc["sources"].([]any)[0])
}

func TestHandleCompile_SourceMapOmittedByDefault(t *testing.T) {
	s := newTestServer(t)
	rec := postJSON(t, s.handleCompile, parseRequest{Text: "add(1 2)"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp compileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.SourceMap)
}

func TestHandleParse_UsesOverridePlaceholder(t *testing.T) {
	s := newTestServer(t)
	rec := postJSON(t, s.handleParse, parseRequest{Text: "add(1 _)", Placeholder: "_"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp parseResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Diagnostics)
}

func TestHandleOpcodes_IncludesPseudoOpcodes(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/opcodes", nil)
	rec := httptest.NewRecorder()
	s.handleOpcodes(rec, req, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var out []opcodeDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))

	names := map[string]bool{}
	for _, o := range out {
		names[o.Name] = true
	}
	assert.True(t, names["GTE"], "expected pseudo-opcode GTE in opcode listing")
	assert.True(t, names["ADD"], "expected real opcode ADD in opcode listing")
}

func TestHandleHealthz_ReportsCacheEntries(t *testing.T) {
	s := newTestServer(t)
	s.cache.Compile("add(1 2)", func(text string) cache.Result {
		tree, cfg := s.compiler.Parse(text)
		return cache.Result{Tree: tree, Config: cfg}
	})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.handleHealthz(rec, req, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 1, body["cache_entries"])
}

func TestWithRateLimit_RejectsWhenExhausted(t *testing.T) {
	s := newTestServer(t)
	s.limiter = rate.NewLimiter(0, 0)

	handler := s.withRateLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
