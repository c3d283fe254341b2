// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang/snappy"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/host"
	"github.com/shirou/gopsutil/mem"
	"golang.org/x/time/rate"

	"github.com/rouzwelt/rainlang/ast"
	"github.com/rouzwelt/rainlang/compiler"
	"github.com/rouzwelt/rainlang/internal/cache"
	"github.com/rouzwelt/rainlang/internal/sourcemap"
	"github.com/rouzwelt/rainlang/opcode"
	"github.com/rouzwelt/rainlang/state"
)

type server struct {
	compiler *compiler.Compiler
	cache    *cache.Cache
	limiter  *rate.Limiter
}

// withLogging tags every request with a UUID for correlation, the style
// SPEC_FULL §2.2 specifies in place of a dedicated logging package.
func (s *server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("request_id=%s method=%s path=%s duration=%s", id, r.Method, r.URL.Path, time.Since(start))
	})
}

func (s *server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type parseRequest struct {
	Text        string `json:"text"`
	Placeholder string `json:"placeholder,omitempty"`
}

type diagnosticDTO struct {
	Message string `json:"message"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
}

type parseResponse struct {
	Diagnostics []diagnosticDTO `json:"diagnostics"`
}

func toDiagnosticDTOs(diags []ast.Diagnostic) []diagnosticDTO {
	out := make([]diagnosticDTO, len(diags))
	for i, d := range diags {
		out[i] = diagnosticDTO{Message: d.Message, Start: d.Span.Start, End: d.Span.End}
	}
	return out
}

func (s *server) handleParse(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	placeholder := s.compiler.Placeholder
	if req.Placeholder != "" {
		placeholder = req.Placeholder
	}
	comp := &compiler.Compiler{Registry: s.compiler.Registry, Placeholder: placeholder}
	tree := comp.GetParseTree(req.Text)
	writeJSON(w, http.StatusOK, parseResponse{Diagnostics: toDiagnosticDTOs(tree.Diagnostics())})
}

type compileResponse struct {
	Constants   []string        `json:"constants"`   // hex, 0x-prefixed
	Sources     []string        `json:"sources"`      // base64
	Diagnostics []diagnosticDTO `json:"diagnostics,omitempty"`
	SourceMap   json.RawMessage `json:"sourceMap,omitempty"`
}

func (s *server) handleCompile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result := s.cache.Compile(req.Text, func(text string) cache.Result {
		tree, cfg := s.compiler.Parse(text)
		return cache.Result{Tree: tree, Config: cfg}
	})

	if r.Header.Get("Accept") == "application/octet-stream" {
		var raw []byte
		for _, src := range result.Config.Sources {
			raw = append(raw, src...)
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		if strings.Contains(r.Header.Get("Accept-Encoding"), "snappy") {
			w.Header().Set("Content-Encoding", "snappy")
			raw = snappy.Encode(nil, raw)
		}
		w.Write(raw)
		return
	}

	resp := compileResponse{Diagnostics: toDiagnosticDTOs(result.Tree.Diagnostics())}
	for _, c := range result.Config.Constants {
		resp.Constants = append(resp.Constants, c.Hex())
	}
	for _, src := range result.Config.Sources {
		resp.Sources = append(resp.Sources, base64.StdEncoding.EncodeToString(src))
	}
	if r.URL.Query().Get("sourcemap") != "" && !result.Tree.HasError() {
		entries := sourcemap.ForTree(result.Tree, state.InstructionSize)
		resp.SourceMap = json.RawMessage(sourcemap.Build(req.Text, entries))
	}
	writeJSON(w, http.StatusOK, resp)
}

type opcodeDTO struct {
	ID          *uint16  `json:"id,omitempty"`
	Name        string   `json:"name"`
	Aliases     []string `json:"aliases"`
	Description string   `json:"description"`
}

func (s *server) handleOpcodes(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	var out []opcodeDTO
	for _, m := range s.compiler.Registry.All() {
		id := m.ID
		out = append(out, opcodeDTO{ID: &id, Name: m.CanonicalName, Aliases: m.Aliases.ToSlice(), Description: m.Doc.Description})
	}
	for _, m := range []*opcode.Meta{s.compiler.Registry.GTE(), s.compiler.Registry.LTE(), s.compiler.Registry.INEQ()} {
		out = append(out, opcodeDTO{Name: m.CanonicalName, Aliases: m.Aliases.ToSlice(), Description: m.Doc.Description})
	}
	writeJSON(w, http.StatusOK, out)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleWatch is the server-side counterpart of `rainc watch`: each
// inbound text message is recompiled and its diagnostics (or success
// summary) pushed back.
func (s *server) handleWatch(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		tree, cfg := s.compiler.Parse(string(msg))
		resp := compileResponse{Diagnostics: toDiagnosticDTOs(tree.Diagnostics())}
		for _, c := range cfg.Constants {
			resp.Constants = append(resp.Constants, c.Hex())
		}
		for _, src := range cfg.Sources {
			resp.Sources = append(resp.Sources, base64.StdEncoding.EncodeToString(src))
		}
		if err := conn.WriteJSON(resp); err != nil {
			return
		}
	}
}

func (s *server) handleHealthz(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	uptime, _ := host.Uptime()
	percents, _ := cpu.Percent(0, false)
	vm, _ := mem.VirtualMemory()

	var cpuPercent float64
	if len(percents) > 0 {
		cpuPercent = percents[0]
	}
	var memPercent float64
	if vm != nil {
		memPercent = vm.UsedPercent
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"uptime_seconds": uptime,
		"cpu_percent":    cpuPercent,
		"mem_percent":    memPercent,
		"cache_entries":  s.cache.Len(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		fmt.Fprintf(w, `{"error":%q}`, err.Error())
	}
}
