// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

// Command raincd is a small stateless compile-as-a-service exposing the
// Rain-expression compiler's programmatic surface over HTTP
// (SPEC_FULL §3.3):
//
//	POST /v1/parse     -> the parse's diagnostics (JSON, with spans)
//	POST /v1/compile   -> StateConfig (JSON), or the concatenated source
//	                      buffers as a raw octet-stream
//	GET  /v1/opcodes   -> registry dump
//	GET  /v1/watch     -> websocket: recompile on every inbound message
//	GET  /healthz      -> liveness + process stats
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"github.com/rouzwelt/rainlang/compiler"
	"github.com/rouzwelt/rainlang/internal/cache"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	cacheSize := flag.Int("cache-size", 1024, "number of compiled results to cache")
	rps := flag.Float64("rate", 50, "requests per second, per process")
	flag.Parse()

	c, err := cache.New(*cacheSize)
	if err != nil {
		log.Fatalf("raincd: %v", err)
	}

	srv := &server{
		compiler: compiler.New(),
		cache:    c,
		limiter:  rate.NewLimiter(rate.Limit(*rps), int(*rps)+1),
	}

	router := httprouter.New()
	router.POST("/v1/parse", srv.handleParse)
	router.POST("/v1/compile", srv.handleCompile)
	router.GET("/v1/opcodes", srv.handleOpcodes)
	router.GET("/v1/watch", srv.handleWatch)
	router.GET("/healthz", srv.handleHealthz)

	handler := cors.Default().Handler(srv.withLogging(srv.withRateLimit(router)))

	log.Printf("raincd: listening on %s", *addr)
	httpSrv := &http.Server{
		Addr:              *addr,
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := httpSrv.ListenAndServe(); err != nil {
		fmt.Fprintln(flag.CommandLine.Output(), err)
		log.Fatal(err)
	}
}
