// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

// Package cache memoizes compiler.Compiler.Parse results for raincd: a
// stateless HTTP compile service sees the same source text repeatedly
// (retries, polling clients, identical requests from different callers),
// so identical compiles are collapsed in flight via
// golang.org/x/sync/singleflight and recent results are kept in an LRU
// (github.com/hashicorp/golang-lru) keyed by a
// golang.org/x/crypto/sha3 digest of the source text rather than the
// (potentially large) text itself.
package cache

import (
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/crypto/sha3"
	"golang.org/x/sync/singleflight"

	"github.com/rouzwelt/rainlang/ast"
	"github.com/rouzwelt/rainlang/state"
)

// Result is one cached compile outcome.
type Result struct {
	Tree   *ast.Tree
	Config state.Config
}

// Cache memoizes Compile by a digest of its source-text argument.
type Cache struct {
	lru   *lru.Cache
	group singleflight.Group
}

// New builds a Cache holding up to size recent results.
func New(size int) (*Cache, error) {
	l, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: l}, nil
}

// Key returns the hex-encoded SHA3-256 digest of text, used as the LRU
// key.
func Key(text string) string {
	sum := sha3.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Compile returns the cached Result for text, computing it with fn only
// on a cache miss. Concurrent calls for the same text share one
// in-flight computation.
func (c *Cache) Compile(text string, fn func(text string) Result) Result {
	key := Key(text)
	if v, ok := c.lru.Get(key); ok {
		return v.(Result)
	}
	v, _, _ := c.group.Do(key, func() (any, error) {
		result := fn(text)
		c.lru.Add(key, result)
		return result, nil
	})
	return v.(Result)
}

// Len returns the number of results currently cached.
func (c *Cache) Len() int { return c.lru.Len() }
