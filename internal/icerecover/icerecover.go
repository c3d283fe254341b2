// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

// Package icerecover turns a panic inside the compiler core into an
// "internal compiler error" — a plain Go error carrying the captured
// call stack — instead of crashing the CLI or HTTP service process.
// Nothing in spec.md's core is expected to panic; this exists purely as
// a last line of defense around cmd/rainc's subcommands, mirroring how the
// teacher isolates VM-level failures from the outer binary. cmd/raincd's
// handlers do not use it.
package icerecover

import (
	"fmt"

	"github.com/go-stack/stack"
)

// ICE ("internal compiler error") wraps a recovered panic value together
// with the call stack captured at the point of recovery.
type ICE struct {
	Value any
	Stack stack.CallStack
}

func (e *ICE) Error() string {
	return fmt.Sprintf("internal compiler error: %v\n%+v", e.Value, e.Stack)
}

// Run calls fn and converts any panic into an *ICE error rather than
// letting it propagate.
func Run(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ICE{Value: r, Stack: stack.Trace().TrimRuntime()}
		}
	}()
	return fn()
}

// Guard is the zero-argument variant of Run, for call sites that report
// success purely by not panicking (e.g. a goroutine body).
func Guard(fn func()) error {
	return Run(func() error {
		fn()
		return nil
	})
}
