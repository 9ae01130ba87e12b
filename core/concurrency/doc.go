// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package concurrency provides the execution substrate of hioload-loop:
// single-goroutine executors with lazily started workers, fixed executor
// groups with round-robin choosers, and listener-bearing promises whose
// notifications are funnelled through the owning executor.
package concurrency
