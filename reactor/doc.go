// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor provides event loops (single-thread executors that own a
// readiness poller), event loop groups, and the channel registration protocol
// that binds every channel to exactly one loop for its lifetime.
package reactor
