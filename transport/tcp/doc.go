// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package tcp implements a raw-socket TCP listener channel and connection
// channel for hioload-loop event loops (Linux only). The listener is bound to
// a boss loop and registers every accepted connection on a worker group.
package tcp
