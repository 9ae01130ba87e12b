// Package control
// Author: momentics <momentics@gmail.com>
//
// Configuration, logging, runtime metrics, hot-reload and debug introspection
// layer of hioload-loop.
//
// Provides concurrent-safe state handling primitives including:
//   - Configuration loading from defaults, YAML files and HIOLOAD_* variables
//   - Reload hooks driven by configuration file changes
//   - Metrics counters fed by executor observers
//   - State export and probe registration
package control
