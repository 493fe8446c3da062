// Package metrics defines the Recorder the tracker, resolver and engine
// report into, with a no-op default and a Prometheus implementation.
package metrics
