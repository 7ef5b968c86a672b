// Package server exposes the sound editor engine over an HTTP JSON API,
// including asset CRUD, imports, recording control and Prometheus metrics.
package server
