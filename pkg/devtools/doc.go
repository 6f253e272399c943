// Package devtools is the live inspector for the reactive runtime: JSON
// graph snapshots, Graphviz export, a bounded event recorder, and an HTTP
// server that streams runtime activity to connected clients.
//
// Snapshots only carry nodes while reactive.EnableGraphDebug is on; the
// stats block and the event stream work regardless.
package devtools
