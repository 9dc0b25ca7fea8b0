// Package server exposes document search over HTTP.
//
// The keyword endpoint depends only on the datastore; the semantic endpoint
// additionally makes one round-trip to the embedding provider. The two paths
// fail independently: an embedding provider outage returns 502 from the
// semantic endpoint while keyword search keeps answering.
package server
