// Package server exposes the bridge over HTTP.
//
// POST /mcp takes one JSON-RPC envelope per request. Notifications are
// acknowledged with 204 and no body; malformed envelopes get an
// invalid-request error with 400; requests are dispatched and answered with
// 200 on success, 400 for shape errors and 500 for execution errors.
// GET /health reports liveness and GET /metrics serves Prometheus metrics.
package server
