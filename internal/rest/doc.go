// Package rest provides the stateless fallback client for the trading
// service: one HTTP request per logical operation, mirroring the result
// shapes carried in the channel path's "data" field.
//
// Resource layout (relative to the configured base URL):
//   - GET  /sessions, /sessions/{id}, /sessions/{id}/trades
//   - GET  /analysis/{symbol}, /analysis?symbols=a,b,c
//   - GET  /balance, /info, /positions/count
//   - POST /sessions, /sessions/{id}/close
//   - POST /analysis/periodic/start, /analysis/periodic/stop
//   - PUT  /analysis/periodic/interval, /risk/check
package rest
