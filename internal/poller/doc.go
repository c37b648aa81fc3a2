// Package poller keeps analysis data flowing when the push channel is down.
//
// The poller:
//   - Periodically fetches market analysis for the watched symbols
//   - Runs only while the client is in fallback mode (push would be
//     redundant otherwise)
//   - Uses concurrent requests with bounded concurrency
//   - Feeds results into the same listener fan-out as real broadcasts
package poller
