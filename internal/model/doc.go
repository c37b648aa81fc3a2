// Package model defines shared data types exchanged with the trading service.
//
// The same logical shapes travel over both transports: the WebSocket channel
// carries them in the "data" field of a response or broadcast, the REST
// fallback carries them as plain JSON bodies.
//
// Conventions:
//   - Prices, quantities and balances: float64 as serialized by the service
//   - Timestamps: RFC 3339 strings parsed into time.Time
//   - IDs: uuid.UUID for trades, string for sessions and symbols
package model
