// Package connection implements the persistent channel to the trading
// service: a WebSocket client primitive, a connection manager with bounded
// reconnection and periodic health probing, request/response correlation
// over the shared socket, and the subscription registry that fans out
// server-push broadcasts to local listeners.
//
// The manager never surfaces a connect failure to callers; failures demote
// the client to the REST fallback path instead. Callers check UsingChannel
// and Connected, or simply call SendRequest and handle
// ErrTransportUnavailable.
package connection
