// Package client is the public face of the dashboard's connection to the
// trading service. It exposes one typed asynchronous method per logical
// operation; each method tries the persistent channel first and
// transparently substitutes the equivalent stateless REST call when the
// channel is unavailable, fails, or times out. Callers never branch on
// transport.
//
// Construct exactly one Client per process and share it by reference.
package client
