package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Yurenko/front-t-bot/internal/connection"
)

// call implements the two-tier dispatch every operation shares: try the
// channel path, and on a transport-level failure attempt exactly one
// reconnect-and-retry before demoting and taking the stateless path.
//
// A channel failure never reaches the caller directly; the caller sees
// either the operation's result or a domain error (the server's rejection
// or the REST call's failure).
func call[T any](ctx context.Context, c *Client, method string, params any, fallback func(context.Context) (T, error)) (T, error) {
	var zero T

	if c.conn.UsingChannel() && c.conn.Connected() {
		data, err := c.conn.SendRequest(ctx, method, params)
		if err == nil {
			return decode[T](method, data)
		}

		if !isTransportError(err) {
			// ServerError and context cancellation are final.
			return zero, err
		}

		// One reconnect-and-retry, then give the channel up.
		c.conn.Connect(ctx)
		if c.conn.Connected() {
			data, err = c.conn.SendRequest(ctx, method, params)
			if err == nil {
				return decode[T](method, data)
			}
			if !isTransportError(err) {
				return zero, err
			}
		}

		c.conn.Demote()
		c.logger.Warn("channel path failed, switching to rest fallback",
			"method", method,
			"error", err,
		)
	}

	return fallback(ctx)
}

// isTransportError reports whether err is a channel-level failure the
// dispatcher should absorb by falling back.
func isTransportError(err error) bool {
	return errors.Is(err, connection.ErrTransportUnavailable) ||
		errors.Is(err, connection.ErrRequestTimeout)
}

// decode unmarshals a channel response payload into the operation's result
// type. Empty or null payloads decode to the zero value, which is how
// void operations (e.g. close session) come back over the channel.
func decode[T any](method string, data json.RawMessage) (T, error) {
	var v T
	if len(data) == 0 || string(data) == "null" {
		return v, nil
	}
	if err := json.Unmarshal(data, &v); err != nil {
		var zero T
		return zero, fmt.Errorf("decode %s response: %w", method, err)
	}
	return v, nil
}
