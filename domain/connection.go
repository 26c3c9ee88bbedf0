package domain

// ConnectionID identifies a single live transport connection in the hub.
// A reconnecting client gets a new one; the hub preserves no state across
// reconnects.
type ConnectionID string
