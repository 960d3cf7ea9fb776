// Package ws implements the WebSocket hub that pushes the dataset overview to
// dashboard clients on a fixed interval. The hub is broadcast-only: clients
// send nothing but control frames.
package ws
