// Package websocket provides real-time event streaming via WebSocket.
//
// Clients can connect to /ws/events to receive notifications whenever
// an image is uploaded, edited, detected, moved or deleted.
package websocket
