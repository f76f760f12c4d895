// Package events provides event bus implementations for image lifecycle
// events.
//
// Implementations:
//   - memory: In-process pub/sub, sufficient for a single-node service
package events
