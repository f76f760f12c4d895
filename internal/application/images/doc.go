// Package images implements image CRUD coordination.
//
// The manager ties together:
//   - local folder storage (save, list, move, delete)
//   - metadata extraction from image file headers
//   - lifecycle events on the event bus
//   - operation metrics
package images
