// Package cache provides detection result cache implementations.
//
// Implementations:
//   - redis: Redis with JSON serialization and TTL
//   - memory: In-memory for testing and single-node deployments
package cache
