// Package storage provides image storage implementations.
//
// Implementations:
//   - local: filesystem folders, one directory per processing stage
package storage
