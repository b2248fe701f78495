// Package vector holds the low-level vector helpers used by the vocabulary
// tree and its stores:
//   - Embedding encoding (little-endian float32 BLOB) for SQLite storage
//   - Euclidean distance and nearest-centroid routing
package vector
