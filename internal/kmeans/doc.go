// Package kmeans implements seeded k-means clustering (k-means++
// initialization followed by Lloyd iterations) used to split vocabulary tree
// nodes.
package kmeans
