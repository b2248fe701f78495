// Package voctree implements a vocabulary tree: a hierarchical k-means
// quantizer of feature vectors used for approximate nearest-neighbour
// retrieval of documents.
//
// Training samples the stored image corpus, extracts features, clusters them
// recursively into a tree of Branching children per level down to Levels and
// replaces the persisted tree in one store transaction. Queries route every
// vector of a document from the root to its nearest leaf and rank documents
// by the number of leaf features they own. The engine keeps no tree in
// memory between calls; every query reads the committed generation through
// the store.
package voctree
