// Package model defines the data shared by the vocabulary tree, the stores and
// the cross-modal search service: identifiers, images, features, documents and
// tree nodes.
package model
