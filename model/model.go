package model

import (
	"bytes"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"
)

// NodeID identifies a tree node within one generation.
type NodeID = uuid.UUID

// DocumentID identifies a document. Training documents are grouped by image,
// so a DocumentID of a training feature is the owning ImageID.
type DocumentID = uuid.UUID

// ImageID identifies an image and its metadata.
type ImageID = uuid.UUID

// NewID returns a random identifier.
func NewID() uuid.UUID { return uuid.New() }

// CompareIDs orders identifiers byte-wise, which matches the lexical order of
// their canonical string form.
func CompareIDs(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) }

// Image is the unit stored by the search service. Mat is only populated once
// the raw matrix has been loaded from the image store.
type Image struct {
	ID       ImageID
	Dataset  string
	Captions string
	Mat      *mat.Dense
}

// WithMat returns a copy of the image carrying m.
func (im Image) WithMat(m *mat.Dense) Image {
	im.Mat = m
	return im
}

// Feature is a vector tagged with its owning document.
type Feature struct {
	Vec   []float32
	DocID DocumentID
}

// Document is an identified bag of vectors used both for training and for
// querying a tree.
type Document struct {
	ID      DocumentID
	Vectors [][]float32
}

// NewDocument creates a document with a fresh identifier.
func NewDocument(vectors [][]float32) Document {
	return Document{ID: NewID(), Vectors: vectors}
}

// Node is a vocabulary tree node. Children is empty iff the node is a leaf;
// Features is populated on leaves only.
type Node struct {
	ID       NodeID
	Depth    int
	Vec      []float32
	Children []NodeID
	Features []Feature
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }
