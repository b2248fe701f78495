// Package semsearch answers text queries over images by combining two
// vocabulary trees: one over caption features and one over image features.
//
// QueryAllIms first finds the images whose captions best match the text,
// then samples their image features with a rank discount, so higher ranked
// candidates contribute more, and queries the image tree with the resulting
// synthetic document. This reaches images that carry no caption at all.
package semsearch
