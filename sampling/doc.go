// Package sampling implements the training-corpus sample-size policy and a
// seedable uniform sample-of-k primitive shared by tree training and
// cross-modal query composition.
package sampling
