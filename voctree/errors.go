package voctree

import (
	"errors"

	"github.com/viant/voctree/sampling"
)

var (
	// ErrValidation reports vectors whose dimension differs from the
	// extractor's declared dimension.
	ErrValidation = errors.New("voctree: validation failed")

	// ErrInsufficientData reports an empty training corpus or feature pool.
	ErrInsufficientData = sampling.ErrInsufficientData

	// ErrInvalidArgument reports invalid caller-supplied parameters.
	ErrInvalidArgument = errors.New("voctree: invalid argument")

	// ErrInconsistent reports a stored tree that references a missing node.
	ErrInconsistent = errors.New("voctree: inconsistent tree")
)
