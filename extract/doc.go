// Package extract provides reference feature extractors.
//
// Caption turns caption text into one unit vector per word token; identical
// tokens always map to the same vector. Patches slides a square window over an
// image matrix and emits one normalized vector per window. Both are
// deterministic and need no model files, which makes them suitable for tests
// and small deployments; production extractors plug in through the same
// interfaces.
package extract
