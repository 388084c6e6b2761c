// Package adaptgo provides adaptable feature preprocessing for Go,
// designed for backend services that need training/serving-consistent
// feature pipelines without a Python dependency.
//
// AdaptGo follows the adapt-once / apply-many model: a transform first
// learns its state (means, quantile boundaries, vocabularies, IDF
// weights) from a data sample, then applies that frozen state to any
// number of batches.
//
// # Features
//
// - Adapt/Transform lifecycle: learn state once, apply it consistently
// - Numeric transforms: Normalization, Discretization
// - Categorical transforms: StringLookup, IntegerLookup, Hashing
// - Text pipeline: TextVectorizer with n-grams, multi-hot and TF-IDF output
// - Pipelines: chain transforms, adapt them in sequence, persist them as one unit
// - Streaming adapt: feed data in chunks with identical results to one-shot adapt
// - Persistence: JSON state envelopes, gob snapshots, SQLite-backed stores
//
// # Installation
//
// Install AdaptGo using go get:
//
//	go get github.com/YuminosukeSato/adaptgo
//
// # Quick Start
//
// Here's a simple example of normalizing numeric features:
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/adaptgo/preprocessing"
//	    "gonum.org/v1/gonum/mat"
//	)
//
//	func main() {
//	    // Sample data used to learn the feature statistics
//	    X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
//
//	    norm := preprocessing.NewNormalizationDefault()
//	    if err := norm.AdaptMatrix(X); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    // Apply the learned state to fresh data
//	    Y, err := norm.TransformMatrix(mat.NewDense(2, 1, []float64{5, 6}))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    fmt.Println("Normalized:", mat.Formatted(Y))
//	}
//
// String, integer and text features use the same lifecycle through the
// Batch container in core/transform:
//
//	lookup := preprocessing.NewStringLookupDefault()
//	_ = lookup.Adapt(transform.NewStrings([]string{"cat", "dog", "cat"}))
//	out, _ := lookup.Transform(transform.NewStrings([]string{"dog", "bird"}))
//
// # Packages
//
// The library is organized into several packages:
//
//   - preprocessing: the adaptable transforms and the Pipeline
//   - core/transform: batches, lifecycle interfaces, state envelopes
//   - core/parallel: parallel processing utilities
//   - stats: streaming moments and quantile accumulators
//   - vocab: vocabulary accumulation and lookup tables
//   - text: tokenization, standardization and n-gram expansion
//   - encode: index, count, multi-hot and TF-IDF output encoding
//   - hashing: salted FNV-1a feature bucketing
//   - config: YAML pipeline definitions
//   - store: versioned snapshot stores (SQLite and in-memory)
//
// # Consistency Guarantees
//
// Adapted state is immutable: Transform never updates it, so the same
// transform applied to the same batch always yields the same result.
// Chunked adapt via UpdateState/FinalizeState produces exactly the same
// state as a single Adapt over the concatenated data, which makes
// out-of-core adaptation safe.
//
// # Performance
//
// AdaptGo parallelizes the apply path with automatic thresholds:
//
//   - Row-parallel Transform for large numeric batches
//   - CPU core detection and optimal worker allocation
//   - Adapted transforms are safe for concurrent Transform calls
//
// # Contributing
//
// Contributions are welcome! Please see our GitHub repository:
// https://github.com/YuminosukeSato/adaptgo
//
// # License
//
// AdaptGo is released under the MIT License.
package adaptgo
