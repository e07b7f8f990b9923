// Package index defines a minimal abstraction for vector indexes that can be
// built from embeddings, extended incrementally, queried for kNN by cosine
// similarity, and serialized for persistence. Implementations in this module
// are an exact brute-force baseline (bruteforce), an inverted-file index
// (ivf) and a cover tree (cover).
package index
