// Package cover provides a cover-tree vector index. Vectors are normalised to
// unit length and organised by Euclidean distance, which orders neighbours the
// same way cosine similarity does, so kNN answers match an exact scan up to
// float32 rounding. Snapshots use the bruteforce binary format; the tree is
// rebuilt on load.
package cover
