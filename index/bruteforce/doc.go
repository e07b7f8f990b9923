// Package bruteforce provides the exact vector index: kNN queries scan all
// vectors and score them by cosine similarity. It is the correctness baseline
// for the approximate indexes and defines the compact binary format also used
// by the cover index for persistence in the vector_index table.
package bruteforce
