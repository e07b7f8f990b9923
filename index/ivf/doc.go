// Package ivf provides an inverted-file vector index. Vectors are assigned to
// the nearest of Lists centroids found by spherical k-means; a query scans only
// the Probes lists whose centroids are closest to it. Raising Probes trades
// speed for recall and Probes >= Lists is equivalent to an exact scan.
package ivf
