// Package engine opens modernc.org/sqlite handles for the vector store and
// registers the vec_cosine_distance SQL function its queries rely on. The
// function is registered once, before the first connection is opened, so every
// pooled connection sees it.
package engine
