// Package vector defines the embedding record store. It includes:
//   - Record, Match, SearchParams and the Store interface
//   - validation producing ValidationError
//   - Rank, the shared threshold/filter/order/limit pipeline
//   - MemoryStore: an exact in-process baseline
//   - SQLiteStore: durable storage with exact SQL search or an in-memory
//     approximate index kept in sync with the table
//   - embedding BLOB encoding and distance helpers
package vector
