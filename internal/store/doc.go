// Package store persists histogram snapshots in SQLite.
//
// Each saved snapshot records the feature, the detector's processed-search
// count at the time, and the sorted token entries. Recorder adapts the store
// to detector.Listener so every asynchronous histogram update is written
// without the detector knowing about persistence.
//
// Writers open the store with WithExclusiveLock, which holds an advisory
// flock beside the database so two long-running processes cannot interleave
// snapshots into the same file. Readers skip the lock and rely on WAL.
package store
