// Package dispatch runs detector reporting tasks off the caller's goroutine.
//
// Pool is a bounded worker pool: Submit never waits for a worker, and when
// the queue is full the task runs on its own goroutine instead. Spawner
// starts a goroutine per task but keeps track of them for shutdown. Both
// recover and log task panics. FromConfig picks one from dispatch.mode.
package dispatch
