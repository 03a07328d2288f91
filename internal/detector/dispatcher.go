package detector

// Dispatcher runs reporting tasks off the caller's goroutine.
// Submit must not wait for the task to finish.
type Dispatcher interface {
	Submit(task func())
}

// SpawnDispatcher runs every task on its own goroutine. It is the policy a
// Detector uses when no Dispatcher is configured.
type SpawnDispatcher struct{}

// Submit starts task on a new goroutine.
func (SpawnDispatcher) Submit(task func()) {
	go task()
}
