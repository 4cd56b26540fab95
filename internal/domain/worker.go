package domain

// Worker is a shop-floor operator. Workers are reference data: the core
// reads them but never mutates them during a session's lifetime.
type Worker struct {
	ID       string
	Code     string
	Name     string
	IsActive bool
}
