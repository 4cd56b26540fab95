package ports

import "time"

// TakeoverNotice tells the previous instance of a session that a new
// instance claimed it.
type TakeoverNotice struct {
	SessionID     string
	NewInstanceID string
	At            time.Time
}

// TakeoverNotifier fans takeover notices out to whoever is listening for
// a session. Publishing must never block the ownership transaction.
type TakeoverNotifier interface {
	NotifyTakeover(n TakeoverNotice)
}
