package domain

import "time"

// User is the transient record created by the login side-channel.
type User struct {
	Username     string
	Score        int
	RegisteredAt time.Time
}
