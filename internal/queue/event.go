// Package queue defines message payloads exchanged over the message broker
// and the publisher that sends them.
package queue

// Queue names. Both queues are durable.
const (
	UserRegisteredQueue  = "user.registered"
	PasswordChangedQueue = "user.password_changed"
)

// UserRegisteredEvent is published after an account is created. It carries
// enough for downstream consumers (welcome mail, channel provisioning) to act
// without querying the user store.
type UserRegisteredEvent struct {
	UserID       uint64 `json:"user_id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	Fullname     string `json:"fullname"`
	RegisteredAt string `json:"registered_at"`
}

// PasswordChangedEvent is published after a user changes their password so a
// security notice can be mailed to the account owner.
type PasswordChangedEvent struct {
	UserID    uint64 `json:"user_id"`
	Email     string `json:"email"`
	ChangedAt string `json:"changed_at"`
}
