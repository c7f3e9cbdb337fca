package chat

import "sync"

// chatLocks serializes mutating operations per chat id so concurrent
// membership changes always observe a consistent snapshot, while
// operations on different chats proceed in parallel.
type chatLocks struct {
	mu    sync.Mutex
	locks map[int]*sync.Mutex
}

func newChatLocks() *chatLocks {
	return &chatLocks{locks: make(map[int]*sync.Mutex)}
}

func (c *chatLocks) lock(chatID int) func() {
	c.mu.Lock()
	l, ok := c.locks[chatID]
	if !ok {
		l = &sync.Mutex{}
		c.locks[chatID] = l
	}
	c.mu.Unlock()

	l.Lock()
	return l.Unlock
}
