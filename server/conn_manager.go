package server

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

const (
	MessageTypeAdd = iota
	MessageTypeFree
)

// Message is a request to the manager goroutine.
type Message struct {
	Type int
	ID   string
}

// ConnManager tracks the ids of open sessions. The id set is owned by a single
// goroutine fed through MessageQueue, so event loops never contend on it.
type ConnManager struct {
	establishedNum int64
	connections    map[string]struct{}
	MessageQueue   chan *Message

	logger   *zap.Logger
	done     chan struct{}
	stopOnce sync.Once
	stopped  chan struct{}
}

// NewConnManager ...
func NewConnManager(logger *zap.Logger) *ConnManager {
	return &ConnManager{
		connections:  make(map[string]struct{}),
		MessageQueue: make(chan *Message, 10000),
		logger:       logger,
		done:         make(chan struct{}),
		stopped:      make(chan struct{}),
	}
}

func (cm *ConnManager) connManagerHandler() {
	defer close(cm.stopped)
	for {
		select {
		case message := <-cm.MessageQueue:
			cm.handle(message)
		case <-cm.done:
			return
		}
	}
}

func (cm *ConnManager) handle(message *Message) {
	switch message.Type {
	case MessageTypeAdd:
		if _, ok := cm.connections[message.ID]; ok {
			cm.logger.Warn("conn manager: duplicate session id", zap.String("conn", message.ID))
			return
		}
		cm.connections[message.ID] = struct{}{}
		atomic.AddInt64(&cm.establishedNum, 1)

	case MessageTypeFree:
		if _, ok := cm.connections[message.ID]; !ok {
			cm.logger.Warn("conn manager: free of unknown session", zap.String("conn", message.ID))
			return
		}
		delete(cm.connections, message.ID)
		atomic.AddInt64(&cm.establishedNum, -1)

	default:
		cm.logger.Warn("conn manager: message not supported", zap.Int("type", message.Type))
	}
}

// Start ...
func (cm *ConnManager) Start() {
	go cm.connManagerHandler()
}

// Stop ends the manager goroutine and waits for it. Messages sent afterwards
// are dropped. Stop must follow Start.
func (cm *ConnManager) Stop() {
	cm.stopOnce.Do(func() {
		close(cm.done)
		<-cm.stopped
	})
}

// Add ...
func (cm *ConnManager) Add(id string) {
	cm.SendMessageTo(&Message{Type: MessageTypeAdd, ID: id})
}

// Free ...
func (cm *ConnManager) Free(id string) {
	cm.SendMessageTo(&Message{Type: MessageTypeFree, ID: id})
}

// SendMessageTo ...
func (cm *ConnManager) SendMessageTo(message *Message) {
	select {
	case cm.MessageQueue <- message:
	case <-cm.done:
	}
}

// Established is the number of sessions currently open.
func (cm *ConnManager) Established() int64 {
	return atomic.LoadInt64(&cm.establishedNum)
}
