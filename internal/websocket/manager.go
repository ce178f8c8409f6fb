// Package websocket fans note change events out to each user's open
// connections.
package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"notes-server/internal/domain"
)

type ClientMessage struct {
	Client  *Client
	Message []byte
}

type Manager struct {
	clients        map[string]*Client
	userIndex      map[string]map[string]bool
	clientsMutex   sync.RWMutex
	Register       chan *Client
	Unregister     chan *Client
	HandleMessage  chan *ClientMessage
	done           chan struct{}
	maxConnPerUser int
	writeWait      time.Duration
	pongWait       time.Duration
	pingPeriod     time.Duration
	maxMessageSize int64
	log            *logrus.Logger
}

// NewManager builds a hub. A maxMessageSize of zero leaves inbound frames
// unbounded.
func NewManager(maxConnPerUser int, writeWait, pongWait, pingPeriod time.Duration, maxMessageSize int64, logger *logrus.Logger) *Manager {
	return &Manager{
		clients:        make(map[string]*Client),
		userIndex:      make(map[string]map[string]bool),
		Register:       make(chan *Client),
		Unregister:     make(chan *Client),
		HandleMessage:  make(chan *ClientMessage),
		done:           make(chan struct{}),
		maxConnPerUser: maxConnPerUser,
		writeWait:      writeWait,
		pongWait:       pongWait,
		pingPeriod:     pingPeriod,
		maxMessageSize: maxMessageSize,
		log:            logger,
	}
}

// Run serves registrations and inbound messages until ctx is cancelled, then
// closes every connection.
func (m *Manager) Run(ctx context.Context) {
	defer m.closeAll()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-m.Register:
			m.registerClient(client)

		case client := <-m.Unregister:
			m.unregisterClient(client)

		case clientMsg := <-m.HandleMessage:
			m.processMessage(clientMsg)
		}
	}
}

func (m *Manager) closeAll() {
	close(m.done)

	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()

	for id, client := range m.clients {
		close(client.Send)
		delete(m.clients, id)
	}
	m.userIndex = make(map[string]map[string]bool)
}

// submit hands c to ch unless the manager has stopped.
func (m *Manager) submit(ch chan *Client, c *Client) {
	select {
	case ch <- c:
	case <-m.done:
	}
}

// Add registers client with the running manager.
func (m *Manager) Add(client *Client) {
	m.submit(m.Register, client)
}

func (m *Manager) registerClient(client *Client) {
	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()

	if m.userIndex[client.UserID] == nil {
		m.userIndex[client.UserID] = make(map[string]bool)
	}

	if len(m.userIndex[client.UserID]) >= m.maxConnPerUser {
		m.log.WithField("user_id", client.UserID).Warn("max websocket connections reached")
		close(client.Send)
		return
	}

	m.clients[client.ID] = client
	m.userIndex[client.UserID][client.ID] = true

	m.log.WithFields(logrus.Fields{"client_id": client.ID, "user_id": client.UserID}).Debug("websocket client registered")
}

func (m *Manager) unregisterClient(client *Client) {
	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()

	if _, ok := m.clients[client.ID]; ok {
		delete(m.clients, client.ID)
		delete(m.userIndex[client.UserID], client.ID)

		if len(m.userIndex[client.UserID]) == 0 {
			delete(m.userIndex, client.UserID)
		}

		close(client.Send)
		m.log.WithField("client_id", client.ID).Debug("websocket client unregistered")
	}
}

// processMessage answers pings. The feed is one-way otherwise.
func (m *Manager) processMessage(clientMsg *ClientMessage) {
	var msg Message
	if err := json.Unmarshal(clientMsg.Message, &msg); err != nil {
		m.log.WithError(err).Debug("dropping malformed websocket message")
		return
	}

	switch msg.Type {
	case TypePing:
		pong, err := NewMessage(TypePong, nil)
		if err != nil {
			return
		}
		if err := m.SendToClient(clientMsg.Client.ID, pong); err != nil {
			m.log.WithError(err).Warn("failed to send pong")
		}
	default:
		m.log.WithField("type", msg.Type).Debug("ignoring websocket message")
	}
}

// BroadcastToUser queues message on every connection of userID. Connections
// whose buffer is full are dropped.
func (m *Manager) BroadcastToUser(userID string, message *Message) error {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}

	var slow []*Client

	m.clientsMutex.RLock()
	for clientID := range m.userIndex[userID] {
		client := m.clients[clientID]
		select {
		case client.Send <- messageBytes:
		default:
			slow = append(slow, client)
		}
	}
	m.clientsMutex.RUnlock()

	for _, client := range slow {
		m.log.WithField("client_id", client.ID).Warn("websocket send buffer full, closing connection")
		go m.submit(m.Unregister, client)
	}

	return nil
}

func (m *Manager) SendToClient(clientID string, message *Message) error {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}

	m.clientsMutex.RLock()
	defer m.clientsMutex.RUnlock()

	client, exists := m.clients[clientID]
	if !exists {
		return nil
	}

	select {
	case client.Send <- messageBytes:
	default:
		m.log.WithField("client_id", clientID).Warn("websocket send buffer full")
	}

	return nil
}

// PublishNoteEvent forwards a note mutation to the owner's connections.
func (m *Manager) PublishNoteEvent(userID string, event domain.NoteEvent) {
	msg, err := NewMessage(MessageType(event.Type), event)
	if err != nil {
		m.log.WithError(err).Error("failed to encode note event")
		return
	}

	if err := m.BroadcastToUser(userID, msg); err != nil {
		m.log.WithError(err).Error("failed to broadcast note event")
	}
}

func (m *Manager) GetUserConnections(userID string) int {
	m.clientsMutex.RLock()
	defer m.clientsMutex.RUnlock()

	if clients, exists := m.userIndex[userID]; exists {
		return len(clients)
	}
	return 0
}
