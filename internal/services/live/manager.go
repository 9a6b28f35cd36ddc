// services/live/manager.go — широковещание свежих позиций устройств по WebSocket.
package live

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/flyMoon99/fysl/internal/models"
)

type Manager struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	Store      *RedisStore
	mu         sync.RWMutex
}

func NewManager(store *RedisStore) *Manager {
	manager := &Manager{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		Store:      store,
	}
	go manager.Run()
	return manager
}

func (m *Manager) Register(client *Client) {
	m.register <- client
}

func (m *Manager) Unregister(client *Client) {
	m.unregister <- client
}

func (m *Manager) Run() {
	for {
		select {
		case client := <-m.register:
			m.mu.Lock()
			m.clients[client] = true
			m.mu.Unlock()
			m.sendCurrentState(client)
		case client := <-m.unregister:
			m.mu.Lock()
			if _, ok := m.clients[client]; ok {
				delete(m.clients, client)
				close(client.Send)
			}
			m.mu.Unlock()
		case message := <-m.broadcast:
			m.mu.Lock()
			for client := range m.clients {
				select {
				case client.Send <- message:
				default:
					close(client.Send)
					delete(m.clients, client)
				}
			}
			m.mu.Unlock()
		}
	}
}

// PublishSnapshot — реализация devicesync.LivePublisher: кладёт снимок в
// Redis и рассылает его подключённым клиентам.
func (m *Manager) PublishSnapshot(ctx context.Context, snap models.LocationSnapshot) {
	if err := m.Store.SaveSnapshot(ctx, snap); err != nil {
		log.Printf("[live] не удалось сохранить снимок в Redis: %v", err)
	}

	data, _ := json.Marshal(map[string]interface{}{
		"type":      "device_location",
		"device":    snap,
		"timestamp": time.Now().UTC(),
	})
	m.broadcast <- data
}

// sendCurrentState отдаёт новому клиенту известные позиции всех устройств.
func (m *Manager) sendCurrentState(client *Client) {
	snapshots, err := m.Store.GetAllSnapshots(context.Background())
	if err != nil {
		log.Printf("[live] не удалось получить позиции из Redis: %v", err)
		return
	}

	data, _ := json.Marshal(map[string]interface{}{
		"type":      "device_locations",
		"devices":   snapshots,
		"timestamp": time.Now().UTC(),
	})
	select {
	case client.Send <- data:
	default:
	}
}
