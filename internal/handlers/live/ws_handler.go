// handlers/live/ws_handler.go
package live

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/flyMoon99/fysl/internal/middleware"
	"github.com/flyMoon99/fysl/internal/pkg/response"
	liveService "github.com/flyMoon99/fysl/internal/services/live"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type WSHandler struct {
	manager *liveService.Manager
}

func NewWSHandler(manager *liveService.Manager) *WSHandler {
	return &WSHandler{manager: manager}
}

// ServeWS подключает клиента к трансляции позиций устройств.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.RespondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[live] не удалось открыть websocket: %v", err)
		return
	}

	client := &liveService.Client{
		Conn:   conn,
		Send:   make(chan []byte, 16),
		UserID: userID,
	}
	h.manager.Register(client)

	go writePump(client)
	go readPump(h.manager, client)
}

func writePump(client *liveService.Client) {
	defer client.Conn.Close()
	for message := range client.Send {
		if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump только следит за закрытием соединения: клиенты ничего не шлют.
func readPump(manager *liveService.Manager, client *liveService.Client) {
	defer manager.Unregister(client)
	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			return
		}
	}
}
