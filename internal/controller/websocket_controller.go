package controller

import (
	"encoding/json"
	"fmt"

	"github.com/benbeisheim/hotseat-chess/internal/service"
	"github.com/benbeisheim/hotseat-chess/internal/ws"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/websocket/v2"
)

type WebSocketController struct {
	gameService *service.GameService
}

func NewWebSocketController(gameService *service.GameService) *WebSocketController {
	return &WebSocketController{
		gameService: gameService,
	}
}

// HandleConnection is called when a new WebSocket connection is established.
// The handler goroutine reads; every write goes through the client's writer.
func (wsc *WebSocketController) HandleConnection(c *websocket.Conn) {
	gameID := c.Params("tableId")
	clientID, _ := c.Locals("clientID").(string)

	client := ws.NewClient(c)
	client.Start()
	defer client.Stop()

	if err := wsc.gameService.RegisterConnection(gameID, clientID, client); err != nil {
		log.Warnf("failed to register connection: %v", err)
		wsc.sendError(client, err.Error())
		return
	}
	defer wsc.gameService.UnregisterConnection(gameID, clientID, client)

	for {
		messageType, message, err := c.ReadMessage()
		if err != nil {
			log.Debugf("read error: %v", err)
			return
		}

		if messageType != websocket.TextMessage {
			continue
		}

		var msg ws.Message
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Debugf("parse error: %v", err)
			wsc.sendError(client, "malformed message")
			continue
		}

		if err := wsc.handleMessage(gameID, msg); err != nil {
			log.Debugf("handle error: %v", err)
			wsc.sendError(client, err.Error())
		}
	}
}

// handleMessage dispatches one inbound message. State changes are pushed to
// every watcher by the game itself.
func (wsc *WebSocketController) handleMessage(gameID string, msg ws.Message) error {
	switch msg.Type {
	case ws.MessageTypeSelect:
		var req selectRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return err
		}
		_, err := wsc.gameService.HandleSelect(gameID, req.Field)
		return err

	case ws.MessageTypeMove:
		var req moveRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return err
		}
		_, err := wsc.gameService.HandleMove(gameID, req.From, req.To)
		return err

	case ws.MessageTypeReset:
		return wsc.gameService.ResetGame(gameID)

	default:
		return fmt.Errorf("unknown message type: %s", msg.Type)
	}
}

func (wsc *WebSocketController) sendError(client *ws.Client, errorMsg string) {
	payload, err := json.Marshal(ws.ErrorPayload{Error: errorMsg})
	if err != nil {
		return
	}
	client.Send(ws.Message{
		Type:    ws.MessageTypeError,
		Payload: payload,
	})
}
