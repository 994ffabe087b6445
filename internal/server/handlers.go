package server

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/Eddy-etame/pillarpayout-sub001/internal/game"
)

// getGameStateHandler returns the current round snapshot. Secret fields
// (server seed, crash point) are never serialized.
func (s *FiberServer) getGameStateHandler(c *fiber.Ctx) error {
	state := s.scheduler.GetCurrentRound()
	if state == nil {
		return c.Status(404).JSON(fiber.Map{
			"error": "No active game round",
		})
	}
	return c.JSON(state)
}

func (s *FiberServer) placeBetHandler(c *fiber.Ctx) error {
	var req game.BetRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.UserID == "" {
		return c.Status(400).JSON(fiber.Map{
			"error": "User ID is required",
		})
	}

	resp := s.scheduler.PlaceBet(req)
	if !resp.Success {
		return c.Status(400).JSON(resp)
	}

	return c.JSON(resp)
}

func (s *FiberServer) cashoutHandler(c *fiber.Ctx) error {
	var req game.CashoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.UserID == "" {
		return c.Status(400).JSON(fiber.Map{
			"error": "User ID is required",
		})
	}

	resp := s.scheduler.Cashout(req)
	if !resp.Success {
		return c.Status(400).JSON(resp)
	}

	return c.JSON(resp)
}

// getHistoryHandler lists recently archived rounds with revealed seeds.
func (s *FiberServer) getHistoryHandler(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	rounds, err := s.db.RecentRounds(c.Context(), limit)
	if err != nil {
		log.Printf("[SERVER] History query failed: %v", err)
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to load round history",
		})
	}
	return c.JSON(fiber.Map{
		"rounds": rounds,
	})
}

// verifyHandler recomputes a crash point from revealed seeds so anyone can
// audit a finished round. No authentication.
func (s *FiberServer) verifyHandler(c *fiber.Ctx) error {
	serverSeed := c.Query("server_seed")
	clientSeed := c.Query("client_seed")
	nonce := c.QueryInt("nonce", -1)

	if serverSeed == "" || clientSeed == "" || nonce < 0 {
		return c.Status(400).JSON(fiber.Map{
			"error": "server_seed, client_seed and nonce are required",
		})
	}

	crashPoint, err := s.scheduler.Generator().Generate(serverSeed, clientSeed, nonce)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"server_seed":      serverSeed,
		"server_seed_hash": game.HashCommitment(serverSeed),
		"client_seed":      clientSeed,
		"nonce":            nonce,
		"crash_point":      crashPoint,
	})
}

func (s *FiberServer) getUserBalanceHandler(c *fiber.Ctx) error {
	userID := c.Params("userId")
	if userID == "" {
		return c.Status(400).JSON(fiber.Map{
			"error": "User ID is required",
		})
	}

	balance, err := s.accounts.GetBalance(c.Context(), userID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to load balance",
		})
	}

	return c.JSON(fiber.Map{
		"user_id": userID,
		"balance": balance,
	})
}

func (s *FiberServer) setUserBalanceHandler(c *fiber.Ctx) error {
	userID := c.Params("userId")
	if userID == "" {
		return c.Status(400).JSON(fiber.Map{
			"error": "User ID is required",
		})
	}

	var body struct {
		Balance float64 `json:"balance"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := s.accounts.SetBalance(c.Context(), userID, body.Balance); err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to set balance",
		})
	}

	return c.JSON(fiber.Map{
		"user_id": userID,
		"balance": body.Balance,
		"message": "Balance updated successfully",
	})
}

// emergencyStopHandler forces the current round to crash at its current
// multiplier. Settlement still runs. Requires the admin token.
func (s *FiberServer) emergencyStopHandler(c *fiber.Ctx) error {
	token := c.Get("X-Admin-Token")
	if s.cfg.Server.AdminToken == "" || token != s.cfg.Server.AdminToken {
		return c.Status(403).JSON(fiber.Map{
			"error": "Forbidden",
		})
	}

	if err := s.scheduler.EmergencyStop(); err != nil {
		return c.Status(409).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Round stopped",
	})
}

// gameWebSocketHandler serves the live round feed and accepts bet/cashout
// messages over the socket.
func (s *FiberServer) gameWebSocketHandler(conn *websocket.Conn) {
	userID := conn.Query("user_id", "anonymous")

	log.Printf("[WS] New connection from user: %s", userID)

	s.hub.RegisterClient(conn, userID)

	currentState := s.scheduler.GetCurrentRound()
	if currentState != nil {
		stateJSON, _ := json.Marshal(map[string]any{
			"type": "initial_state",
			"data": currentState,
		})
		conn.WriteMessage(websocket.TextMessage, stateJSON)
	}

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			log.Printf("[WS] Read error for user %s: %v", userID, err)
			s.hub.UnregisterClient(conn)
			break
		}

		if messageType != websocket.TextMessage {
			continue
		}

		var clientMsg map[string]any
		if err := json.Unmarshal(message, &clientMsg); err != nil {
			continue
		}

		msgType, ok := clientMsg["type"].(string)
		if !ok {
			continue
		}

		switch msgType {
		case "place_bet":
			amount, _ := strconv.ParseFloat(fmt.Sprintf("%v", clientMsg["amount"]), 64)
			autoCashout, _ := strconv.ParseFloat(fmt.Sprintf("%v", clientMsg["auto_cashout"]), 64)
			insuranceType, _ := clientMsg["insurance_type"].(string)

			resp := s.scheduler.PlaceBet(game.BetRequest{
				UserID:        userID,
				Amount:        amount,
				AutoCashout:   autoCashout,
				InsuranceType: insuranceType,
			})

			respJSON, _ := json.Marshal(resp)
			conn.WriteMessage(websocket.TextMessage, respJSON)

		case "cashout":
			resp := s.scheduler.Cashout(game.CashoutRequest{
				UserID: userID,
			})

			respJSON, _ := json.Marshal(resp)
			conn.WriteMessage(websocket.TextMessage, respJSON)

		case "ping":
			pongJSON, _ := json.Marshal(map[string]string{"type": "pong"})
			conn.WriteMessage(websocket.TextMessage, pongJSON)
		}
	}
}
