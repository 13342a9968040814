package gateway

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/burnes-center/fair/pkg/llm"
)

const (
	msgSessionIDRequired    = "Session ID is required"
	msgChatIDRequired       = "Chat ID is required"
	msgUserIDRequired       = "User ID is required"
	msgUserSessionRequired  = "User ID and Session ID are required"
	msgSessionsFetchFailed  = "Failed to fetch sessions from backend"
	msgSessionRenameFailed  = "Failed to rename session"
	msgChatsFetchFailed     = "Failed to fetch chats from backend"
	msgChatLoadFailed       = "Failed to load chat from backend"
	msgChatDeleteFailed     = "Failed to delete chat"
	msgChatRenameFailed     = "Failed to rename chat"
	msgRevisionRequired     = "Revision request is required"
	msgMessageRequired      = "Message is required"
	msgSummarizeFilesNeeded = "Transcript and recording files are required"
)

// success is the body sent for deletes, whose backend reply carries
// nothing the client needs.
var success = fiber.Map{"success": true}

func (g *Gateway) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

func (g *Gateway) handleLogin(c *fiber.Ctx) error {
	if _, ok := jsonObject(c); !ok {
		return badRequest(c, msgInvalidJSON)
	}

	return g.forward(c, backendCall{
		method: fiber.MethodPost,
		url:    g.backendURL("login"),
		body:   c.Body(),
	})
}

func (g *Gateway) handleListSessions(c *fiber.Ctx) error {
	return g.forward(c, backendCall{
		method:     fiber.MethodGet,
		url:        g.backendURL("get_all_sessions"),
		errMessage: msgSessionsFetchFailed,
	})
}

func (g *Gateway) handleLoadSession(c *fiber.Ctx) error {
	sessionID := param(c, "sessionId")
	if sessionID == "" {
		return badRequest(c, msgSessionIDRequired)
	}

	return g.forward(c, backendCall{
		method: fiber.MethodGet,
		url:    g.backendURL("load_session", sessionID),
	})
}

func (g *Gateway) handleDeleteSession(c *fiber.Ctx) error {
	sessionID := param(c, "sessionId")
	if sessionID == "" {
		return badRequest(c, msgSessionIDRequired)
	}

	return g.forward(c, backendCall{
		method: fiber.MethodDelete,
		url:    g.backendURL("delete_session", sessionID),
		reply:  success,
	})
}

func (g *Gateway) handleRenameSession(c *fiber.Ctx) error {
	sessionID := param(c, "sessionId")
	if sessionID == "" {
		return badRequest(c, msgSessionIDRequired)
	}
	if _, ok := jsonObject(c); !ok {
		return badRequest(c, msgInvalidJSON)
	}

	return g.forward(c, backendCall{
		method:     fiber.MethodPatch,
		url:        g.backendURL("rename_session", sessionID),
		body:       c.Body(),
		errMessage: msgSessionRenameFailed,
	})
}

func (g *Gateway) handleListChats(c *fiber.Ctx) error {
	sessionID := param(c, "sessionId")
	if sessionID == "" {
		return badRequest(c, msgSessionIDRequired)
	}

	return g.forward(c, backendCall{
		method:     fiber.MethodGet,
		url:        g.backendURL("get_chats", sessionID),
		errMessage: msgChatsFetchFailed,
	})
}

func (g *Gateway) handleCreateChat(c *fiber.Ctx) error {
	sessionID := param(c, "sessionId")
	if sessionID == "" {
		return badRequest(c, msgSessionIDRequired)
	}
	if _, ok := jsonObject(c); !ok {
		return badRequest(c, msgInvalidJSON)
	}

	return g.forward(c, backendCall{
		method: fiber.MethodPost,
		url:    g.backendURL("create_chat", sessionID),
		body:   c.Body(),
	})
}

// handleLoadChat normalizes legacy "You: "/"Assistant: " history strings
// into structured messages before they reach the client.
func (g *Gateway) handleLoadChat(c *fiber.Ctx) error {
	chatID := param(c, "chatId")
	if chatID == "" {
		return badRequest(c, msgChatIDRequired)
	}

	return g.forward(c, backendCall{
		method:     fiber.MethodGet,
		url:        g.backendURL("load_chat", chatID),
		errMessage: msgChatLoadFailed,
		transform:  llm.NormalizeMessages,
	})
}

func (g *Gateway) handleDeleteChat(c *fiber.Ctx) error {
	chatID := param(c, "chatId")
	if chatID == "" {
		return badRequest(c, msgChatIDRequired)
	}

	return g.forward(c, backendCall{
		method:     fiber.MethodDelete,
		url:        g.backendURL("delete_chat", chatID),
		errMessage: msgChatDeleteFailed,
	})
}

// handleRenameChat forwards only the new name.
func (g *Gateway) handleRenameChat(c *fiber.Ctx) error {
	chatID := param(c, "chatId")
	if chatID == "" {
		return badRequest(c, msgChatIDRequired)
	}
	obj, ok := jsonObject(c)
	if !ok {
		return badRequest(c, msgInvalidJSON)
	}

	name := obj["name"]
	if name == nil {
		name = json.RawMessage("null")
	}
	body, err := json.Marshal(map[string]json.RawMessage{"name": name})
	if err != nil {
		return badRequest(c, msgInvalidJSON)
	}

	return g.forward(c, backendCall{
		method:     fiber.MethodPatch,
		url:        g.backendURL("rename_chat", chatID),
		body:       body,
		errMessage: msgChatRenameFailed,
	})
}

func (g *Gateway) handleUserSessions(c *fiber.Ctx) error {
	userID := param(c, "userId")
	if userID == "" {
		return badRequest(c, msgUserIDRequired)
	}

	return g.forward(c, backendCall{
		method: fiber.MethodGet,
		url:    g.backendURL("get_sessions", userID),
	})
}

func (g *Gateway) handleSubscribe(c *fiber.Ctx) error {
	userID, sessionID := param(c, "userId"), param(c, "sessionId")
	if userID == "" || sessionID == "" {
		return badRequest(c, msgUserSessionRequired)
	}

	return g.forward(c, backendCall{
		method: fiber.MethodPost,
		url:    g.backendURL("subscribe", userID, sessionID),
	})
}

func (g *Gateway) handleUnsubscribe(c *fiber.Ctx) error {
	userID, sessionID := param(c, "userId"), param(c, "sessionId")
	if userID == "" || sessionID == "" {
		return badRequest(c, msgUserSessionRequired)
	}

	return g.forward(c, backendCall{
		method: fiber.MethodDelete,
		url:    g.backendURL("unsubscribe", userID, sessionID),
		reply:  success,
	})
}

func (g *Gateway) handleDeleteUser(c *fiber.Ctx) error {
	userID := param(c, "userId")
	if userID == "" {
		return badRequest(c, msgUserIDRequired)
	}

	return g.forward(c, backendCall{
		method: fiber.MethodDelete,
		url:    g.backendURL("delete_user", userID),
	})
}
