package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	gin "github.com/gin-gonic/gin"

	"github.com/chrishamcode/marketplace-app-sub001/internal/app/dto"
	"github.com/chrishamcode/marketplace-app-sub001/internal/domain/chat"
	domainlistings "github.com/chrishamcode/marketplace-app-sub001/internal/domain/listings"
	domainuser "github.com/chrishamcode/marketplace-app-sub001/internal/domain/user"
)

// ChatHTTP exposes the messaging endpoints.
type ChatHTTP interface {
	ListMyConversations(c *gin.Context)
	ListMessages(c *gin.Context)
	SendMessage(c *gin.Context)
}

// ChatHandler bridges HTTP with the conversation ledger.
type ChatHandler struct {
	Ledger *chat.Ledger
	Logger *slog.Logger
}

// ListMyConversations returns one page of the caller's conversation list,
// newest activity first.
func (h ChatHandler) ListMyConversations(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}
	if h.Ledger == nil {
		respondError(c, http.StatusServiceUnavailable, codeStorageFailure, "messaging unavailable")
		return
	}
	page, ok := parsePageParam(c, "page", 1)
	if !ok {
		return
	}
	pageSize, ok := parsePageParam(c, "page_size", chat.DefaultPageSize)
	if !ok {
		return
	}

	list, err := h.Ledger.ListConversations(c.Request.Context(), domainuser.ID(principal.ID), page, pageSize)
	if err != nil {
		h.respondChatError(c, err, "list conversations", "user_id", principal.ID)
		return
	}
	c.JSON(http.StatusOK, dto.NewConversationList(list))
}

// ListMessages returns one page of the thread between the caller and the
// user_id counterpart, oldest first, and marks the caller's unread messages
// in that thread as read.
func (h ChatHandler) ListMessages(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}
	if h.Ledger == nil {
		respondError(c, http.StatusServiceUnavailable, codeStorageFailure, "messaging unavailable")
		return
	}
	otherID := strings.TrimSpace(c.Query("user_id"))
	if otherID == "" {
		respondError(c, http.StatusBadRequest, codeInvalidArgument, "user_id is required")
		return
	}
	listingID := strings.TrimSpace(c.Query("listing_id"))
	page, ok := parsePageParam(c, "page", 1)
	if !ok {
		return
	}
	pageSize, ok := parsePageParam(c, "page_size", chat.DefaultPageSize)
	if !ok {
		return
	}

	list, err := h.Ledger.ListMessages(
		c.Request.Context(),
		domainuser.ID(principal.ID),
		domainuser.ID(otherID),
		domainlistings.ListingID(listingID),
		page,
		pageSize,
	)
	if err != nil {
		h.respondChatError(c, err, "list messages", "user_id", principal.ID, "other_id", otherID)
		return
	}
	c.JSON(http.StatusOK, dto.NewChatMessageList(list))
}

// SendMessage appends a message from the caller to the receiver, optionally
// scoped to a listing.
func (h ChatHandler) SendMessage(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}
	if h.Ledger == nil {
		respondError(c, http.StatusServiceUnavailable, codeStorageFailure, "messaging unavailable")
		return
	}
	var req struct {
		ReceiverID string `json:"receiver_id"`
		ListingID  string `json:"listing_id"`
		Content    string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, codeInvalidArgument, "invalid payload")
		return
	}

	message, err := h.Ledger.SendMessage(
		c.Request.Context(),
		domainuser.ID(principal.ID),
		domainuser.ID(strings.TrimSpace(req.ReceiverID)),
		domainlistings.ListingID(strings.TrimSpace(req.ListingID)),
		req.Content,
	)
	if err != nil {
		h.respondChatError(c, err, "send message", "user_id", principal.ID, "receiver_id", req.ReceiverID)
		return
	}
	c.JSON(http.StatusCreated, dto.NewChatMessage(message))
}

func (h ChatHandler) respondChatError(c *gin.Context, err error, action string, attrs ...any) {
	switch {
	case errors.Is(err, chat.ErrCallerRequired):
		respondError(c, http.StatusUnauthorized, codeUnauthenticated, "auth required")
	case errors.Is(err, chat.ErrCounterpartRequired),
		errors.Is(err, chat.ErrReceiverRequired),
		errors.Is(err, chat.ErrContentRequired),
		errors.Is(err, chat.ErrSelfConversation),
		errors.Is(err, chat.ErrInvalidPage),
		errors.Is(err, chat.ErrInvalidPageSize):
		respondError(c, http.StatusBadRequest, codeInvalidArgument, err.Error())
	case errors.Is(err, domainuser.ErrNotFound):
		respondError(c, http.StatusNotFound, codeNotFound, "user not found")
	case errors.Is(err, domainlistings.ErrNotFound):
		respondError(c, http.StatusNotFound, codeNotFound, "listing not found")
	default:
		if h.Logger != nil {
			h.Logger.Error("chat call failed", append([]any{"action", action, "error", err}, attrs...)...)
		}
		respondError(c, http.StatusBadGateway, codeStorageFailure, "messaging unavailable")
	}
}

// parsePageParam reads a positive integer query parameter. An absent value
// falls back to the default; a malformed or non-positive value is rejected so
// pagination behaves deterministically.
func parsePageParam(c *gin.Context, name string, def int) (int, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		respondError(c, http.StatusBadRequest, codeInvalidArgument, name+" must be a positive integer")
		return 0, false
	}
	return value, true
}

var _ ChatHTTP = (*ChatHandler)(nil)
