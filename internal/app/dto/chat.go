package dto

import (
	"time"

	"github.com/chrishamcode/marketplace-app-sub001/internal/domain/chat"
	"github.com/chrishamcode/marketplace-app-sub001/internal/domain/listings"
	"github.com/chrishamcode/marketplace-app-sub001/internal/domain/user"
)

// UserRef is the minimal participant projection in chat payloads.
type UserRef struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// ListingRef is the listing context of a conversation or message.
type ListingRef struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
	Image string `json:"image,omitempty"`
}

// PageMeta carries offset pagination metadata.
type PageMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// Conversation is one row of the conversation list.
type Conversation struct {
	ID            string      `json:"id"`
	Counterpart   UserRef     `json:"counterpart"`
	Listing       *ListingRef `json:"listing,omitempty"`
	LastContent   string      `json:"last_content"`
	LastSenderID  string      `json:"last_sender_id"`
	IsRead        bool        `json:"is_read"`
	LastCreatedAt time.Time   `json:"last_created_at"`
}

// ConversationList is a paginated collection.
type ConversationList struct {
	Items []Conversation `json:"items"`
	Meta  PageMeta       `json:"meta"`
}

// ChatMessage contains a single message payload.
type ChatMessage struct {
	ID        string      `json:"id"`
	Sender    UserRef     `json:"sender"`
	Receiver  UserRef     `json:"receiver"`
	Listing   *ListingRef `json:"listing,omitempty"`
	Content   string      `json:"content"`
	IsRead    bool        `json:"is_read"`
	CreatedAt time.Time   `json:"created_at"`
}

// ChatMessageList is a paginated message list.
type ChatMessageList struct {
	Items []ChatMessage `json:"items"`
	Meta  PageMeta      `json:"meta"`
}

func NewConversationList(list *chat.ConversationList) ConversationList {
	out := ConversationList{
		Items: make([]Conversation, 0, len(list.Items)),
		Meta:  newPageMeta(list.Page),
	}
	for _, item := range list.Items {
		out.Items = append(out.Items, Conversation{
			ID:            item.ID,
			Counterpart:   newUserRef(item.Counterpart),
			Listing:       newListingRef(item.Listing),
			LastContent:   item.LastContent,
			LastSenderID:  string(item.LastSender),
			IsRead:        item.IsRead,
			LastCreatedAt: item.LastCreatedAt,
		})
	}
	return out
}

func NewChatMessageList(list *chat.MessageList) ChatMessageList {
	out := ChatMessageList{
		Items: make([]ChatMessage, 0, len(list.Items)),
		Meta:  newPageMeta(list.Page),
	}
	for _, item := range list.Items {
		out.Items = append(out.Items, NewChatMessage(&item))
	}
	return out
}

func NewChatMessage(view *chat.MessageView) ChatMessage {
	return ChatMessage{
		ID:        string(view.ID),
		Sender:    newUserRef(view.Sender),
		Receiver:  newUserRef(view.Receiver),
		Listing:   newListingRef(view.Listing),
		Content:   view.Content,
		IsRead:    view.IsRead,
		CreatedAt: view.CreatedAt,
	}
}

func newUserRef(identity user.Identity) UserRef {
	return UserRef{ID: string(identity.ID), Name: identity.Name}
}

func newListingRef(summary *listings.Summary) *ListingRef {
	if summary == nil {
		return nil
	}
	return &ListingRef{
		ID:    string(summary.ID),
		Title: summary.Title,
		Image: summary.PrimaryImage,
	}
}

func newPageMeta(info chat.PageInfo) PageMeta {
	return PageMeta{
		Page:       info.Page,
		PageSize:   info.PageSize,
		TotalItems: info.TotalItems,
		TotalPages: info.TotalPages,
	}
}
