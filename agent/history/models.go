// Package history is the durable side of a session: conversations, wishlist
// items, and the cached product insights, stored in Postgres via bun.
package history

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/uptrace/bun"
)

const titleMaxRunes = 60

type conversationRow struct {
	bun.BaseModel `bun:"table:conversations,alias:c"`

	ID           string    `bun:"id,pk"`
	SessionID    string    `bun:"session_id,notnull"`
	Title        string    `bun:"title,notnull"`
	MessagesJSON string    `bun:"messages_json,notnull,default:'[]'"`
	UpdatedAt    time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

type wishlistRow struct {
	bun.BaseModel `bun:"table:wishlist_items,alias:w"`

	ID        string    `bun:"id,pk"`
	SessionID string    `bun:"session_id,notnull"`
	Store     string    `bun:"store,notnull"`
	Handle    string    `bun:"handle,notnull"`
	Title     string    `bun:"title"`
	ImageURL  string    `bun:"image_url"`
	Price     string    `bun:"price"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

type insightRow struct {
	bun.BaseModel `bun:"table:product_insights,alias:i"`

	Handle      string    `bun:"handle,pk"`
	Store       string    `bun:"store,pk"`
	InsightJSON string    `bun:"insight_json,notnull"`
	UpdatedAt   time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// WishlistItem is the API-facing wishlist entry.
type WishlistItem struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Store     string    `json:"store"`
	Handle    string    `json:"handle"`
	Title     string    `json:"title,omitempty"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	Price     string    `json:"price,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Insight is the cached AI synthesis for one (handle, store).
type Insight struct {
	Pros         []string       `json:"pros"`
	Cons         []string       `json:"cons"`
	WhoIsThisFor string         `json:"whoIsThisFor"`
	Features     []FeatureScore `json:"features"`
}

type FeatureScore struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// DeriveTitle builds a conversation title from the first user message,
// truncated to 60 runes with an ellipsis.
func DeriveTitle(firstUserMessage string) string {
	title := strings.TrimSpace(firstUserMessage)
	if title == "" {
		return "New Chat"
	}
	if utf8.RuneCountInString(title) <= titleMaxRunes {
		return title
	}
	runes := []rune(title)
	return string(runes[:titleMaxRunes]) + "…"
}
