package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	contractx "github.com/euporia-ai/concierge/agent/contract"
)

var ErrNotFound = errors.New("history entry not found")

type Config struct {
	DSN     string        `envconfig:"DSN" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"5s"`
}

// Store implements contract.ConversationStore plus the wishlist and insight
// caches on Postgres.
type Store struct {
	db  *bun.DB
	now func() time.Time
}

var _ contractx.ConversationStore = (*Store)(nil)

func New(cfg Config) (*Store, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(dsn),
		pgdriver.WithTimeout(cfg.Timeout),
	))
	db := bun.NewDB(sqldb, pgdialect.New())
	return NewWithDB(db), nil
}

// NewWithDB wraps an existing bun handle (tests).
func NewWithDB(db *bun.DB) *Store {
	return &Store{db: db, now: time.Now}
}

/* ------------------------------ conversations ----------------------------- */

func (s *Store) ListConversations(ctx context.Context, sessionID string) ([]contractx.ConversationSummary, error) {
	var rows []conversationRow
	err := s.db.NewSelect().
		Model(&rows).
		Column("id", "title", "updated_at").
		Where("session_id = ?", sessionID).
		Order("updated_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	out := make([]contractx.ConversationSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, contractx.ConversationSummary{
			ID:        row.ID,
			Title:     row.Title,
			UpdatedAt: row.UpdatedAt,
		})
	}
	return out, nil
}

func (s *Store) CreateConversation(ctx context.Context, sessionID, title string) (string, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", errors.New("session id is required")
	}
	if strings.TrimSpace(title) == "" {
		title = "New Chat"
	}

	row := &conversationRow{
		ID:           uuid.NewString(),
		SessionID:    sessionID,
		Title:        title,
		MessagesJSON: "[]",
		UpdatedAt:    s.now().UTC(),
	}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return "", fmt.Errorf("create conversation: %w", err)
	}
	return row.ID, nil
}

func (s *Store) GetConversation(ctx context.Context, id, sessionID string) (*contractx.Conversation, error) {
	row := new(conversationRow)
	err := s.db.NewSelect().
		Model(row).
		Where("id = ?", id).
		Where("session_id = ?", sessionID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get conversation: %w", err)
	}

	var messages []contractx.Message
	if err := json.Unmarshal([]byte(row.MessagesJSON), &messages); err != nil {
		return nil, fmt.Errorf("decode conversation messages: %w", err)
	}

	return &contractx.Conversation{
		ID:        row.ID,
		SessionID: row.SessionID,
		Title:     row.Title,
		Messages:  messages,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

// UpdateConversation replaces the transcript; an empty title derives one
// from the first user message.
func (s *Store) UpdateConversation(ctx context.Context, id, sessionID string, messages []contractx.Message, title string) error {
	if messages == nil {
		messages = []contractx.Message{}
	}
	payload, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("marshal conversation messages: %w", err)
	}

	if strings.TrimSpace(title) == "" {
		for _, m := range messages {
			if m.Role == contractx.RoleUser {
				title = DeriveTitle(m.Content)
				break
			}
		}
	}

	q := s.db.NewUpdate().
		Model((*conversationRow)(nil)).
		Set("messages_json = ?", string(payload)).
		Set("updated_at = ?", s.now().UTC()).
		Where("id = ?", id).
		Where("session_id = ?", sessionID)
	if strings.TrimSpace(title) != "" {
		q = q.Set("title = ?", title)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return fmt.Errorf("update conversation: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

/* -------------------------------- wishlist -------------------------------- */

func (s *Store) ListWishlist(ctx context.Context, sessionID string) ([]WishlistItem, error) {
	var rows []wishlistRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list wishlist: %w", err)
	}

	out := make([]WishlistItem, 0, len(rows))
	for _, row := range rows {
		out = append(out, WishlistItem{
			ID:        row.ID,
			SessionID: row.SessionID,
			Store:     row.Store,
			Handle:    row.Handle,
			Title:     row.Title,
			ImageURL:  row.ImageURL,
			Price:     row.Price,
			CreatedAt: row.CreatedAt,
		})
	}
	return out, nil
}

func (s *Store) AddWishlistItem(ctx context.Context, item WishlistItem) (string, error) {
	if strings.TrimSpace(item.SessionID) == "" {
		return "", errors.New("session id is required")
	}
	if strings.TrimSpace(item.Handle) == "" {
		return "", errors.New("handle is required")
	}

	row := &wishlistRow{
		ID:        uuid.NewString(),
		SessionID: item.SessionID,
		Store:     item.Store,
		Handle:    item.Handle,
		Title:     item.Title,
		ImageURL:  item.ImageURL,
		Price:     item.Price,
		CreatedAt: s.now().UTC(),
	}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return "", fmt.Errorf("add wishlist item: %w", err)
	}
	return row.ID, nil
}

func (s *Store) DeleteWishlistItem(ctx context.Context, id, sessionID string) error {
	res, err := s.db.NewDelete().
		Model((*wishlistRow)(nil)).
		Where("id = ?", id).
		Where("session_id = ?", sessionID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete wishlist item: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

/* ----------------------------- insight cache ------------------------------ */

func (s *Store) GetInsight(ctx context.Context, handle, store string) (*Insight, error) {
	row := new(insightRow)
	err := s.db.NewSelect().
		Model(row).
		Where("handle = ?", handle).
		Where("store = ?", store).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get insight: %w", err)
	}

	insight := new(Insight)
	if err := json.Unmarshal([]byte(row.InsightJSON), insight); err != nil {
		return nil, fmt.Errorf("decode cached insight: %w", err)
	}
	return insight, nil
}

func (s *Store) SaveInsight(ctx context.Context, handle, store string, insight *Insight) error {
	if insight == nil {
		return errors.New("insight is required")
	}
	payload, err := json.Marshal(insight)
	if err != nil {
		return fmt.Errorf("marshal insight: %w", err)
	}

	row := &insightRow{
		Handle:      handle,
		Store:       store,
		InsightJSON: string(payload),
		UpdatedAt:   s.now().UTC(),
	}
	_, err = s.db.NewInsert().
		Model(row).
		On("CONFLICT (handle, store) DO UPDATE").
		Set("insight_json = EXCLUDED.insight_json").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("save insight: %w", err)
	}
	return nil
}
