// Package state persists session-scoped data in Upstash Redis via REST: the
// schema-less taste profile and the per-store cart identity.
package state

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	ErrNotFound       = errors.New("state entry not found")
	ErrInvalidSession = errors.New("session id is empty")
	ErrInvalidStore   = errors.New("store is empty")
)

const (
	profileKeyPrefix     = "concierge:profile:"
	cartKeyPrefix        = "concierge:cart:"
	defaultStoreTTL      = 30 * 24 * time.Hour
	maxResponseSizeBytes = 2 << 20
)

type StoreOption func(*UpstashRedisStore)

func WithTTL(ttl time.Duration) StoreOption {
	return func(s *UpstashRedisStore) {
		s.ttl = ttl
	}
}

func WithHTTPClient(client *http.Client) StoreOption {
	return func(s *UpstashRedisStore) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// UpstashRedisStore implements both the profile and cart-identity stores on
// the Upstash REST protocol.
type UpstashRedisStore struct {
	baseURL    string
	token      string
	httpClient *http.Client
	ttl        time.Duration
}

type redisRESTResponse struct {
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

type UpstashRedisConfig struct {
	URL     string        `envconfig:"URL" split_words:"true" required:"true"`
	Token   string        `envconfig:"TOKEN" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

func NewUpstashRedisStore(cfg UpstashRedisConfig, opts ...StoreOption) (*UpstashRedisStore, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if baseURL == "" {
		return nil, errors.New("upstash redis url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid redis rest url: %w", err)
	}

	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("upstash redis token is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	store := &UpstashRedisStore{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		ttl:        defaultStoreTTL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	if store.ttl < 0 {
		return nil, errors.New("ttl must be >= 0")
	}
	return store, nil
}

/* ------------------------------ taste profile ----------------------------- */

// LoadProfile returns (nil, false, nil) when no profile exists; the profile
// is validated only as a JSON object, never interpreted.
func (s *UpstashRedisStore) LoadProfile(ctx context.Context, sessionID string) (map[string]any, bool, error) {
	key, err := profileKey(sessionID)
	if err != nil {
		return nil, false, err
	}

	raw, err := s.getString(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var profile map[string]any
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return nil, false, fmt.Errorf("profile is not a JSON object: %w", err)
	}
	return profile, true, nil
}

func (s *UpstashRedisStore) SaveProfile(ctx context.Context, sessionID string, profile map[string]any) error {
	key, err := profileKey(sessionID)
	if err != nil {
		return err
	}
	if profile == nil {
		profile = map[string]any{}
	}

	payload, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	return s.setString(ctx, key, string(payload))
}

/* ------------------------------ cart identity ----------------------------- */

// Cart ids live under an explicit (session, store) composite key so an id
// can never be replayed against a different store.

func (s *UpstashRedisStore) CartID(ctx context.Context, sessionID, store string) (string, bool, error) {
	key, err := cartKey(sessionID, store)
	if err != nil {
		return "", false, err
	}
	cartID, err := s.getString(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return cartID, true, nil
}

func (s *UpstashRedisStore) SaveCartID(ctx context.Context, sessionID, store, cartID string) error {
	key, err := cartKey(sessionID, store)
	if err != nil {
		return err
	}
	if strings.TrimSpace(cartID) == "" {
		return errors.New("cart id is empty")
	}
	return s.setString(ctx, key, cartID)
}

func (s *UpstashRedisStore) DeleteCartID(ctx context.Context, sessionID, store string) error {
	key, err := cartKey(sessionID, store)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx, []any{"DEL", key})
	return err
}

/* --------------------------------- internal ------------------------------- */

func profileKey(sessionID string) (string, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", ErrInvalidSession
	}
	return profileKeyPrefix + sessionID, nil
}

func cartKey(sessionID, store string) (string, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", ErrInvalidSession
	}
	if strings.TrimSpace(store) == "" {
		return "", ErrInvalidStore
	}
	return cartKeyPrefix + sessionID + ":" + store, nil
}

func (s *UpstashRedisStore) getString(ctx context.Context, key string) (string, error) {
	resp, err := s.exec(ctx, []any{"GET", key})
	if err != nil {
		return "", err
	}

	result := bytes.TrimSpace(resp.Result)
	if len(result) == 0 || bytes.Equal(result, []byte("null")) {
		return "", ErrNotFound
	}

	var value string
	if err := json.Unmarshal(result, &value); err != nil {
		return "", fmt.Errorf("decode redis value: %w", err)
	}
	return value, nil
}

func (s *UpstashRedisStore) setString(ctx context.Context, key, value string) error {
	cmd := []any{"SET", key, value}
	if s.ttl > 0 {
		cmd = append(cmd, "EX", ttlSeconds(s.ttl))
	}
	_, err := s.exec(ctx, cmd)
	return err
}

func (s *UpstashRedisStore) exec(ctx context.Context, command []any) (*redisRESTResponse, error) {
	if s == nil {
		return nil, errors.New("nil store")
	}
	if len(command) == 0 {
		return nil, errors.New("empty redis command")
	}

	body, err := json.Marshal(command)
	if err != nil {
		return nil, fmt.Errorf("marshal redis command: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build redis request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute redis request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, fmt.Errorf("read redis response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("redis http status=%d body=%s", resp.StatusCode, string(raw))
	}

	var parsed redisRESTResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode redis response: %w", err)
	}
	if parsed.Error != "" {
		return nil, errors.New(parsed.Error)
	}
	return &parsed, nil
}

func ttlSeconds(ttl time.Duration) int64 {
	seconds := ttl / time.Second
	if seconds <= 0 {
		return 1
	}
	if ttl%time.Second != 0 {
		seconds++
	}
	return int64(seconds)
}
