package vk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/udisondev/polebot/internal/model"
)

const (
	apiBaseURL = "https://api.vk.com/method/"
	apiVersion = "5.131"

	// peerOffset -- смещение peer_id беседы; messages.send адресуется
	// по chat_id = peer_id - peerOffset.
	peerOffset = 2_000_000_000
)

// Client is the VK Bots API client: long poll ingestion plus outbound
// messaging over a single shared HTTP client.
type Client struct {
	httpc   *http.Client
	baseURL string
	groupID int64
	token   string
	wait    int

	// Дескриптор long poll сессии, выдаётся Handshake.
	mu     sync.Mutex
	server string
	key    string
	ts     string
}

// NewClient creates a Client for the given community.
// wait is the long poll hold time in seconds.
func NewClient(groupID int64, token string, wait int) *Client {
	return &Client{
		httpc: &http.Client{
			// Долгий poll держит соединение wait секунд, таймаут с запасом.
			Timeout: time.Duration(wait+15) * time.Second,
		},
		baseURL: apiBaseURL,
		groupID: groupID,
		token:   token,
		wait:    wait,
	}
}

// Close releases idle connections of the shared HTTP client.
// Вызывается после остановки воркеров.
func (c *Client) Close() {
	c.httpc.CloseIdleConnections()
}

// apiError mirrors the VK error payload.
type apiError struct {
	Code int    `json:"error_code"`
	Msg  string `json:"error_msg"`
}

// callMethod POSTs a form-encoded API request and returns the raw
// "response" payload.
func (c *Client) callMethod(ctx context.Context, method string, params url.Values) (json.RawMessage, error) {
	params.Set("access_token", c.token)
	params.Set("v", apiVersion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+method, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &TransportError{Op: method, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{Op: method, Err: fmt.Errorf("status %s", resp.Status)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: method, Err: err}
	}

	var envelope struct {
		Error    *apiError       `json:"error"`
		Response json.RawMessage `json:"response"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &ProtocolError{Op: method, Msg: "malformed response: " + err.Error()}
	}
	if envelope.Error != nil {
		return nil, &ProtocolError{Op: method, Code: envelope.Error.Code, Msg: envelope.Error.Msg}
	}

	slog.Debug("vk api call", "method", method)
	return envelope.Response, nil
}

// Handshake fetches a fresh long poll server descriptor.
// Вызывается при старте и после ProtocolError от LongPoll.
func (c *Client) Handshake(ctx context.Context) error {
	params := url.Values{}
	params.Set("group_id", strconv.FormatInt(c.groupID, 10))

	raw, err := c.callMethod(ctx, "groups.getLongPollServer", params)
	if err != nil {
		return fmt.Errorf("fetching long poll server: %w", err)
	}

	var descriptor struct {
		Server string `json:"server"`
		Key    string `json:"key"`
		Ts     string `json:"ts"`
	}
	if err := json.Unmarshal(raw, &descriptor); err != nil {
		return &ProtocolError{Op: "groups.getLongPollServer", Msg: "malformed descriptor: " + err.Error()}
	}

	c.mu.Lock()
	c.server = descriptor.Server
	c.key = descriptor.Key
	c.ts = descriptor.Ts
	c.mu.Unlock()

	slog.Info("long poll session established", "server", descriptor.Server, "ts", descriptor.Ts)
	return nil
}

// LongPoll holds a_check until updates arrive or the wait expires.
// failed=1 обновляет ts и возвращает пустой батч; failed=2/3 --
// ProtocolError, вызывающий обязан сделать новый Handshake.
func (c *Client) LongPoll(ctx context.Context) ([]model.Update, error) {
	c.mu.Lock()
	server, key, ts := c.server, c.key, c.ts
	c.mu.Unlock()

	if server == "" {
		return nil, &ProtocolError{Op: "a_check", Msg: "no long poll session"}
	}

	params := url.Values{}
	params.Set("act", "a_check")
	params.Set("key", key)
	params.Set("ts", ts)
	params.Set("wait", strconv.Itoa(c.wait))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building a_check request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "a_check", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{Op: "a_check", Err: fmt.Errorf("status %s", resp.Status)}
	}

	var poll struct {
		Ts      string         `json:"ts"`
		Updates []model.Update `json:"updates"`
		Failed  int            `json:"failed"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&poll); err != nil {
		return nil, &ProtocolError{Op: "a_check", Msg: "malformed response: " + err.Error()}
	}

	switch poll.Failed {
	case 0:
		// ok
	case 1:
		// история событий устарела частично, достаточно принять новый ts
		c.mu.Lock()
		c.ts = poll.Ts
		c.mu.Unlock()
		return nil, nil
	default:
		return nil, &ProtocolError{Op: "a_check", Failed: poll.Failed}
	}

	c.mu.Lock()
	c.ts = poll.Ts
	c.mu.Unlock()

	return poll.Updates, nil
}

// SendMessage sends text into the conversation identified by peerID.
// Keyboard -- сериализованный JSON или "" без клавиатуры. Доставка
// at-least-once: подтверждение не читается, повтор на совести вызывающего.
func (c *Client) SendMessage(ctx context.Context, peerID int64, text, keyboard string) error {
	params := url.Values{}
	params.Set("random_id", strconv.FormatInt(int64(rand.Int32()), 10))
	params.Set("chat_id", strconv.FormatInt(peerID-peerOffset, 10))
	params.Set("message", text)
	if keyboard != "" {
		params.Set("keyboard", keyboard)
	}

	if _, err := c.callMethod(ctx, "messages.send", params); err != nil {
		return fmt.Errorf("sending message to peer %d: %w", peerID, err)
	}
	return nil
}

// FetchMembers returns the profiles of conversation participants.
func (c *Client) FetchMembers(ctx context.Context, peerID int64) ([]model.User, error) {
	params := url.Values{}
	params.Set("peer_id", strconv.FormatInt(peerID, 10))
	params.Set("fields", "id")

	raw, err := c.callMethod(ctx, "messages.getConversationMembers", params)
	if err != nil {
		return nil, fmt.Errorf("fetching members of peer %d: %w", peerID, err)
	}

	var members struct {
		Profiles []struct {
			ID        int64  `json:"id"`
			FirstName string `json:"first_name"`
			LastName  string `json:"last_name"`
		} `json:"profiles"`
	}
	if err := json.Unmarshal(raw, &members); err != nil {
		return nil, &ProtocolError{Op: "messages.getConversationMembers", Msg: "malformed response: " + err.Error()}
	}

	users := make([]model.User, 0, len(members.Profiles))
	for _, p := range members.Profiles {
		users = append(users, model.User{
			VkID:     p.ID,
			Name:     p.FirstName,
			LastName: p.LastName,
		})
	}
	return users, nil
}
