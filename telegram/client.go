package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	apperrors "telegram-intent-analyzer/backend/pkg/errors"
	"telegram-intent-analyzer/backend/pkg/logger"
	"telegram-intent-analyzer/backend/pkg/resilience"
)

// GatewayClient talks to the Telegram gateway sidecar over HTTP JSON. All
// calls run through a circuit breaker so a dead gateway fails fast.
type GatewayClient struct {
	client  *http.Client
	baseURL string
	breaker *resilience.CircuitBreaker
	log     *logger.Logger
}

func NewGatewayClient(baseURL string, timeout time.Duration, log *logger.Logger) (*GatewayClient, error) {
	if baseURL == "" {
		return nil, apperrors.NewNotConfigured("TELEGRAM_GATEWAY_URL is not set; chat service unavailable")
	}

	return &GatewayClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		breaker: resilience.New(resilience.DefaultConfig("telegram-gateway"), log),
		log:     log,
	}, nil
}

func (c *GatewayClient) IsAuthorized(ctx context.Context) (bool, error) {
	var out struct {
		Authorized bool `json:"authorized"`
	}
	if err := c.call(ctx, http.MethodGet, "/status", nil, &out); err != nil {
		return false, err
	}
	return out.Authorized, nil
}

func (c *GatewayClient) RequestCode(ctx context.Context, phone string) error {
	in := map[string]string{"phone": phone}
	return c.call(ctx, http.MethodPost, "/login", in, nil)
}

func (c *GatewayClient) SignIn(ctx context.Context, phone, code, password string) error {
	in := map[string]string{"phone": phone, "code": code}
	if password != "" {
		in["password"] = password
	}
	return c.call(ctx, http.MethodPost, "/verify", in, nil)
}

func (c *GatewayClient) ResolveEntity(ctx context.Context, chatID int64) (*Entity, error) {
	var out Entity
	path := fmt.Sprintf("/entities/%d", chatID)
	if err := c.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *GatewayClient) ListMessages(ctx context.Context, chatID int64, limit int) ([]RemoteMessage, error) {
	var out []RemoteMessage
	path := fmt.Sprintf("/chats/%d/messages?limit=%d", chatID, limit)
	if err := c.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *GatewayClient) ListDialogs(ctx context.Context, limit int) ([]Dialog, error) {
	var out []Dialog
	path := fmt.Sprintf("/dialogs?limit=%d", limit)
	if err := c.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// call performs one JSON round trip through the breaker, decoding into out
// when out is non-nil. Only transport failures and 5xx responses count
// against the breaker: a 401 from a signed-out session is a healthy gateway
// answering, and opening on those would lock out the login handshake.
func (c *GatewayClient) call(ctx context.Context, method, path string, in, out any) error {
	err := c.breaker.Execute(func() error {
		var body *bytes.Buffer
		if in != nil {
			data, err := json.Marshal(in)
			if err != nil {
				return err
			}
			body = bytes.NewBuffer(data)
		} else {
			body = bytes.NewBuffer(nil)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return apperrors.NewRemoteService("telegram gateway unreachable", err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			return resilience.Expected(apperrors.NewNotAuthenticated("telegram session is not signed in"))
		case resp.StatusCode == http.StatusNotFound:
			return resilience.Expected(apperrors.NewNotFound(apperrors.CodeChatNotFound, "entity not known to the gateway"))
		case resp.StatusCode >= 500:
			return apperrors.NewRemoteService(
				fmt.Sprintf("telegram gateway returned %d for %s", resp.StatusCode, path), nil)
		case resp.StatusCode >= 400:
			return resilience.Expected(apperrors.NewRemoteService(
				fmt.Sprintf("telegram gateway returned %d for %s", resp.StatusCode, path), nil))
		}

		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return apperrors.NewRemoteService("malformed gateway response", err)
		}
		return nil
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return apperrors.New(http.StatusServiceUnavailable, apperrors.CodeRemoteService,
			"telegram gateway temporarily unavailable").WithCause(err)
	}
	return err
}
