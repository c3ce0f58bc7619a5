package api

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
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/aap/internal/config"
	"github.com/shaiso/aap/internal/domain"
	"github.com/shaiso/aap/internal/telemetry"
)

const (
	// GatewayPath — базовый путь Gateway API.
	GatewayPath = "/api/gateway/v1/"

	// ControllerFallbackPath — базовый путь Controller, если discovery не удался.
	ControllerFallbackPath = "/api/v2/"

	// RequestIDHeader — заголовок с id запроса.
	RequestIDHeader = "X-Request-ID"

	userAgent       = "aap-cli"
	maxResponseBody = 64 * 1024 * 1024 // 64 MB, stdout больших jobs
)

// Client — HTTP-клиент одной группы API (Gateway или Controller).
//
// Безопасен для конкурентного использования.
type Client struct {
	group   domain.APIGroup
	host    string
	auth    string
	http    *http.Client
	metrics *telemetry.Metrics

	// base — базовый URL группы. Для Controller вычисляется при первом
	// запросе через discover.
	base     string
	discover func(ctx context.Context) string
	once     sync.Once
}

// Clients — пара клиентов для одного хоста AAP.
type Clients struct {
	Gateway    *Client
	Controller *Client
}

// NewHTTPClient создаёт *http.Client с таймаутом и TLS из конфигурации.
func NewHTTPClient(cfg *config.Config) (*http.Client, error) {
	tlsCfg, err := cfg.TLSConfig()
	if err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if tlsCfg != nil {
		transport.TLSClientConfig = tlsCfg
	}

	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
	}, nil
}

// New создаёт клиентов Gateway и Controller с общим *http.Client.
// metrics может быть nil.
func New(cfg *config.Config, metrics *telemetry.Metrics) (*Clients, error) {
	hc, err := NewHTTPClient(cfg)
	if err != nil {
		return nil, err
	}
	return NewWithHTTPClient(cfg, hc, metrics), nil
}

// NewWithHTTPClient — то же, что New, но с готовым *http.Client.
func NewWithHTTPClient(cfg *config.Config, hc *http.Client, metrics *telemetry.Metrics) *Clients {
	gw := &Client{
		group:   domain.APIGateway,
		host:    cfg.Host,
		auth:    cfg.AuthHeader(),
		http:    hc,
		metrics: metrics,
		base:    cfg.Host + GatewayPath,
	}

	ctrl := &Client{
		group:   domain.APIController,
		host:    cfg.Host,
		auth:    cfg.AuthHeader(),
		http:    hc,
		metrics: metrics,
	}
	ctrl.discover = ctrl.discoverController

	return &Clients{Gateway: gw, Controller: ctrl}
}

// For возвращает клиента группы API, обслуживающей ресурс.
func (cs *Clients) For(kind domain.Kind) *Client {
	if kind.API == domain.APIGateway {
		return cs.Gateway
	}
	return cs.Controller
}

// Group возвращает группу API клиента.
func (c *Client) Group() domain.APIGroup {
	return c.group
}

// BaseURL возвращает базовый URL группы API, выполняя discovery при необходимости.
func (c *Client) BaseURL(ctx context.Context) string {
	if c.discover != nil {
		c.once.Do(func() {
			c.base = c.discover(ctx)
		})
	}
	return c.base
}

// Get запрашивает один объект.
func (c *Client) Get(ctx context.Context, path string, params url.Values) (domain.Record, error) {
	return c.doRecord(ctx, http.MethodGet, path, params, nil)
}

// List запрашивает одну страницу коллекции.
func (c *Client) List(ctx context.Context, path string, params url.Values) (*Page, error) {
	body, err := c.doBody(ctx, http.MethodGet, path, params, nil, "application/json")
	if err != nil {
		return nil, err
	}

	var page Page
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("%w: decode page %s: %v", ErrDecode, path, err)
	}
	return &page, nil
}

// ListAll проходит по страницам через ссылку next и собирает не более
// limit записей. limit <= 0 — без ограничения.
func (c *Client) ListAll(ctx context.Context, path string, params url.Values, limit int) ([]domain.Record, error) {
	var out []domain.Record

	page, err := c.List(ctx, path, params)
	if err != nil {
		return nil, err
	}
	for {
		out = append(out, page.Results...)
		if limit > 0 && len(out) >= limit {
			return out[:limit], nil
		}
		if page.Next == "" {
			return out, nil
		}
		// next — абсолютный путь с уже закодированными параметрами.
		if page, err = c.List(ctx, page.Next, nil); err != nil {
			return nil, err
		}
	}
}

// Post отправляет JSON и возвращает созданный объект.
// Пустой ответ (202, 204) даёт nil без ошибки.
func (c *Client) Post(ctx context.Context, path string, body any) (domain.Record, error) {
	return c.doRecord(ctx, http.MethodPost, path, nil, body)
}

// Patch частично обновляет объект.
func (c *Client) Patch(ctx context.Context, path string, body any) (domain.Record, error) {
	return c.doRecord(ctx, http.MethodPatch, path, nil, body)
}

// Delete удаляет объект. Тело ответа игнорируется.
func (c *Client) Delete(ctx context.Context, path string) error {
	_, err := c.doBody(ctx, http.MethodDelete, path, nil, nil, "application/json")
	return err
}

// GetText запрашивает текстовый ресурс (stdout job).
func (c *Client) GetText(ctx context.Context, path string, params url.Values) (string, error) {
	body, err := c.doBody(ctx, http.MethodGet, path, params, nil, "text/plain")
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *Client) doRecord(ctx context.Context, method, path string, params url.Values, payload any) (domain.Record, error) {
	body, err := c.doBody(ctx, method, path, params, payload, "application/json")
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	var rec domain.Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, fmt.Errorf("%w: decode %s %s: %v", ErrDecode, method, path, err)
	}
	return rec, nil
}

// doBody выполняет запрос и возвращает тело успешного ответа.
func (c *Client) doBody(ctx context.Context, method, path string, params url.Values, payload any, accept string) ([]byte, error) {
	target := c.resolveURL(ctx, path, params)

	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrRequest, err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Authorization", c.auth)
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set(RequestIDHeader, requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logger := telemetry.WithRequestID(telemetry.FromContext(ctx), requestID)
	logger.Debug("api request", "api", c.group, "method", method, "url", target)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(string(c.group), method, 0, time.Since(start))
		logger.Debug("api request failed", "api", c.group, "method", method, "url", target, "error", err)
		return nil, fmt.Errorf("%w: %s %s: %w", ErrRequest, method, c.group, transportCause(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	elapsed := time.Since(start)
	c.metrics.ObserveRequest(string(c.group), method, resp.StatusCode, elapsed)
	logger.Debug("api response",
		"api", c.group,
		"status", resp.StatusCode,
		"duration_ms", elapsed.Milliseconds(),
		"bytes", len(body),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrRequest, err)
	}

	if resp.StatusCode >= 400 {
		return nil, &StatusError{
			Method:     method,
			URL:        target,
			StatusCode: resp.StatusCode,
			Detail:     parseDetail(body),
		}
	}
	return body, nil
}

// transportCause убирает URL из ошибки http.Client: адрес остаётся
// только в debug-логе.
func transportCause(err error) error {
	var uErr *url.Error
	if errors.As(err, &uErr) {
		return uErr.Err
	}
	return err
}

// resolveURL строит полный URL запроса.
//
// Путь, начинающийся с "/", считается абсолютным от хоста (ссылки next,
// discovery); остальные пути — относительно базового URL группы.
func (c *Client) resolveURL(ctx context.Context, path string, params url.Values) string {
	var target string
	switch {
	case strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://"):
		target = path
	case strings.HasPrefix(path, "/"):
		target = c.host + path
	default:
		target = c.BaseURL(ctx) + path
	}

	if len(params) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + params.Encode()
	}
	return target
}

// discoverController находит базовый URL Controller API.
//
//	GET /api/            → {"apis": {"controller": "/api/controller/"}}
//	GET /api/controller/ → {"current_version": "/api/controller/v2/"}
//
// Отдельно стоящий Controller отвечает на /api/ сразу current_version.
// При любой ошибке используется <host>/api/v2/.
func (c *Client) discoverController(ctx context.Context) string {
	logger := telemetry.FromContext(ctx)
	fallback := c.host + ControllerFallbackPath

	root, err := c.Get(ctx, "/api/", nil)
	if err != nil {
		logger.Debug("controller discovery failed, using fallback", "url", fallback, "error", err)
		return fallback
	}

	if v := versionPath(root); v != "" {
		return c.absolute(v)
	}

	ctrlPath, _ := root.Lookup("apis.controller")
	p, ok := ctrlPath.(string)
	if !ok || p == "" {
		logger.Debug("controller not advertised, using fallback", "url", fallback)
		return fallback
	}

	ctrlRoot, err := c.Get(ctx, c.relative(p), nil)
	if err != nil {
		logger.Debug("controller root request failed, using fallback", "url", fallback, "error", err)
		return fallback
	}
	if v := versionPath(ctrlRoot); v != "" {
		return c.absolute(v)
	}
	return fallback
}

func versionPath(rec domain.Record) string {
	if v := rec.String("current_version"); v != "" {
		return v
	}
	if v, ok := rec.Lookup("available_versions.v2"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// absolute превращает путь из ответа discovery в базовый URL со "/" в конце.
func (c *Client) absolute(p string) string {
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return p
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return c.host + p
}

// relative гарантирует абсолютный от хоста путь для запросов discovery.
func (c *Client) relative(p string) string {
	if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") || strings.HasPrefix(p, "/") {
		return p
	}
	return "/" + p
}
