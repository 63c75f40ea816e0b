// Package deepl is the Translation Provider backed by the DeepL REST API.
package deepl

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"douro_cms/internal/adapters/observability"
	"douro_cms/internal/domain"
)

const (
	proURL  = "https://api.deepl.com"
	freeURL = "https://api-free.deepl.com"
)

// StatusQuotaExceeded is DeepL's answer once the character quota is spent.
const StatusQuotaExceeded = 456

var (
	ErrUnauthorized = errors.New("deepl: unauthorized")
	ErrQuota        = errors.New("deepl: quota exceeded")
)

type Config struct {
	Key string
	// BaseURL overrides the endpoint picked from the key.
	BaseURL string
	RPS     int
	Timeout time.Duration
}

type Client struct {
	base string
	hc   *http.Client
	key  string
	rl   *rate.Limiter
}

func New(cfg Config) (*Client, error) {
	if cfg.Key == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = proURL
		if strings.HasSuffix(cfg.Key, ":fx") {
			base = freeURL
		}
	}
	return &Client{
		base: base,
		hc:   &http.Client{Timeout: cfg.Timeout},
		key:  cfg.Key,
		rl:   rate.NewLimiter(rate.Limit(cfg.RPS), cfg.RPS),
	}, nil
}

// NewProvider returns the DeepL client, or the disabled provider when no key is configured.
func NewProvider(cfg Config) domain.TranslationProvider {
	c, err := New(cfg)
	if err != nil {
		log.Warn().Msg("DEEPL_API_KEY not set; translations are disabled")
		return Disabled{}
	}
	return c
}

func (c *Client) BaseURL() string { return c.base }

// Disabled is the provider used when translation is not configured.
// Every call fails with domain.ErrTranslationDisabled without network I/O.
type Disabled struct{}

func (Disabled) Translate(_ context.Context, _ string, _, target domain.Locale) (string, error) {
	observability.ObserveTranslation(string(target), "disabled", 0)
	return "", domain.ErrTranslationDisabled
}

// Tag maps a locale to DeepL's language code. English is British English.
func Tag(l domain.Locale, asTarget bool) string {
	switch l {
	case domain.LocaleEN:
		if asTarget {
			return "EN-GB"
		}
		return "EN"
	case domain.LocaleFR:
		return "FR"
	case domain.LocalePT:
		if asTarget {
			return "PT-PT"
		}
		return "PT"
	}
	return strings.ToUpper(string(l))
}

type translateRequest struct {
	Text       []string `json:"text"`
	SourceLang string   `json:"source_lang"`
	TargetLang string   `json:"target_lang"`
}

type translateResponse struct {
	Translations []struct {
		DetectedSourceLanguage string `json:"detected_source_language"`
		Text                   string `json:"text"`
	} `json:"translations"`
}

func (c *Client) Translate(ctx context.Context, text string, source, target domain.Locale) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	start := time.Now()
	out, err := c.translate(ctx, text, source, target)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	observability.ObserveTranslation(string(target), outcome, time.Since(start))
	return out, err
}

func (c *Client) translate(ctx context.Context, text string, source, target domain.Locale) (string, error) {
	body, err := json.Marshal(translateRequest{
		Text:       []string{text},
		SourceLang: Tag(source, false),
		TargetLang: Tag(target, true),
	})
	if err != nil {
		return "", err
	}
	var res translateResponse
	if err := c.post(ctx, c.base+"/v2/translate", body, &res); err != nil {
		return "", err
	}
	if len(res.Translations) == 0 {
		return "", errors.New("deepl: empty translation list")
	}
	return res.Translations[0].Text, nil
}

// post performs a POST with client-side rate limiting, retries, and JSON decode into out.
// Retries on 429 and transient 5xx, honoring Retry-After when provided.
// Quota exhaustion (456) is final.
func (c *Client) post(ctx context.Context, url string, body []byte, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < 4; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "DeepL-Auth-Key "+c.key)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "douro-cms/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			observability.ObserveExternal("deepl", "translate", 0, time.Since(start))
			lastErr = err
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveExternal("deepl", "translate", resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			return err

		case http.StatusUnauthorized, http.StatusForbidden:
			resp.Body.Close()
			return ErrUnauthorized

		case StatusQuotaExceeded:
			resp.Body.Close()
			return ErrQuota

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("deepl: remote %d", resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("deepl: bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles from 200ms per attempt with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
