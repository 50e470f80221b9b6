package bitable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	tablesync "github.com/tablekit/go-tablesync"
)

// refreshMargin refreshes the token this long before its reported expiry so
// in-flight requests never race the cutoff.
const refreshMargin = 5 * time.Minute

// tokenSource fetches and caches the tenant access token. It is safe for
// concurrent use.
type tokenSource struct {
	appID     string
	appSecret string
	endpoint  string
	client    *http.Client

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func newTokenSource(cfg Config) *tokenSource {
	return &tokenSource{
		appID:     cfg.AppID,
		appSecret: cfg.AppSecret,
		endpoint:  cfg.baseURL() + "/open-apis/auth/v3/tenant_access_token/internal",
		client:    cfg.httpClient(),
	}
}

// Token returns a valid tenant access token, refreshing when the cached one
// is inside the refresh margin.
func (t *tokenSource) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.token != "" && time.Now().Before(t.expiresAt.Add(-refreshMargin)) {
		return t.token, nil
	}

	body, err := json.Marshal(map[string]string{
		"app_id":     t.appID,
		"app_secret": t.appSecret,
	})
	if err != nil {
		return "", fmt.Errorf("encoding token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", &tablesync.RemoteError{Op: "fetch tenant token", Code: 503, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	var result struct {
		Code              int    `json:"code"`
		Msg               string `json:"msg"`
		TenantAccessToken string `json:"tenant_access_token"`
		Expire            int    `json:"expire"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", tablesync.NewRemoteError("fetch tenant token", resp.StatusCode, fmt.Sprintf("decoding response: %v", err))
	}
	if result.Code != 0 {
		return "", tablesync.NewRemoteError("fetch tenant token", result.Code, result.Msg)
	}
	if result.TenantAccessToken == "" {
		return "", tablesync.NewRemoteError("fetch tenant token", resp.StatusCode, "response carried no token")
	}

	expire := result.Expire
	if expire == 0 {
		expire = 7200
	}
	t.token = result.TenantAccessToken
	t.expiresAt = time.Now().Add(time.Duration(expire) * time.Second)
	return t.token, nil
}

// Invalidate drops the cached token so the next call refreshes. Used after
// an authorization failure.
func (t *tokenSource) Invalidate() {
	t.mu.Lock()
	t.token = ""
	t.expiresAt = time.Time{}
	t.mu.Unlock()
}
