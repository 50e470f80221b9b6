package bitable

import (
	"net/http"
	"time"

	tablesync "github.com/tablekit/go-tablesync"
)

const defaultBaseURL = "https://open.feishu.cn"

// Config represents configuration specific to the bitable adapter.
type Config struct {
	AppID     string
	AppSecret string
	AppToken  string // the bitable app the table lives in
	TableID   string

	// BaseURL overrides the API host, mainly for tests. Empty means the
	// public endpoint.
	BaseURL string

	// PageSize is the records-per-page for reads. Zero means 500.
	PageSize int

	// HTTPClient overrides the transport. Nil means a client with a 30s
	// timeout.
	HTTPClient *http.Client
}

// Validate rejects configurations the adapter cannot authenticate with.
func (c Config) Validate() error {
	if c.AppID == "" {
		return tablesync.NewConfigError("app_id", "must not be empty")
	}
	if c.AppSecret == "" {
		return tablesync.NewConfigError("app_secret", "must not be empty")
	}
	if c.AppToken == "" {
		return tablesync.NewConfigError("app_token", "must not be empty")
	}
	if c.TableID == "" {
		return tablesync.NewConfigError("table_id", "must not be empty")
	}
	return nil
}

func (c Config) baseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return defaultBaseURL
}

func (c Config) pageSize() int {
	if c.PageSize > 0 {
		return c.PageSize
	}
	return 500
}

func (c Config) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 30 * time.Second}
}
