// Package bitable implements the record-shaped table service against the
// Feishu Bitable open API. Vendor error codes are mapped onto the shared
// error taxonomy so the sync engine can classify failures without knowing
// the wire format.
package bitable

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	tablesync "github.com/tablekit/go-tablesync"
)

// Service implements tablesync.TableService for one bitable table.
type Service struct {
	cfg    Config
	client *http.Client
	tokens *tokenSource
	base   string
}

// New creates a bitable service for the table named by cfg.
func New(cfg Config) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Service{
		cfg:    cfg,
		client: cfg.httpClient(),
		tokens: newTokenSource(cfg),
		base:   fmt.Sprintf("%s/open-apis/bitable/v1/apps/%s/tables/%s", cfg.baseURL(), cfg.AppToken, cfg.TableID),
	}, nil
}

// apiResponse is the vendor envelope shared by every endpoint.
type apiResponse struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// ListFields returns the table's field descriptors, following pagination.
func (s *Service) ListFields(ctx context.Context) ([]tablesync.FieldDescriptor, error) {
	var fields []tablesync.FieldDescriptor
	pageToken := ""

	for {
		params := url.Values{"page_size": {"100"}}
		if pageToken != "" {
			params.Set("page_token", pageToken)
		}

		var data struct {
			Items []struct {
				FieldName string `json:"field_name"`
				Type      int    `json:"type"`
			} `json:"items"`
			HasMore   bool   `json:"has_more"`
			PageToken string `json:"page_token"`
		}
		if err := s.call(ctx, "list fields", http.MethodGet, s.base+"/fields", params, nil, &data); err != nil {
			return nil, err
		}

		for _, item := range data.Items {
			fields = append(fields, tablesync.FieldDescriptor{Name: item.FieldName, Type: item.Type})
		}
		if !data.HasMore {
			return fields, nil
		}
		pageToken = data.PageToken
	}
}

// PageRecords returns one page of records via the search endpoint.
func (s *Service) PageRecords(ctx context.Context, pageToken string) ([]tablesync.RemoteRecord, string, error) {
	params := url.Values{"page_size": {strconv.Itoa(s.cfg.pageSize())}}
	if pageToken != "" {
		params.Set("page_token", pageToken)
	}

	var data struct {
		Items []struct {
			RecordID string                 `json:"record_id"`
			Fields   map[string]interface{} `json:"fields"`
		} `json:"items"`
		HasMore   bool   `json:"has_more"`
		PageToken string `json:"page_token"`
	}
	// Search takes an empty body; filters and sorts would go there.
	if err := s.call(ctx, "search records", http.MethodPost, s.base+"/records/search", params, map[string]interface{}{}, &data); err != nil {
		return nil, "", err
	}

	records := make([]tablesync.RemoteRecord, 0, len(data.Items))
	for _, item := range data.Items {
		records = append(records, tablesync.RemoteRecord{ID: item.RecordID, Fields: item.Fields})
	}

	next := ""
	if data.HasMore {
		next = data.PageToken
	}
	return records, next, nil
}

// BatchCreate creates one record per row.
func (s *Service) BatchCreate(ctx context.Context, rows []tablesync.Row) error {
	records := make([]map[string]interface{}, len(rows))
	for i, row := range rows {
		records[i] = map[string]interface{}{"fields": row.Values}
	}

	params := url.Values{
		"client_token":             {clientToken()},
		"ignore_consistency_check": {"true"},
		"user_id_type":             {"open_id"},
	}
	body := map[string]interface{}{"records": records}
	return s.call(ctx, "batch create records", http.MethodPost, s.base+"/records/batch_create", params, body, nil)
}

// BatchUpdate replaces the fields of existing records.
func (s *Service) BatchUpdate(ctx context.Context, updates []tablesync.RecordUpdate) error {
	records := make([]map[string]interface{}, len(updates))
	for i, u := range updates {
		records[i] = map[string]interface{}{
			"record_id": u.ID,
			"fields":    u.Row.Values,
		}
	}

	params := url.Values{
		"ignore_consistency_check": {"true"},
		"user_id_type":             {"open_id"},
	}
	body := map[string]interface{}{"records": records}
	return s.call(ctx, "batch update records", http.MethodPost, s.base+"/records/batch_update", params, body, nil)
}

// BatchDelete removes records by ID.
func (s *Service) BatchDelete(ctx context.Context, ids []string) error {
	body := map[string]interface{}{"records": ids}
	return s.call(ctx, "batch delete records", http.MethodPost, s.base+"/records/batch_delete", nil, body, nil)
}

// call performs one authenticated request and decodes the vendor envelope
// into out. A non-zero vendor code becomes a RemoteError carrying that code;
// an HTTP failure with an undecodable body carries the status code instead.
func (s *Service) call(ctx context.Context, op, method, endpoint string, params url.Values, body, out interface{}) error {
	token, err := s.tokens.Token(ctx)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encoding request: %w", op, err)
		}
		reader = bytes.NewReader(encoded)
	}

	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("%s: building request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := s.client.Do(req)
	if err != nil {
		return &tablesync.RemoteError{Op: op, Code: 503, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return tablesync.NewRemoteError(op, resp.StatusCode, fmt.Sprintf("decoding response: %v", err))
	}
	if envelope.Code != 0 {
		remoteErr := tablesync.NewRemoteError(op, envelope.Code, envelope.Msg)
		if remoteErr.Is(tablesync.ErrUnauthorized) {
			s.tokens.Invalidate()
		}
		return remoteErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return tablesync.NewRemoteError(op, resp.StatusCode, resp.Status)
	}

	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("%s: decoding data: %w", op, err)
		}
	}
	return nil
}

// clientToken generates the idempotency token batch_create requires.
func clientToken() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "tablesync-fallback-token"
	}
	return hex.EncodeToString(buf)
}
