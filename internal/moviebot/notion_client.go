package moviebot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type NotionClientOptions struct {
	BaseURL    string
	HTTPClient *http.Client
	APIVersion string
	UserAgent  string
}

// NotionClient is the document store backed by the Notion REST API.
type NotionClient struct {
	baseURL    string
	httpClient *http.Client
	apiVersion string
	userAgent  string
}

type notionErrorBody struct {
	Object  string `json:"object"`
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type notionObject struct {
	ID string `json:"id"`
}

func NewNotionClient(opts NotionClientOptions) *NotionClient {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.notion.com"
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	apiVersion := strings.TrimSpace(opts.APIVersion)
	if apiVersion == "" {
		apiVersion = "2022-06-28"
	}
	return &NotionClient{
		baseURL:    baseURL,
		httpClient: httpClient,
		apiVersion: apiVersion,
		userAgent:  strings.TrimSpace(opts.UserAgent),
	}
}

func (c *NotionClient) CreateCollection(ctx context.Context, token, parentPageID string) (string, error) {
	const op = "create_collection"
	respBody, err := c.post(ctx, op, "/v1/databases", token, createCollectionBody(parentPageID))
	if err != nil {
		return "", err
	}
	var created notionObject
	if err := json.Unmarshal(respBody, &created); err != nil {
		return "", &RemoteError{System: SystemNotion, Op: op, Stage: StageDecodeResponse, Cause: err}
	}
	if strings.TrimSpace(created.ID) == "" {
		return "", &RemoteError{System: SystemNotion, Op: op, Stage: StageDecodeResponse, Cause: fmt.Errorf("response has no database id")}
	}
	return created.ID, nil
}

func (c *NotionClient) InsertRecord(ctx context.Context, token, collectionID string, item NormalizedItem) error {
	_, err := c.post(ctx, "insert_record", "/v1/pages", token, insertRecordBody(collectionID, item))
	return err
}

func (c *NotionClient) post(ctx context.Context, op, path, token string, payload any) ([]byte, error) {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(token))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Notion-Version", c.apiVersion)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RemoteError{System: SystemNotion, Op: op, Stage: StageTransport, Cause: err}
	}
	respBody, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, &RemoteError{System: SystemNotion, Op: op, Stage: StageTransport, Cause: readErr}
	}
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return respBody, nil
	}

	var parsed notionErrorBody
	if err := json.Unmarshal(respBody, &parsed); err != nil || strings.TrimSpace(parsed.Message) == "" {
		if err == nil {
			err = fmt.Errorf("status=%d body=%q", resp.StatusCode, strings.TrimSpace(string(respBody)))
		}
		return nil, &RemoteError{System: SystemNotion, Op: op, Stage: StageDecodeErrorBody, Cause: err}
	}
	return nil, &RejectedError{
		System:  SystemNotion,
		Op:      op,
		Status:  resp.StatusCode,
		Code:    parsed.Code,
		Message: parsed.Message,
	}
}
