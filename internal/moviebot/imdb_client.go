package moviebot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
)

const imdbTitleLinkPrefix = "https://www.imdb.com/title/"

// imdbTitleSchema is the minimum shape a title response needs before it is
// decoded. Optional fields may be null; list entries must carry their names.
const imdbTitleSchema = `{
	"type": "object",
	"required": ["id", "title"],
	"properties": {
		"id": {"type": "string", "minLength": 1},
		"title": {"type": "string"},
		"type": {"type": ["string", "null"]},
		"year": {"type": ["string", "null"]},
		"image": {"type": ["string", "null"]},
		"releaseDate": {"type": ["string", "null"]},
		"runtimeMins": {"type": ["string", "null"]},
		"plot": {"type": ["string", "null"]},
		"contentRating": {"type": ["string", "null"]},
		"imDbRating": {"type": ["string", "null"]},
		"directorList": {"$ref": "#/$defs/people"},
		"starList": {"$ref": "#/$defs/people"},
		"genreList": {"$ref": "#/$defs/keyValues"},
		"countryList": {"$ref": "#/$defs/keyValues"},
		"languageList": {"$ref": "#/$defs/keyValues"}
	},
	"$defs": {
		"people": {
			"type": ["array", "null"],
			"items": {"type": "object", "required": ["name"], "properties": {"name": {"type": "string"}}}
		},
		"keyValues": {
			"type": ["array", "null"],
			"items": {"type": "object", "required": ["value"], "properties": {"value": {"type": "string"}}}
		}
	}
}`

type IMDbClientOptions struct {
	BaseURL    string
	DefaultKey string
	HTTPClient *http.Client
}

// IMDbClient is the metadata provider backed by imdb-api.com.
type IMDbClient struct {
	baseURL    string
	defaultKey string
	httpClient *http.Client

	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
}

type imdbTitle struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Type          string         `json:"type"`
	Year          string         `json:"year"`
	Image         string         `json:"image"`
	ReleaseDate   string         `json:"releaseDate"`
	RuntimeMins   string         `json:"runtimeMins"`
	Plot          string         `json:"plot"`
	DirectorList  []imdbPerson   `json:"directorList"`
	StarList      []imdbPerson   `json:"starList"`
	GenreList     []imdbKeyValue `json:"genreList"`
	CountryList   []imdbKeyValue `json:"countryList"`
	LanguageList  []imdbKeyValue `json:"languageList"`
	ContentRating string         `json:"contentRating"`
	IMDbRating    string         `json:"imDbRating"`
}

type imdbPerson struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type imdbKeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type imdbEnvelope struct {
	ErrorMessage string `json:"errorMessage"`
}

func NewIMDbClient(opts IMDbClientOptions) *IMDbClient {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://imdb-api.com"
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	return &IMDbClient{
		baseURL:    baseURL,
		defaultKey: strings.TrimSpace(opts.DefaultKey),
		httpClient: httpClient,
	}
}

func (c *IMDbClient) keyOrDefault(token string) string {
	if token = strings.TrimSpace(token); token != "" {
		return token
	}
	return c.defaultKey
}

func (c *IMDbClient) Search(ctx context.Context, token, query string, limit int) ([]SearchResult, error) {
	const op = "search"
	endpoint := fmt.Sprintf("%s/API/SearchTitle/%s/%s",
		c.baseURL, url.PathEscape(c.keyOrDefault(token)), url.PathEscape(query))
	body, err := c.get(ctx, op, endpoint)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Results []json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &RemoteError{System: SystemIMDb, Op: op, Stage: StageDecodeResponse, Cause: err}
	}
	raw := payload.Results
	if limit >= 0 && len(raw) > limit {
		raw = raw[:limit]
	}
	results := make([]SearchResult, 0, len(raw))
	for _, item := range raw {
		var result SearchResult
		if err := json.Unmarshal(item, &result); err != nil || result.ID == "" {
			continue
		}
		result.Description = firstSentence(result.Description)
		results = append(results, result)
	}
	return results, nil
}

func (c *IMDbClient) Detail(ctx context.Context, token, id string, locale language.Tag) (NormalizedItem, error) {
	const op = "title"
	endpoint := fmt.Sprintf("%s/%s/API/Title/%s/%s",
		c.baseURL, LocaleCode(locale), url.PathEscape(c.keyOrDefault(token)), url.PathEscape(id))
	body, err := c.get(ctx, op, endpoint)
	if err != nil {
		return NormalizedItem{}, err
	}
	if err := c.validateTitle(body); err != nil {
		return NormalizedItem{}, &RemoteError{System: SystemIMDb, Op: op, Stage: StageSchema, Cause: err}
	}
	var title imdbTitle
	if err := json.Unmarshal(body, &title); err != nil {
		return NormalizedItem{}, &RemoteError{System: SystemIMDb, Op: op, Stage: StageDecodeResponse, Cause: err}
	}
	return title.normalize(), nil
}

func (c *IMDbClient) Usage(ctx context.Context, token string) (Usage, error) {
	const op = "usage"
	endpoint := fmt.Sprintf("%s/API/Usage/%s", c.baseURL, url.PathEscape(c.keyOrDefault(token)))
	body, err := c.get(ctx, op, endpoint)
	if err != nil {
		return Usage{}, err
	}
	var payload struct {
		Count   uint64 `json:"count"`
		Maximum uint64 `json:"maximum"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return Usage{}, &RemoteError{System: SystemIMDb, Op: op, Stage: StageDecodeResponse, Cause: err}
	}
	return Usage{Count: payload.Count, Maximum: payload.Maximum}, nil
}

// get fetches endpoint and checks the errorMessage envelope every
// imdb-api.com response carries.
func (c *IMDbClient) get(ctx context.Context, op, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RemoteError{System: SystemIMDb, Op: op, Stage: StageTransport, Cause: err}
	}
	body, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, &RemoteError{System: SystemIMDb, Op: op, Stage: StageTransport, Cause: readErr}
	}
	var envelope imdbEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &RemoteError{System: SystemIMDb, Op: op, Stage: StageDecodeErrorBody, Cause: err}
	}
	if msg := strings.TrimSpace(envelope.ErrorMessage); msg != "" {
		return nil, &RejectedError{System: SystemIMDb, Op: op, Status: resp.StatusCode, Message: msg}
	}
	return body, nil
}

func (c *IMDbClient) validateTitle(body []byte) error {
	c.schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(imdbTitleSchema))
		if err != nil {
			c.schemaErr = fmt.Errorf("load title schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("imdb_title.json", doc); err != nil {
			c.schemaErr = fmt.Errorf("add title schema: %w", err)
			return
		}
		c.schema, c.schemaErr = compiler.Compile("imdb_title.json")
	})
	if c.schemaErr != nil {
		return c.schemaErr
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return err
	}
	return c.schema.Validate(inst)
}

func (t imdbTitle) normalize() NormalizedItem {
	item := NormalizedItem{
		Title:         t.Title,
		Category:      t.Type,
		ImageURL:      t.Image,
		Plot:          t.Plot,
		ContentRating: t.ContentRating,
		Link:          imdbTitleLinkPrefix + t.ID,
	}
	if year, err := strconv.Atoi(strings.TrimSpace(t.Year)); err == nil {
		item.Year = &year
	}
	if date, err := time.Parse(recordDateFmt, strings.TrimSpace(t.ReleaseDate)); err == nil {
		item.ReleaseDate = &date
	}
	if runtime, err := strconv.Atoi(strings.TrimSpace(t.RuntimeMins)); err == nil {
		item.RuntimeMinutes = &runtime
	}
	if rating, err := strconv.ParseFloat(strings.TrimSpace(t.IMDbRating), 64); err == nil {
		item.Rating = &rating
	}
	for _, p := range t.DirectorList {
		item.Directors = append(item.Directors, p.Name)
	}
	for _, p := range t.StarList {
		item.Stars = append(item.Stars, p.Name)
	}
	for _, kv := range t.GenreList {
		item.Genres = append(item.Genres, kv.Value)
	}
	for _, kv := range t.CountryList {
		item.Countries = append(item.Countries, kv.Value)
	}
	for _, kv := range t.LanguageList {
		item.Languages = append(item.Languages, kv.Value)
	}
	return item
}

// firstSentence keeps the description up to and including the first ')',
// which ends the year/kind annotation imdb-api.com puts first.
func firstSentence(description string) string {
	if idx := strings.IndexByte(description, ')'); idx >= 0 {
		return description[:idx+1]
	}
	return description
}

// TitleLink is the public page for a provider id.
func TitleLink(id string) string {
	return imdbTitleLinkPrefix + id
}
