package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/kubotadaichi/HealthManagement/internal/config"
	"github.com/kubotadaichi/HealthManagement/internal/errs"
	"github.com/kubotadaichi/HealthManagement/internal/metrics"
)

// maxResponseBody caps how much of a Notion response is read.
const maxResponseBody = 1 << 20

// Page identifies a page created in Notion.
type Page struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// NotionService writes session summaries as pages of a Notion database.
// Each call makes exactly one request; it never retries.
type NotionService struct {
	log      *zap.Logger
	cfg      config.NotionConfig
	client   *http.Client
	location *time.Location
	now      func() time.Time
}

// NotionOption configures a NotionService.
type NotionOption func(*notionOptions)

type notionOptions struct {
	transport http.RoundTripper
	now       func() time.Time
}

// WithTransport sets the round tripper under the bearer-token transport.
func WithTransport(rt http.RoundTripper) NotionOption {
	return func(o *notionOptions) { o.transport = rt }
}

// WithNotionClock overrides the clock used for page titles.
func WithNotionClock(now func() time.Time) NotionOption {
	return func(o *notionOptions) { o.now = now }
}

// NewNotionService builds the export client. Missing credentials are not an
// error here; CreatePage reports them.
func NewNotionService(cfg config.NotionConfig, log *zap.Logger, opts ...NotionOption) (*NotionService, error) {
	o := notionOptions{transport: http.DefaultTransport, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	cfg.Properties = cfg.Properties.WithDefaults()

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading notion.timezone %q: %w", cfg.Timezone, err)
	}

	client := &http.Client{
		Timeout: cfg.Timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.APIKey}),
			Base:   o.transport,
		},
	}

	return &NotionService{
		log:      log,
		cfg:      cfg,
		client:   client,
		location: location,
		now:      o.now,
	}, nil
}

// CreatePage submits summary as a new page titled with the current time.
// Calling it twice creates two pages.
func (s *NotionService) CreatePage(ctx context.Context, summary metrics.SessionSummary) (*Page, error) {
	if missing := s.missingConfig(); len(missing) > 0 {
		return nil, &errs.ConfigurationError{Missing: missing}
	}

	title := s.now().In(s.location).Format(s.cfg.TitleLayout)
	body, err := json.Marshal(pageRequest{
		Parent:     pageParent{DatabaseID: s.cfg.DatabaseID},
		Properties: pageProperties(s.cfg.Properties, title, summary),
	})
	if err != nil {
		return nil, &errs.ExportError{Detail: "encoding page request", Err: err}
	}

	endpoint := strings.TrimRight(s.cfg.BaseURL, "/") + "/pages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &errs.ExportError{Detail: "building request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Notion-Version", s.cfg.Version)

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Warn("Notion request failed", zap.Error(err))
		return nil, &errs.ExportError{Detail: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, &errs.ExportError{Status: resp.StatusCode, Detail: "reading response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		exportErr := upstreamError(resp.StatusCode, respBody)
		s.log.Warn("Notion rejected page",
			zap.Int("status", resp.StatusCode),
			zap.String("code", exportErr.Code),
			zap.String("detail", exportErr.Detail),
		)
		return nil, exportErr
	}

	var page Page
	if err := json.Unmarshal(respBody, &page); err != nil {
		return nil, &errs.ExportError{Status: resp.StatusCode, Detail: "decoding response", Err: err}
	}

	s.log.Info("Notion page created", zap.String("page_id", page.ID), zap.String("title", title))
	return &page, nil
}

func (s *NotionService) missingConfig() []string {
	var missing []string
	if s.cfg.BaseURL == "" {
		missing = append(missing, "notion.base_url")
	}
	if s.cfg.APIKey == "" {
		missing = append(missing, "notion.api_key")
	}
	if s.cfg.DatabaseID == "" {
		missing = append(missing, "notion.database_id")
	}
	return missing
}

// upstreamError turns a Notion error body into an ExportError. Bodies that
// are not Notion errors are passed through as the detail.
func upstreamError(status int, body []byte) *errs.ExportError {
	var apiErr struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	exportErr := &errs.ExportError{Status: status}
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		exportErr.Code = apiErr.Code
		exportErr.Detail = apiErr.Message
		return exportErr
	}
	exportErr.Detail = strings.TrimSpace(string(body))
	if exportErr.Detail == "" {
		exportErr.Detail = http.StatusText(status)
	}
	return exportErr
}

type pageRequest struct {
	Parent     pageParent     `json:"parent"`
	Properties map[string]any `json:"properties"`
}

type pageParent struct {
	DatabaseID string `json:"database_id"`
}

type titleProperty struct {
	Title []richText `json:"title"`
}

type richText struct {
	Text textContent `json:"text"`
}

type textContent struct {
	Content string `json:"content"`
}

type numberProperty struct {
	Number float64 `json:"number"`
}

func pageProperties(names config.NotionProperties, title string, summary metrics.SessionSummary) map[string]any {
	return map[string]any{
		names.Title:                   titleProperty{Title: []richText{{Text: textContent{Content: title}}}},
		names.PVTMeanReactionTime:     numberProperty{Number: summary.PVTMeanReactionTime},
		names.PVTAccuracy:             numberProperty{Number: summary.PVTAccuracy},
		names.FlankerMeanReactionTime: numberProperty{Number: summary.FlankerMeanReactionTime},
		names.FlankerAccuracy:         numberProperty{Number: summary.FlankerAccuracy},
		names.EFSIFatigueScore:        numberProperty{Number: float64(summary.FatigueScore)},
		names.VASSleepiness:           numberProperty{Number: float64(summary.Sleepiness)},
		names.VASFatigue:              numberProperty{Number: float64(summary.Fatigue)},
	}
}
