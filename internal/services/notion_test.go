package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kubotadaichi/HealthManagement/internal/config"
	"github.com/kubotadaichi/HealthManagement/internal/errs"
	"github.com/kubotadaichi/HealthManagement/internal/metrics"
)

// countingTransport counts round trips before delegating.
type countingTransport struct {
	calls atomic.Int32
	base  http.RoundTripper
}

func (c *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c.calls.Add(1)
	return c.base.RoundTrip(req)
}

func notionConfig(baseURL string) config.NotionConfig {
	return config.NotionConfig{
		APIKey:      "secret_test",
		DatabaseID:  "db-123",
		BaseURL:     baseURL,
		Version:     "2022-06-28",
		Timeout:     5 * time.Second,
		TitleLayout: "2006年01月02日 15:04",
		Timezone:    "UTC",
	}
}

func sampleSummary() metrics.SessionSummary {
	return metrics.SessionSummary{
		PVTMeanReactionTime:     287.46,
		PVTAccuracy:             66.67,
		FlankerMeanReactionTime: 401.5,
		FlankerAccuracy:         85,
		FatigueScore:            52,
		Sleepiness:              40,
		Fatigue:                 55,
	}
}

func fixedClock() func() time.Time {
	return func() time.Time { return time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC) }
}

func TestNotionCreatePage(t *testing.T) {
	var got struct {
		Parent struct {
			DatabaseID string `json:"database_id"`
		} `json:"parent"`
		Properties map[string]json.RawMessage `json:"properties"`
	}
	var headers http.Header
	var path string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		path = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"page","id":"page-1","url":"https://www.notion.so/page-1"}`))
	}))
	defer server.Close()

	svc, err := NewNotionService(notionConfig(server.URL+"/"), zap.NewNop(), WithNotionClock(fixedClock()))
	require.NoError(t, err)

	page, err := svc.CreatePage(context.Background(), sampleSummary())
	require.NoError(t, err)
	assert.Equal(t, "page-1", page.ID)
	assert.Equal(t, "https://www.notion.so/page-1", page.URL)

	assert.Equal(t, "/pages", path)
	assert.Equal(t, "Bearer secret_test", headers.Get("Authorization"))
	assert.Equal(t, "2022-06-28", headers.Get("Notion-Version"))
	assert.Equal(t, "application/json", headers.Get("Content-Type"))

	assert.Equal(t, "db-123", got.Parent.DatabaseID)
	assert.Len(t, got.Properties, 8)
	assert.JSONEq(t, `{"title":[{"text":{"content":"2024年05月01日 09:30"}}]}`, string(got.Properties["Name"]))
	assert.JSONEq(t, `{"number":287.46}`, string(got.Properties["PVT-平均速度"]))
	assert.JSONEq(t, `{"number":66.67}`, string(got.Properties["PVT-正解率"]))
	assert.JSONEq(t, `{"number":401.5}`, string(got.Properties["Flanker-平均速度"]))
	assert.JSONEq(t, `{"number":85}`, string(got.Properties["Flanker-正解率"]))
	assert.JSONEq(t, `{"number":52}`, string(got.Properties["EFSI-過労スコア"]))
	assert.JSONEq(t, `{"number":40}`, string(got.Properties["VANS-眠気"]))
	assert.JSONEq(t, `{"number":55}`, string(got.Properties["VANS-疲労"]))
}

func TestNotionPropertyOverrides(t *testing.T) {
	var got struct {
		Properties map[string]json.RawMessage `json:"properties"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"id":"p","url":"u"}`))
	}))
	defer server.Close()

	cfg := notionConfig(server.URL)
	cfg.TitleLayout = "2006-01-02 15:04"
	cfg.Properties = config.NotionProperties{Title: "Session", VASFatigue: "Fatigue"}
	svc, err := NewNotionService(cfg, zap.NewNop(), WithNotionClock(fixedClock()))
	require.NoError(t, err)

	_, err = svc.CreatePage(context.Background(), sampleSummary())
	require.NoError(t, err)

	assert.Len(t, got.Properties, 8)
	assert.JSONEq(t, `{"title":[{"text":{"content":"2024-05-01 09:30"}}]}`, string(got.Properties["Session"]))
	assert.JSONEq(t, `{"number":55}`, string(got.Properties["Fatigue"]))
	assert.JSONEq(t, `{"number":40}`, string(got.Properties["VANS-眠気"]))
	assert.NotContains(t, got.Properties, "Name")
	assert.NotContains(t, got.Properties, "VANS-疲労")
}

func TestNotionTitleUsesTimezone(t *testing.T) {
	var title string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Properties struct {
				Name struct {
					Title []struct {
						Text struct {
							Content string `json:"content"`
						} `json:"text"`
					} `json:"title"`
				} `json:"Name"`
			} `json:"properties"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if len(body.Properties.Name.Title) > 0 {
			title = body.Properties.Name.Title[0].Text.Content
		}
		_, _ = w.Write([]byte(`{"id":"p","url":"u"}`))
	}))
	defer server.Close()

	cfg := notionConfig(server.URL)
	cfg.Timezone = "Asia/Tokyo"
	svc, err := NewNotionService(cfg, zap.NewNop(), WithNotionClock(fixedClock()))
	require.NoError(t, err)

	_, err = svc.CreatePage(context.Background(), sampleSummary())
	require.NoError(t, err)
	assert.Equal(t, "2024年05月01日 18:30", title)
}

func TestNotionMissingConfiguration(t *testing.T) {
	transport := &countingTransport{base: http.DefaultTransport}

	cfg := notionConfig("https://api.notion.com/v1")
	cfg.APIKey = ""
	cfg.DatabaseID = ""
	svc, err := NewNotionService(cfg, zap.NewNop(), WithTransport(transport))
	require.NoError(t, err)

	_, err = svc.CreatePage(context.Background(), sampleSummary())
	var cfgErr *errs.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, []string{"notion.api_key", "notion.database_id"}, cfgErr.Missing)
	assert.Zero(t, transport.calls.Load())
}

func TestNotionUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"object":"error","status":400,"code":"validation_error","message":"PVT Accuracy is not a property that exists."}`))
	}))
	defer server.Close()

	transport := &countingTransport{base: http.DefaultTransport}
	svc, err := NewNotionService(notionConfig(server.URL), zap.NewNop(), WithTransport(transport))
	require.NoError(t, err)

	_, err = svc.CreatePage(context.Background(), sampleSummary())
	var exportErr *errs.ExportError
	require.ErrorAs(t, err, &exportErr)
	assert.Equal(t, http.StatusBadRequest, exportErr.Status)
	assert.Equal(t, "validation_error", exportErr.Code)
	assert.Equal(t, "PVT Accuracy is not a property that exists.", exportErr.Detail)
	assert.EqualValues(t, 1, transport.calls.Load())
}

func TestNotionUpstreamErrorPlainBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream unavailable\n"))
	}))
	defer server.Close()

	svc, err := NewNotionService(notionConfig(server.URL), zap.NewNop())
	require.NoError(t, err)

	_, err = svc.CreatePage(context.Background(), sampleSummary())
	var exportErr *errs.ExportError
	require.ErrorAs(t, err, &exportErr)
	assert.Equal(t, http.StatusBadGateway, exportErr.Status)
	assert.Empty(t, exportErr.Code)
	assert.Equal(t, "upstream unavailable", exportErr.Detail)
}

type failingTransport struct{}

func (failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("connection refused")
}

func TestNotionTransportFailure(t *testing.T) {
	svc, err := NewNotionService(notionConfig("https://notion.invalid/v1"), zap.NewNop(), WithTransport(failingTransport{}))
	require.NoError(t, err)

	_, err = svc.CreatePage(context.Background(), sampleSummary())
	var exportErr *errs.ExportError
	require.ErrorAs(t, err, &exportErr)
	assert.Zero(t, exportErr.Status)
	assert.ErrorContains(t, err, "connection refused")
}

func TestNotionDoesNotRetry(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	svc, err := NewNotionService(notionConfig(server.URL), zap.NewNop())
	require.NoError(t, err)

	_, err = svc.CreatePage(context.Background(), sampleSummary())
	require.Error(t, err)
	assert.EqualValues(t, 1, hits.Load())
}

func TestNewNotionServiceBadTimezone(t *testing.T) {
	cfg := notionConfig("https://api.notion.com/v1")
	cfg.Timezone = "Mars/Olympus_Mons"
	_, err := NewNotionService(cfg, zap.NewNop())
	assert.Error(t, err)
}
