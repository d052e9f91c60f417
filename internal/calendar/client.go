// Package calendar はGoogleカレンダー連携機能を提供する。
// Calendar APIの呼び出しと、APIレスポンスから表示用イベントへの整形を含む。
package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hitoshi/calview/internal/model"
)

// defaultEndpoint はGoogle Calendar APIのベースURL。
const defaultEndpoint = "https://www.googleapis.com/calendar/v3"

// primaryCalendarID はログインユーザーのメインカレンダーを指す特別なID。
const primaryCalendarID = "primary"

// ListParams はイベント一覧取得のパラメータ。
type ListParams struct {
	TimeMin      time.Time
	TimeMax      time.Time // ゼロ値の場合は指定しない
	MaxResults   int
	SingleEvents bool
	OrderBy      string
}

// RawEvent はCalendar APIが返すイベントレコード。
// startの解釈（終日判定）はサービス層で行い、ここでは値をそのまま保持する。
type RawEvent struct {
	Summary  string     `json:"summary"`
	Location string     `json:"location"`
	Start    EventStart `json:"start"`
}

// EventStart はイベント開始時刻。時刻付きイベントはDateTime、終日イベントはDateを持つ。
type EventStart struct {
	DateTime string `json:"dateTime"`
	Date     string `json:"date"`
}

// eventsListResponse はevents.listエンドポイントのレスポンス。
type eventsListResponse struct {
	Items []RawEvent `json:"items"`
}

// FetchMetrics はカレンダー取得のメトリクス記録インターフェース。
type FetchMetrics interface {
	RecordFetchLatency(duration time.Duration)
	RecordFetchStatus(statusCode int)
}

// Client はGoogle Calendar APIのクライアント。
// ユーザーごとの委任アクセストークンをBearerトークンとして送信する。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    FetchMetrics // nilでもよい
	endpoint   string       // テスト用にエンドポイントを差し替え可能
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger, metrics FetchMetrics) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		metrics:    metrics,
		endpoint:   defaultEndpoint,
	}
}

// SetEndpoint はAPIのベースURLを差し替える。テスト用。
func (c *Client) SetEndpoint(endpoint string) {
	c.endpoint = endpoint
}

// ListEvents はprimaryカレンダーのイベント一覧を取得する。
// 失敗時はmodel.ErrUpstreamFetchでラップしたエラーを返す。リトライはしない。
func (c *Client) ListEvents(ctx context.Context, accessToken string, params ListParams) ([]RawEvent, error) {
	reqURL, err := url.Parse(c.endpoint + "/calendars/" + primaryCalendarID + "/events")
	if err != nil {
		return nil, fmt.Errorf("カレンダーAPIのURL構築に失敗しました: %w", err)
	}

	q := reqURL.Query()
	q.Set("timeMin", params.TimeMin.Format(time.RFC3339))
	if !params.TimeMax.IsZero() {
		q.Set("timeMax", params.TimeMax.Format(time.RFC3339))
	}
	q.Set("maxResults", strconv.Itoa(params.MaxResults))
	q.Set("singleEvents", strconv.FormatBool(params.SingleEvents))
	if params.OrderBy != "" {
		q.Set("orderBy", params.OrderBy)
	}
	reqURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if c.metrics != nil {
		c.metrics.RecordFetchLatency(time.Since(start))
	}
	if err != nil {
		c.logger.Error("カレンダーAPIの呼び出しに失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %v", model.ErrUpstreamFetch, err)
	}
	defer resp.Body.Close()

	if c.metrics != nil {
		c.metrics.RecordFetchStatus(resp.StatusCode)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("カレンダーAPIがエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, fmt.Errorf("%w: calendar API returned status %d", model.ErrUpstreamFetch, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response body: %v", model.ErrUpstreamFetch, err)
	}

	var listResp eventsListResponse
	if err := json.Unmarshal(body, &listResp); err != nil {
		c.logger.Error("カレンダーAPIのレスポンスのパースに失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: parse response: %v", model.ErrUpstreamFetch, err)
	}

	return listResp.Items, nil
}
