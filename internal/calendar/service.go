package calendar

import (
	"context"
	"fmt"
	"time"
)

// defaultMaxResults は1回の取得で返すイベントの最大件数。
const defaultMaxResults = 10

// clockTimeFormat は時刻付きイベントの表示フォーマット。
// 参照デプロイのロケール（en-US）の時計表記に合わせる。
const clockTimeFormat = "3:04:05 PM"

// noLocationPlaceholder は場所が未設定のイベントの表示値。
const noLocationPlaceholder = "No location specified"

// allDayLabel は終日イベントの時刻表示。
const allDayLabel = "All day"

// Event はAPIレスポンス用に整形されたイベント。
type Event struct {
	Name     string `json:"name"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Location string `json:"location"`
}

// EventLister はイベント一覧取得のインターフェース。Clientの部分集合。
type EventLister interface {
	ListEvents(ctx context.Context, accessToken string, params ListParams) ([]RawEvent, error)
}

// TextSanitizer はプロバイダー由来のテキストからマークアップを除去する。
type TextSanitizer interface {
	Sanitize(raw string) string
}

// ServiceConfig はカレンダーサービスの設定。
type ServiceConfig struct {
	MaxResults int // 0の場合はdefaultMaxResultsを使用
}

// Service はユーザーの委任トークンでカレンダーの予定を取得し、表示用に整形する。
type Service struct {
	client    EventLister
	sanitizer TextSanitizer
	config    ServiceConfig

	// now はテスト用に差し替え可能な現在時刻取得関数。
	now func() time.Time
}

// NewService はServiceを生成する。
func NewService(client EventLister, sanitizer TextSanitizer, config ServiceConfig) *Service {
	if config.MaxResults <= 0 {
		config.MaxResults = defaultMaxResults
	}
	return &Service{
		client:    client,
		sanitizer: sanitizer,
		config:    config,
		now:       time.Now,
	}
}

// UpcomingEvents は現在時刻以降の直近イベントを取得する。
// filterDateが空でない場合（YYYY-MM-DD）はその暦日
// （ローカル時刻00:00:00〜23:59:59.999）のイベントのみに絞り込む。
// 開始時刻順の単一イベント展開で取得し、繰り返しルールの解釈は行わない。
func (s *Service) UpcomingEvents(ctx context.Context, accessToken, filterDate string) ([]Event, error) {
	params := ListParams{
		TimeMin:      s.now(),
		MaxResults:   s.config.MaxResults,
		SingleEvents: true,
		OrderBy:      "startTime",
	}

	if filterDate != "" {
		dayStart, dayEnd, err := dayWindow(filterDate)
		if err != nil {
			return nil, err
		}
		params.TimeMin = dayStart
		params.TimeMax = dayEnd
	}

	raw, err := s.client.ListEvents(ctx, accessToken, params)
	if err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(raw))
	for _, r := range raw {
		events = append(events, s.format(r))
	}
	return events, nil
}

// format はAPIのイベントレコードを表示用イベントに変換する。
// 開始値はAPIが返したものをそのまま採用し、タイムゾーンの再解釈は行わない。
func (s *Service) format(r RawEvent) Event {
	e := Event{
		Name:     s.sanitize(r.Summary),
		Location: s.sanitize(r.Location),
	}

	if r.Start.DateTime != "" {
		e.Date = r.Start.DateTime
		e.Time = clockTime(r.Start.DateTime)
	} else {
		// 日付のみのイベントは終日扱い
		e.Date = r.Start.Date
		e.Time = allDayLabel
	}

	if e.Location == "" {
		e.Location = noLocationPlaceholder
	}
	return e
}

func (s *Service) sanitize(text string) string {
	if s.sanitizer == nil {
		return text
	}
	return s.sanitizer.Sanitize(text)
}

// dayWindow はYYYY-MM-DD形式の日付をローカル時刻の暦日ウィンドウに変換する。
// 戻り値は [00:00:00, 23:59:59.999] の両端。
// DST切り替え日は1日が24時間ではないため、期間の加算ではなく
// 同じ暦日の壁時計時刻から両端を直接構築する。
func dayWindow(date string) (time.Time, time.Time, error) {
	day, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}

	y, m, d := day.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, time.Local)
	dayEnd := time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), time.Local)
	return dayStart, dayEnd, nil
}

// clockTime はRFC 3339の開始時刻をロケール時計表記に整形する。
// パースできない値はそのまま返す。
func clockTime(dateTime string) string {
	t, err := time.Parse(time.RFC3339, dateTime)
	if err != nil {
		return dateTime
	}
	return t.Local().Format(clockTimeFormat)
}
