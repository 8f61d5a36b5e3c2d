package weather

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/smdeveloper7/mcp-services/client"
)

// DefaultBaseURL is the production endpoint for the village forecast
// service.
const DefaultBaseURL = "http://apis.data.go.kr/1360000/VilageFcstInfoService_2.0"

// resultOK is the weather envelope's success code. Unlike the tourism
// services it is two digits.
const resultOK = "00"

// kst is the observation timezone; base dates and times are always
// expressed in it.
var kst = time.FixedZone("KST", 9*60*60)

const (
	nowcastTTL  = 10 * time.Minute
	forecastTTL = 30 * time.Minute
	villageTTL  = time.Hour
)

func operationTable() map[string]client.Operation {
	common := []string{"pageNo", "numOfRows"}
	required := []string{"base_date", "base_time", "nx", "ny"}
	return map[string]client.Operation{
		"getUltraSrtNcst": {
			Name: "getUltraSrtNcst", Path: "/getUltraSrtNcst",
			Required: required, Optional: common, TTL: nowcastTTL,
		},
		"getUltraSrtFcst": {
			Name: "getUltraSrtFcst", Path: "/getUltraSrtFcst",
			Required: required, Optional: common, TTL: forecastTTL,
		},
		"getVilageFcst": {
			Name: "getVilageFcst", Path: "/getVilageFcst",
			Required: required, Optional: common, TTL: villageTTL,
		},
	}
}

// Service is a typed facade over the village forecast API. Construct
// with New; safe for concurrent use.
type Service struct {
	c   *client.Client
	now func() time.Time
}

// New builds a weather service client against the production endpoint.
// Extra options are forwarded to the underlying client.
func New(apiKey string, opts ...client.Option) (*Service, error) {
	return NewWithBaseURL(DefaultBaseURL, apiKey, opts...)
}

// NewWithBaseURL is New with an explicit endpoint, for gateways and
// tests.
func NewWithBaseURL(baseURL, apiKey string, opts ...client.Option) (*Service, error) {
	base := []client.Option{
		client.WithAPIKey(apiKey),
		client.WithOperations(operationTable()),
		client.WithCommonParams(map[string]string{"dataType": "JSON"}),
		client.WithCheckResponse(checkResponse),
	}
	c, err := client.New(baseURL, append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	return &Service{c: c, now: time.Now}, nil
}

type envelope struct {
	Response struct {
		Header struct {
			ResultCode string `json:"resultCode"`
			ResultMsg  string `json:"resultMsg"`
		} `json:"header"`
		Body struct {
			Items      itemsField `json:"items"`
			TotalCount int        `json:"totalCount"`
		} `json:"body"`
	} `json:"response"`
}

type record struct {
	Category  string `json:"category"`
	BaseDate  string `json:"baseDate"`
	BaseTime  string `json:"baseTime"`
	FcstDate  string `json:"fcstDate"`
	FcstTime  string `json:"fcstTime"`
	FcstValue string `json:"fcstValue"`
	ObsrValue string `json:"obsrValue"`
}

// itemsField tolerates the empty-string form the upstream uses for
// header-only responses in place of the items object.
type itemsField struct {
	Item []record `json:"item"`
}

func (f *itemsField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] == '"' || string(data) == "null" {
		return nil
	}
	type plain itemsField
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*f = itemsField(p)
	return nil
}

// checkResponse rejects envelopes whose result code signals failure.
// "NO_DATA" style failures are terminal for the requested base time;
// retrying cannot help and the body is never cached.
func checkResponse(op string, status int, body []byte) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return &client.Error{
			Kind:    client.KindUpstream,
			Op:      op,
			Message: "malformed response envelope",
			Status:  status,
			Cause:   err,
		}
	}
	if code := env.Response.Header.ResultCode; code != resultOK {
		return &client.Error{
			Kind:    client.KindUpstream,
			Op:      op,
			Message: fmt.Sprintf("upstream result %s: %s", code, env.Response.Header.ResultMsg),
			Status:  status,
		}
	}
	return nil
}

// Nowcast is the current observed conditions at one grid cell.
type Nowcast struct {
	BaseDate string
	BaseTime string
	Grid     GridPoint
	// Values maps observation categories (T1H, RN1, REH, WSD, ...)
	// to their raw string values.
	Values map[string]string
}

// TemperatureC returns the T1H observation, NaN when absent.
func (n *Nowcast) TemperatureC() float64 { return floatOrNaN(n.Values["T1H"]) }

// HumidityPercent returns the REH observation, NaN when absent.
func (n *Nowcast) HumidityPercent() float64 { return floatOrNaN(n.Values["REH"]) }

// WindSpeedMS returns the WSD observation, NaN when absent.
func (n *Nowcast) WindSpeedMS() float64 { return floatOrNaN(n.Values["WSD"]) }

func floatOrNaN(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// ForecastEntry is one forecast slot: every category predicted for a
// single date and time.
type ForecastEntry struct {
	Date   string // YYYYMMDD
	Time   string // HHMM
	Values map[string]string
}

// Forecast is a sequence of forecast slots for one grid cell, sorted
// chronologically.
type Forecast struct {
	BaseDate string
	BaseTime string
	Grid     GridPoint
	Entries  []ForecastEntry
}

// CurrentConditions fetches the ultra-short nowcast for a WGS84
// coordinate.
func (s *Service) CurrentConditions(ctx context.Context, lon, lat float64) (*Nowcast, error) {
	grid, err := ToGrid(lon, lat)
	if err != nil {
		return nil, err
	}
	baseDate, baseTime := nowcastBase(s.now().In(kst))

	records, err := s.fetch(ctx, "getUltraSrtNcst", grid, baseDate, baseTime, 10)
	if err != nil {
		return nil, err
	}

	nc := &Nowcast{
		BaseDate: baseDate,
		BaseTime: baseTime,
		Grid:     grid,
		Values:   make(map[string]string, len(records)),
	}
	for _, rec := range records {
		nc.Values[rec.Category] = rec.ObsrValue
	}
	return nc, nil
}

// HourlyForecast fetches the ultra-short forecast, covering roughly
// the next six hours in one-hour slots.
func (s *Service) HourlyForecast(ctx context.Context, lon, lat float64) (*Forecast, error) {
	grid, err := ToGrid(lon, lat)
	if err != nil {
		return nil, err
	}
	baseDate, baseTime := hourlyBase(s.now().In(kst))
	return s.forecast(ctx, "getUltraSrtFcst", grid, baseDate, baseTime, 60)
}

// VillageForecast fetches the three-day village forecast in three-hour
// slots, including daily minimum and maximum temperatures.
func (s *Service) VillageForecast(ctx context.Context, lon, lat float64) (*Forecast, error) {
	grid, err := ToGrid(lon, lat)
	if err != nil {
		return nil, err
	}
	baseDate, baseTime := villageBase(s.now().In(kst))
	return s.forecast(ctx, "getVilageFcst", grid, baseDate, baseTime, 1000)
}

func (s *Service) forecast(ctx context.Context, op string, grid GridPoint, baseDate, baseTime string, rows int) (*Forecast, error) {
	records, err := s.fetch(ctx, op, grid, baseDate, baseTime, rows)
	if err != nil {
		return nil, err
	}

	slots := make(map[string]*ForecastEntry)
	for _, rec := range records {
		key := rec.FcstDate + rec.FcstTime
		entry, ok := slots[key]
		if !ok {
			entry = &ForecastEntry{
				Date:   rec.FcstDate,
				Time:   rec.FcstTime,
				Values: make(map[string]string),
			}
			slots[key] = entry
		}
		entry.Values[rec.Category] = rec.FcstValue
	}

	entries := make([]ForecastEntry, 0, len(slots))
	for _, entry := range slots {
		entries = append(entries, *entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Date != entries[j].Date {
			return entries[i].Date < entries[j].Date
		}
		return entries[i].Time < entries[j].Time
	})

	return &Forecast{
		BaseDate: baseDate,
		BaseTime: baseTime,
		Grid:     grid,
		Entries:  entries,
	}, nil
}

func (s *Service) fetch(ctx context.Context, op string, grid GridPoint, baseDate, baseTime string, rows int) ([]record, error) {
	resp, err := s.c.Execute(ctx, client.Descriptor{
		Op: op,
		Params: map[string]string{
			"base_date": baseDate,
			"base_time": baseTime,
			"nx":        strconv.Itoa(grid.X),
			"ny":        strconv.Itoa(grid.Y),
			"pageNo":    "1",
			"numOfRows": strconv.Itoa(rows),
		},
	})
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(resp.Payload, &env); err != nil {
		return nil, fmt.Errorf("weather: decoding response: %w", err)
	}
	return env.Response.Body.Items.Item, nil
}

// nowcastBase returns the base date and time for the ultra-short
// nowcast. Observations for hour H publish around H:40, so before
// minute 40 the previous hour is the latest complete one.
func nowcastBase(now time.Time) (string, string) {
	if now.Minute() < 40 {
		now = now.Add(-time.Hour)
	}
	return now.Format("20060102"), now.Format("15") + "00"
}

// hourlyBase returns the base date and time for the ultra-short
// forecast, issued every hour on the half hour and available around
// H:45.
func hourlyBase(now time.Time) (string, string) {
	if now.Minute() < 45 {
		now = now.Add(-time.Hour)
	}
	return now.Format("20060102"), now.Format("15") + "30"
}

// villageIssueHours are the daily issue times of the village forecast.
var villageIssueHours = []int{2, 5, 8, 11, 14, 17, 20, 23}

// villageBase returns the most recent village forecast issue at now,
// allowing ten minutes of publication delay. Before the day's first
// issue is available it falls back to the previous day's 23:00 run.
func villageBase(now time.Time) (string, string) {
	for i := len(villageIssueHours) - 1; i >= 0; i-- {
		h := villageIssueHours[i]
		available := time.Date(now.Year(), now.Month(), now.Day(), h, 10, 0, 0, now.Location())
		if !now.Before(available) {
			return now.Format("20060102"), fmt.Sprintf("%02d00", h)
		}
	}
	prev := now.AddDate(0, 0, -1)
	return prev.Format("20060102"), "2300"
}
