package weather

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func at(hour, minute int) time.Time {
	return time.Date(2025, 6, 15, hour, minute, 0, 0, kst)
}

func TestNowcastBase(t *testing.T) {
	cases := []struct {
		now      time.Time
		wantDate string
		wantTime string
	}{
		{at(14, 45), "20250615", "1400"},
		{at(14, 40), "20250615", "1400"},
		{at(14, 39), "20250615", "1300"},
		{at(0, 10), "20250614", "2300"},
	}
	for _, tc := range cases {
		date, tm := nowcastBase(tc.now)
		if date != tc.wantDate || tm != tc.wantTime {
			t.Errorf("nowcastBase(%v) = %s %s, want %s %s", tc.now, date, tm, tc.wantDate, tc.wantTime)
		}
	}
}

func TestHourlyBase(t *testing.T) {
	cases := []struct {
		now      time.Time
		wantDate string
		wantTime string
	}{
		{at(14, 50), "20250615", "1430"},
		{at(14, 45), "20250615", "1430"},
		{at(14, 44), "20250615", "1330"},
		{at(0, 20), "20250614", "2330"},
	}
	for _, tc := range cases {
		date, tm := hourlyBase(tc.now)
		if date != tc.wantDate || tm != tc.wantTime {
			t.Errorf("hourlyBase(%v) = %s %s, want %s %s", tc.now, date, tm, tc.wantDate, tc.wantTime)
		}
	}
}

func TestVillageBase(t *testing.T) {
	cases := []struct {
		now      time.Time
		wantDate string
		wantTime string
	}{
		{at(14, 30), "20250615", "1400"},
		{at(14, 10), "20250615", "1400"},
		{at(14, 9), "20250615", "1100"},
		{at(2, 10), "20250615", "0200"},
		{at(2, 9), "20250614", "2300"},
		{at(0, 30), "20250614", "2300"},
		{at(23, 59), "20250615", "2300"},
	}
	for _, tc := range cases {
		date, tm := villageBase(tc.now)
		if date != tc.wantDate || tm != tc.wantTime {
			t.Errorf("villageBase(%v) = %s %s, want %s %s", tc.now, date, tm, tc.wantDate, tc.wantTime)
		}
	}
}

func newTestService(t *testing.T, now time.Time, handler http.HandlerFunc) *Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	s, err := NewWithBaseURL(srv.URL, "testkey")
	if err != nil {
		t.Fatalf("NewWithBaseURL: %v", err)
	}
	s.now = func() time.Time { return now }
	return s
}

func TestCurrentConditions(t *testing.T) {
	var gotQuery string
	s := newTestService(t, at(14, 50), func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, `{"response":{"header":{"resultCode":"00","resultMsg":"NORMAL_SERVICE"},"body":{
			"items":{"item":[
				{"category":"T1H","obsrValue":"23.1"},
				{"category":"REH","obsrValue":"61"},
				{"category":"RN1","obsrValue":"0"},
				{"category":"WSD","obsrValue":"2.3"}
			]},
			"totalCount":4}}}`)
	})

	nc, err := s.CurrentConditions(context.Background(), 126.9780, 37.5665)
	if err != nil {
		t.Fatalf("CurrentConditions: %v", err)
	}

	for _, want := range []string{"base_date=20250615", "base_time=1400", "nx=60", "ny=127", "dataType=JSON"} {
		if !strings.Contains(gotQuery, want) {
			t.Errorf("query %q missing %q", gotQuery, want)
		}
	}
	if got := nc.TemperatureC(); got != 23.1 {
		t.Errorf("temperature=%v", got)
	}
	if got := nc.HumidityPercent(); got != 61 {
		t.Errorf("humidity=%v", got)
	}
	if !math.IsNaN((&Nowcast{Values: map[string]string{}}).TemperatureC()) {
		t.Error("missing observation did not read as NaN")
	}
}

func TestHourlyForecastGroupsSlots(t *testing.T) {
	s := newTestService(t, at(14, 50), func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"response":{"header":{"resultCode":"00"},"body":{
			"items":{"item":[
				{"category":"T1H","fcstDate":"20250615","fcstTime":"1600","fcstValue":"22"},
				{"category":"T1H","fcstDate":"20250615","fcstTime":"1500","fcstValue":"23"},
				{"category":"SKY","fcstDate":"20250615","fcstTime":"1500","fcstValue":"1"},
				{"category":"SKY","fcstDate":"20250615","fcstTime":"1600","fcstValue":"4"}
			]},
			"totalCount":4}}}`)
	})

	fc, err := s.HourlyForecast(context.Background(), 126.9780, 37.5665)
	if err != nil {
		t.Fatalf("HourlyForecast: %v", err)
	}
	if len(fc.Entries) != 2 {
		t.Fatalf("entries=%d, want 2 grouped slots", len(fc.Entries))
	}
	first := fc.Entries[0]
	if first.Time != "1500" || first.Values["T1H"] != "23" || first.Values["SKY"] != "1" {
		t.Errorf("first slot = %+v, want the 1500 slot complete", first)
	}
	if fc.Entries[1].Time != "1600" {
		t.Errorf("slots not chronological: %+v", fc.Entries)
	}
}

func TestEnvelopeFailureSurfaces(t *testing.T) {
	calls := 0
	s := newTestService(t, at(14, 50), func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, `{"response":{"header":{"resultCode":"03","resultMsg":"NO_DATA"}}}`)
	})

	if _, err := s.CurrentConditions(context.Background(), 126.9780, 37.5665); err == nil {
		t.Fatal("NO_DATA did not surface as an error")
	}
	if calls != 1 {
		t.Errorf("upstream calls=%d, want 1: envelope failures are fatal", calls)
	}
}

func TestPrecipitationName(t *testing.T) {
	cases := map[string]string{"0": "None", "1": "Rain", "4": "Shower", "7": "Snow Flurry", "9": "9"}
	for code, want := range cases {
		if got := PrecipitationName(code); got != want {
			t.Errorf("PrecipitationName(%s)=%q, want %q", code, got, want)
		}
	}
}

func TestSkyName(t *testing.T) {
	cases := map[string]string{"1": "Clear", "3": "Partly Cloudy", "4": "Cloudy", "2": "2"}
	for code, want := range cases {
		if got := SkyName(code); got != want {
			t.Errorf("SkyName(%s)=%q, want %q", code, got, want)
		}
	}
}

func TestCompassDirection(t *testing.T) {
	cases := map[string]string{
		"0":     "N",
		"360":   "N",
		"45":    "NE",
		"90":    "E",
		"180":   "S",
		"270":   "W",
		"337.5": "NNW",
		"n/a":   "n/a",
	}
	for deg, want := range cases {
		if got := CompassDirection(deg); got != want {
			t.Errorf("CompassDirection(%s)=%q, want %q", deg, got, want)
		}
	}
}
