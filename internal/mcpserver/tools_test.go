package mcpserver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/smdeveloper7/mcp-services/tourapi"
	"github.com/smdeveloper7/mcp-services/weather"
)

const tourismEmptyOK = `{"response":{"header":{"resultCode":"0000"},"body":{"items":"","totalCount":0,"pageNo":1,"numOfRows":20}}}`

func newTestDeps(t *testing.T, handler http.HandlerFunc) *deps {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	tourism, err := tourapi.NewWithBaseURL(srv.URL, "tkey")
	if err != nil {
		t.Fatalf("tourapi: %v", err)
	}
	weatherSvc, err := weather.NewWithBaseURL(srv.URL, "wkey")
	if err != nil {
		t.Fatalf("weather: %v", err)
	}
	return &deps{tourism: tourism, weather: weatherSvc, logger: zap.NewNop()}
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("result has no content")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, not text", res.Content[0])
	}
	return text.Text
}

func TestToolDefinitionsHaveSchemas(t *testing.T) {
	d := newTestDeps(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, tourismEmptyOK)
	})

	tools := append(d.tourismTools(), d.weatherTools()...)
	if len(tools) != 11 {
		t.Fatalf("tools=%d, want 11", len(tools))
	}

	seen := make(map[string]bool)
	for _, tool := range tools {
		def := tool.Handle()
		if def.Name == "" {
			t.Error("tool with empty name")
		}
		if seen[def.Name] {
			t.Errorf("duplicate tool name %q", def.Name)
		}
		seen[def.Name] = true
		if def.Description == "" {
			t.Errorf("tool %q has no description", def.Name)
		}
	}

	for _, want := range []string{
		"search_tourism_by_keyword", "get_tourism_by_area", "find_nearby_attractions",
		"search_festivals_by_date", "find_accommodations", "get_detailed_information",
		"get_tourism_images", "get_area_codes",
		"get_current_weather", "get_hourly_forecast", "get_weather_forecast",
	} {
		if !seen[want] {
			t.Errorf("tool %q not registered", want)
		}
	}
}

func TestSearchKeywordToolHandler(t *testing.T) {
	d := newTestDeps(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"response":{"header":{"resultCode":"0000"},"body":{
			"items":{"item":{"title":"Gyeongbokgung Palace","contentid":"126508","contenttypeid":"76"}},
			"totalCount":1,"pageNo":1,"numOfRows":20}}}`)
	})
	tool := &searchKeywordTool{d}

	res, err := tool.Handler(context.Background(), callRequest(map[string]any{"keyword": "palace"}))
	if err != nil {
		t.Fatalf("Handler: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}
	if out := resultText(t, res); !strings.Contains(out, "Gyeongbokgung Palace") {
		t.Errorf("output missing result:\n%s", out)
	}
}

func TestSearchKeywordToolFieldFilter(t *testing.T) {
	d := newTestDeps(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"response":{"header":{"resultCode":"0000"},"body":{
			"items":{"item":{"title":"Gyeongbokgung Palace","contentid":"126508",
				"addr1":"161 Sajik-ro","tel":"02-3700-3900"}},
			"totalCount":1,"pageNo":1,"numOfRows":20}}}`)
	})
	tool := &searchKeywordTool{d}

	res, err := tool.Handler(context.Background(), callRequest(map[string]any{
		"keyword": "palace",
		"filter":  []any{"addr1"},
	}))
	if err != nil {
		t.Fatalf("Handler: %v", err)
	}
	out := resultText(t, res)
	if !strings.Contains(out, "161 Sajik-ro") {
		t.Errorf("whitelisted field missing:\n%s", out)
	}
	if !strings.Contains(out, "Gyeongbokgung Palace") {
		t.Errorf("title must always be included:\n%s", out)
	}
	if strings.Contains(out, "02-3700-3900") {
		t.Errorf("field outside the whitelist leaked:\n%s", out)
	}
}

func TestSearchKeywordToolMissingArgument(t *testing.T) {
	var calls int32
	d := newTestDeps(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})
	tool := &searchKeywordTool{d}

	res, err := tool.Handler(context.Background(), callRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("Handler: %v", err)
	}
	if !res.IsError {
		t.Error("missing keyword did not produce a tool error")
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Error("request reached the network without a keyword")
	}
}

func TestSearchKeywordToolUnknownContentType(t *testing.T) {
	d := newTestDeps(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, tourismEmptyOK)
	})
	tool := &searchKeywordTool{d}

	res, err := tool.Handler(context.Background(), callRequest(map[string]any{
		"keyword":      "palace",
		"content_type": "Spaceport",
	}))
	if err != nil {
		t.Fatalf("Handler: %v", err)
	}
	if !res.IsError {
		t.Fatal("unknown content type accepted")
	}
	if out := resultText(t, res); !strings.Contains(out, "Restaurant") {
		t.Errorf("error does not list valid content types:\n%s", out)
	}
}

func TestDetailToolFansOut(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	d := newTestDeps(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		switch {
		case strings.Contains(r.URL.Path, "detailCommon2"):
			fmt.Fprint(w, `{"response":{"header":{"resultCode":"0000"},"body":{
				"items":{"item":{"title":"Some Palace","overview":"A palace."}},
				"totalCount":1,"pageNo":1,"numOfRows":20}}}`)
		case strings.Contains(r.URL.Path, "detailIntro2"):
			fmt.Fprint(w, `{"response":{"header":{"resultCode":"0000"},"body":{
				"items":{"item":{"usetime":"09:00-18:00"}},
				"totalCount":1,"pageNo":1,"numOfRows":20}}}`)
		case strings.Contains(r.URL.Path, "detailInfo2"):
			fmt.Fprint(w, `{"response":{"header":{"resultCode":"0000"},"body":{
				"items":{"item":{"infoname":"Parking","infotext":"Available"}},
				"totalCount":1,"pageNo":1,"numOfRows":20}}}`)
		default:
			fmt.Fprint(w, tourismEmptyOK)
		}
	})
	tool := &detailTool{d}

	res, err := tool.Handler(context.Background(), callRequest(map[string]any{
		"content_id":   "126508",
		"content_type": "Tourist Attraction",
	}))
	if err != nil {
		t.Fatalf("Handler: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}

	out := resultText(t, res)
	for _, want := range []string{"Some Palace", "A palace.", "09:00-18:00", "Parking: Available"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if len(paths) != 3 {
		t.Errorf("upstream calls=%d (%v), want the three detail operations", len(paths), paths)
	}
}

func TestNearbyToolValidatesRadius(t *testing.T) {
	d := newTestDeps(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, tourismEmptyOK)
	})
	tool := &nearbyTool{d}

	res, err := tool.Handler(context.Background(), callRequest(map[string]any{
		"longitude": 126.978,
		"latitude":  37.5665,
		"radius":    50000,
	}))
	if err != nil {
		t.Fatalf("Handler: %v", err)
	}
	if !res.IsError {
		t.Error("radius beyond the upstream limit accepted")
	}
}

func TestCurrentWeatherToolHandler(t *testing.T) {
	d := newTestDeps(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"response":{"header":{"resultCode":"00"},"body":{
			"items":{"item":[
				{"category":"T1H","obsrValue":"23.1"},
				{"category":"REH","obsrValue":"61"}
			]},
			"totalCount":2}}}`)
	})
	tool := &currentWeatherTool{d}

	res, err := tool.Handler(context.Background(), callRequest(map[string]any{
		"longitude": 126.978,
		"latitude":  37.5665,
	}))
	if err != nil {
		t.Fatalf("Handler: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}
	if out := resultText(t, res); !strings.Contains(out, "23.1°C") {
		t.Errorf("output missing temperature:\n%s", out)
	}
}

func TestWeatherToolRequiresCoordinates(t *testing.T) {
	d := newTestDeps(t, func(w http.ResponseWriter, r *http.Request) {})
	tool := &currentWeatherTool{d}

	res, err := tool.Handler(context.Background(), callRequest(map[string]any{"longitude": 126.978}))
	if err != nil {
		t.Fatalf("Handler: %v", err)
	}
	if !res.IsError {
		t.Error("missing latitude accepted")
	}
}
