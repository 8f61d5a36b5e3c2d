package mcpserver

import (
	"testing"

	"github.com/smdeveloper7/mcp-services/tourapi"
)

func TestFilterEmptyAllowsAll(t *testing.T) {
	for _, f := range []*Filter{nil, NewFilter(nil), NewFilter([]string{})} {
		if !f.Allows("get_current_weather") {
			t.Error("unrestricted filter denied a tool")
		}
		if f.Names() != nil {
			t.Error("unrestricted filter reported an allow list")
		}
	}
}

func TestFilterAllowList(t *testing.T) {
	f := NewFilter([]string{"search_tourism_by_keyword", "get_area_codes"})

	if !f.Allows("search_tourism_by_keyword") {
		t.Error("listed tool denied")
	}
	if f.Allows("get_current_weather") {
		t.Error("unlisted tool allowed")
	}

	names := f.Names()
	if len(names) != 2 || names[0] != "get_area_codes" {
		t.Errorf("Names()=%v", names)
	}
}

func TestApplyFieldFilter(t *testing.T) {
	page := &tourapi.Page{Items: []tourapi.Item{{
		"contentid":  "126508",
		"title":      "Gyeongbokgung",
		"addr1":      "161 Sajik-ro",
		"tel":        "02-3700-3900",
		"firstimage": "http://example.com/a.jpg",
	}}}

	applyFieldFilter(page, []string{" Addr1 ", "tel"})

	it := page.Items[0]
	if it.Get("addr1") == "" || it.Get("tel") == "" {
		t.Error("whitelisted fields dropped")
	}
	if it.Get("firstimage") != "" {
		t.Error("non-whitelisted field survived")
	}
	if it.Get("contentid") != "126508" || it.Get("title") != "Gyeongbokgung" {
		t.Error("identity fields must always survive")
	}
}

func TestApplyFieldFilterEmptyKeepsAll(t *testing.T) {
	page := &tourapi.Page{Items: []tourapi.Item{{"title": "x", "addr1": "y"}}}

	applyFieldFilter(page, nil)
	applyFieldFilter(page, []string{"", "  "})

	if page.Items[0].Get("addr1") != "y" {
		t.Error("empty whitelist must leave items untouched")
	}
}
