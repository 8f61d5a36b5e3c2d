package client

import (
	"errors"
	"strings"
	"testing"
)

func TestCacheKeyOrderIndependent(t *testing.T) {
	a := Descriptor{
		Op:       "searchKeyword2",
		Language: "en",
		Params:   map[string]string{"keyword": "palace", "areaCode": "1", "pageNo": "1"},
	}
	b := Descriptor{
		Op:       "searchKeyword2",
		Language: "en",
		Params:   map[string]string{"pageNo": "1", "areaCode": "1", "keyword": "palace"},
	}
	if a.CacheKey() != b.CacheKey() {
		t.Errorf("keys differ for identical descriptors: %q vs %q", a.CacheKey(), b.CacheKey())
	}
}

func TestCacheKeyDistinguishes(t *testing.T) {
	base := Descriptor{
		Op:       "searchKeyword2",
		Language: "en",
		Params:   map[string]string{"keyword": "palace"},
	}

	cases := []struct {
		name string
		desc Descriptor
	}{
		{"different operation", Descriptor{Op: "areaBasedList2", Language: "en", Params: map[string]string{"keyword": "palace"}}},
		{"different language", Descriptor{Op: "searchKeyword2", Language: "ko", Params: map[string]string{"keyword": "palace"}}},
		{"different value", Descriptor{Op: "searchKeyword2", Language: "en", Params: map[string]string{"keyword": "temple"}}},
		{"extra parameter", Descriptor{Op: "searchKeyword2", Language: "en", Params: map[string]string{"keyword": "palace", "pageNo": "2"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if base.CacheKey() == tc.desc.CacheKey() {
				t.Errorf("expected distinct keys, both were %q", base.CacheKey())
			}
		})
	}
}

func TestCacheKeyIncludesLanguage(t *testing.T) {
	d := Descriptor{Op: "areaCode2", Language: "jp", Params: nil}
	if !strings.Contains(d.CacheKey(), "lang=jp") {
		t.Errorf("key %q does not carry the language", d.CacheKey())
	}
}

func TestOperationValidate(t *testing.T) {
	op := Operation{
		Name:     "searchFestival2",
		Path:     "/searchFestival2",
		Required: []string{"eventStartDate"},
		Optional: []string{"areaCode", "pageNo"},
	}

	cases := []struct {
		name    string
		params  map[string]string
		wantErr bool
	}{
		{"required present", map[string]string{"eventStartDate": "20250101"}, false},
		{"with optional", map[string]string{"eventStartDate": "20250101", "areaCode": "1"}, false},
		{"missing required", map[string]string{"areaCode": "1"}, true},
		{"empty required", map[string]string{"eventStartDate": ""}, true},
		{"unknown parameter", map[string]string{"eventStartDate": "20250101", "bogus": "x"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := op.validate(tc.params)
			if tc.wantErr && err == nil {
				t.Error("expected a validation error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tc.wantErr {
				var ce *Error
				if !errors.As(err, &ce) || ce.Kind != KindValidation {
					t.Errorf("error is not KindValidation: %v", err)
				}
			}
		})
	}
}
