package tourapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/smdeveloper7/mcp-services/client"
)

// resultOK is the tourism envelope's success code.
const resultOK = "0000"

// Item is one record from a tourism response body. All values are
// carried as strings the way the upstream JSON delivers them.
type Item map[string]string

// Get returns the named field, empty when absent.
func (it Item) Get(key string) string { return it[key] }

// Keys returns the item's field names in sorted order, skipping empty
// values.
func (it Item) Keys() []string {
	keys := make([]string, 0, len(it))
	for k, v := range it {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Page is one decoded page of tourism results.
type Page struct {
	Items      []Item
	TotalCount int
	PageNo     int
	NumOfRows  int
}

// flexInt decodes JSON values the API emits as either a number or a
// numeric string.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("tourapi: numeric string %q: %w", s, err)
		}
		*f = flexInt(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

type envelope struct {
	Response struct {
		Header struct {
			ResultCode string `json:"resultCode"`
			ResultMsg  string `json:"resultMsg"`
		} `json:"header"`
		Body struct {
			Items      json.RawMessage `json:"items"`
			TotalCount flexInt         `json:"totalCount"`
			PageNo     flexInt         `json:"pageNo"`
			NumOfRows  flexInt         `json:"numOfRows"`
		} `json:"body"`
	} `json:"response"`
}

// CheckResponse is installed on the underlying client as the envelope
// success check. A non-"0000" result code is a terminal upstream
// failure: retrying the identical request cannot change it, and the
// body must never be cached.
func CheckResponse(op string, status int, body []byte) error {
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

// decodePage extracts one page of items from a tourism response body.
// The items field arrives as {"item": {...}} for a single record,
// {"item": [...]} for several, or an empty string when the page has no
// data.
func decodePage(body []byte) (*Page, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("tourapi: decoding envelope: %w", err)
	}

	page := &Page{
		TotalCount: int(env.Response.Body.TotalCount),
		PageNo:     int(env.Response.Body.PageNo),
		NumOfRows:  int(env.Response.Body.NumOfRows),
	}

	items, err := coerceItems(env.Response.Body.Items)
	if err != nil {
		return nil, err
	}
	page.Items = items
	return page, nil
}

// coerceItems normalizes the items field's three shapes into a slice.
func coerceItems(raw json.RawMessage) ([]Item, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" || string(raw) == `""` {
		return nil, nil
	}

	var wrapper struct {
		Item json.RawMessage `json:"item"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, fmt.Errorf("tourapi: decoding items wrapper: %w", err)
	}

	inner := bytes.TrimSpace(wrapper.Item)
	if len(inner) == 0 || string(inner) == "null" {
		return nil, nil
	}

	var records []map[string]any
	if inner[0] == '[' {
		if err := json.Unmarshal(inner, &records); err != nil {
			return nil, fmt.Errorf("tourapi: decoding item array: %w", err)
		}
	} else {
		var one map[string]any
		if err := json.Unmarshal(inner, &one); err != nil {
			return nil, fmt.Errorf("tourapi: decoding single item: %w", err)
		}
		records = append(records, one)
	}

	items := make([]Item, 0, len(records))
	for _, rec := range records {
		item := make(Item, len(rec))
		for k, v := range rec {
			item[k] = UnescapeUnicode(stringify(v))
		}
		items = append(items, item)
	}
	return items, nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

// UnescapeUnicode resolves literal \uXXXX sequences that some tourism
// responses carry as raw text inside already-decoded string values,
// including surrogate pairs. Anything that does not parse as an escape
// is left untouched.
func UnescapeUnicode(s string) string {
	if !strings.Contains(s, `\u`) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] == '\\' && i+5 < len(s) && s[i+1] == 'u' {
			if r, ok := parseHex4(s[i+2 : i+6]); ok {
				if utf16.IsSurrogate(r) && i+11 < len(s) && s[i+6] == '\\' && s[i+7] == 'u' {
					if r2, ok2 := parseHex4(s[i+8 : i+12]); ok2 {
						if combined := utf16.DecodeRune(r, r2); combined != 0xFFFD {
							b.WriteRune(combined)
							i += 12
							continue
						}
					}
				}
				if !utf16.IsSurrogate(r) {
					b.WriteRune(r)
					i += 6
					continue
				}
			}
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

func parseHex4(s string) (rune, bool) {
	n, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, false
	}
	return rune(n), true
}
