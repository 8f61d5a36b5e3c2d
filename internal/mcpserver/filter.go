package mcpserver

import (
	"sort"
	"strings"

	"github.com/smdeveloper7/mcp-services/tourapi"
)

// Filter restricts which tools the server registers. A nil or empty
// allow list admits every tool.
type Filter struct {
	allowed map[string]bool
}

// NewFilter builds a filter from an allow list of tool names.
func NewFilter(names []string) *Filter {
	if len(names) == 0 {
		return &Filter{}
	}
	allowed := make(map[string]bool, len(names))
	for _, name := range names {
		allowed[name] = true
	}
	return &Filter{allowed: allowed}
}

// Allows reports whether the named tool should be registered.
func (f *Filter) Allows(name string) bool {
	if f == nil || len(f.allowed) == 0 {
		return true
	}
	return f.allowed[name]
}

// Names returns the allow list, sorted, empty when unrestricted.
func (f *Filter) Names() []string {
	if f == nil || len(f.allowed) == 0 {
		return nil
	}
	names := make([]string, 0, len(f.allowed))
	for name := range f.allowed {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// applyFieldFilter trims every item on page down to the whitelisted
// fields. Field names are matched case-insensitively; contentid and
// title always survive so results stay identifiable and chainable
// into the detail tools. An empty whitelist leaves items untouched.
func applyFieldFilter(page *tourapi.Page, fields []string) {
	if page == nil || len(fields) == 0 {
		return
	}
	keep := make(map[string]bool, len(fields)+2)
	for _, f := range fields {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			keep[f] = true
		}
	}
	if len(keep) == 0 {
		return
	}
	keep["contentid"] = true
	keep["title"] = true

	for i, it := range page.Items {
		trimmed := make(tourapi.Item, len(keep))
		for k, v := range it {
			if keep[strings.ToLower(k)] {
				trimmed[k] = v
			}
		}
		page.Items[i] = trimmed
	}
}
