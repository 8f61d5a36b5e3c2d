package mcpserver

import (
	"fmt"
	"strings"

	"github.com/smdeveloper7/mcp-services/tourapi"
	"github.com/smdeveloper7/mcp-services/weather"
)

// formatPage renders one result page as readable text for the model.
func formatPage(title string, page *tourapi.Page) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d total results", title, page.TotalCount)
	if page.TotalCount > 0 {
		fmt.Fprintf(&b, " (page %d, %d per page)", page.PageNo, page.NumOfRows)
	}
	b.WriteString("\n")

	if len(page.Items) == 0 {
		b.WriteString("No results on this page.\n")
		return b.String()
	}

	for i, item := range page.Items {
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, fallback(item.Get("title"), "(untitled)"))
		writeField(&b, "Type", tourapi.ContentTypeName(item.Get("contenttypeid")))
		writeField(&b, "Address", joinNonEmpty(" ", item.Get("addr1"), item.Get("addr2")))
		if dist := item.Get("dist"); dist != "" {
			writeField(&b, "Distance", dist+"m")
		}
		writeField(&b, "Tel", item.Get("tel"))
		if start := item.Get("eventstartdate"); start != "" {
			writeField(&b, "Period", start+" - "+item.Get("eventenddate"))
		}
		writeField(&b, "Image", item.Get("firstimage"))
		writeField(&b, "Content ID", item.Get("contentid"))
	}
	return b.String()
}

// formatDetail merges the three detail responses into one report.
func formatDetail(contentID string, common, intro, info *tourapi.Page) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Details for content ID %s\n", contentID)

	if common != nil && len(common.Items) > 0 {
		item := common.Items[0]
		fmt.Fprintf(&b, "\n%s\n", fallback(item.Get("title"), "(untitled)"))
		writeField(&b, "Type", tourapi.ContentTypeName(item.Get("contenttypeid")))
		writeField(&b, "Address", joinNonEmpty(" ", item.Get("addr1"), item.Get("addr2")))
		writeField(&b, "Tel", item.Get("tel"))
		writeField(&b, "Homepage", stripTags(item.Get("homepage")))
		writeField(&b, "Coordinates", joinNonEmpty(", ", item.Get("mapy"), item.Get("mapx")))
		if overview := item.Get("overview"); overview != "" {
			fmt.Fprintf(&b, "\nOverview:\n%s\n", stripTags(overview))
		}
	} else {
		b.WriteString("No core record found.\n")
	}

	if intro != nil && len(intro.Items) > 0 {
		b.WriteString("\nType-specific information:\n")
		writeAllFields(&b, intro.Items[0])
	}
	if info != nil && len(info.Items) > 0 {
		b.WriteString("\nAdditional details:\n")
		for _, item := range info.Items {
			if name := item.Get("infoname"); name != "" {
				writeField(&b, name, stripTags(item.Get("infotext")))
				continue
			}
			writeAllFields(&b, item)
		}
	}
	return b.String()
}

func formatImages(contentID string, page *tourapi.Page) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Images for content ID %s: %d total\n", contentID, page.TotalCount)
	for i, item := range page.Items {
		url := fallback(item.Get("originimgurl"), item.Get("smallimageurl"))
		if url == "" {
			continue
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, url)
	}
	if len(page.Items) == 0 {
		b.WriteString("No images available.\n")
	}
	return b.String()
}

func formatCodes(parent string, page *tourapi.Page) string {
	var b strings.Builder
	if parent == "" {
		b.WriteString("Area codes:\n")
	} else {
		fmt.Fprintf(&b, "District codes in %s:\n", tourapi.AreaName(parent))
	}
	for _, item := range page.Items {
		fmt.Fprintf(&b, "  %s: %s\n", item.Get("code"), item.Get("name"))
	}
	if len(page.Items) == 0 {
		b.WriteString("  (none)\n")
	}
	return b.String()
}

func formatNowcast(nc *weather.Nowcast) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Current conditions (observed %s %s, grid %d,%d)\n",
		nc.BaseDate, nc.BaseTime, nc.Grid.X, nc.Grid.Y)
	writeField(&b, "Temperature", suffix(nc.Values["T1H"], "°C"))
	writeField(&b, "Humidity", suffix(nc.Values["REH"], "%"))
	writeField(&b, "Rainfall (1h)", suffix(nc.Values["RN1"], "mm"))
	if wsd := nc.Values["WSD"]; wsd != "" {
		dir := weather.CompassDirection(nc.Values["VEC"])
		writeField(&b, "Wind", fmt.Sprintf("%s m/s from %s", wsd, dir))
	}
	if pty := nc.Values["PTY"]; pty != "" {
		writeField(&b, "Precipitation", weather.PrecipitationName(pty))
	}
	return b.String()
}

func formatForecast(title string, fc *weather.Forecast) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (issued %s %s, grid %d,%d)\n",
		title, fc.BaseDate, fc.BaseTime, fc.Grid.X, fc.Grid.Y)

	lastDate := ""
	for _, entry := range fc.Entries {
		if entry.Date != lastDate {
			fmt.Fprintf(&b, "\n%s:\n", entry.Date)
			lastDate = entry.Date
		}
		var parts []string
		add := func(s string) {
			if s != "" {
				parts = append(parts, s)
			}
		}
		add(suffix(firstValue(entry.Values, "TMP", "T1H"), "°C"))
		if sky := entry.Values["SKY"]; sky != "" {
			add(weather.SkyName(sky))
		}
		if pty := entry.Values["PTY"]; pty != "" && pty != "0" {
			add(weather.PrecipitationName(pty))
		}
		add(suffix(entry.Values["POP"], "% rain chance"))
		add(suffix(entry.Values["REH"], "% humidity"))
		if wsd := entry.Values["WSD"]; wsd != "" {
			add(fmt.Sprintf("wind %s m/s %s", wsd, weather.CompassDirection(entry.Values["VEC"])))
		}
		add(suffix(entry.Values["TMN"], "°C min"))
		add(suffix(entry.Values["TMX"], "°C max"))
		fmt.Fprintf(&b, "  %s  %s\n", entry.Time, strings.Join(parts, ", "))
	}
	return b.String()
}

func firstValue(values map[string]string, keys ...string) string {
	for _, key := range keys {
		if v := values[key]; v != "" {
			return v
		}
	}
	return ""
}

func writeField(b *strings.Builder, name, value string) {
	if value != "" {
		fmt.Fprintf(b, "   %s: %s\n", name, value)
	}
}

func writeAllFields(b *strings.Builder, item tourapi.Item) {
	for _, key := range item.Keys() {
		switch key {
		case "contentid", "contenttypeid":
			continue
		}
		writeField(b, key, stripTags(item.Get(key)))
	}
}

func fallback(value, alt string) string {
	if value != "" {
		return value
	}
	return alt
}

func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

func suffix(value, unit string) string {
	if value == "" {
		return ""
	}
	return value + unit
}

// stripTags drops the HTML markup some tourism fields embed, keeping
// the text and turning <br> into newlines.
func stripTags(s string) string {
	if !strings.ContainsRune(s, '<') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	inTag := false
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '<':
			inTag = true
			if strings.HasPrefix(strings.ToLower(s[i:]), "<br") {
				b.WriteByte('\n')
			}
		case s[i] == '>':
			inTag = false
		case !inTag:
			b.WriteByte(s[i])
		}
	}
	return strings.TrimSpace(b.String())
}
