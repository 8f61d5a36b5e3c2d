// Package tourapi provides a typed client for the Korea Tourism
// Organization open API (KorService2 and its language variants). It
// layers operation-specific methods and response decoding over the
// generic resilient client.
package tourapi

import (
	"sort"
	"strings"
)

// DefaultBaseURL is the production endpoint family for the tourism
// services. The language-specific service name is appended per
// request.
const DefaultBaseURL = "http://apis.data.go.kr/B551011"

// serviceByLanguage maps a normalized language tag to the tourism
// service serving that language. KorService2 and EngService2 are the
// second-generation services; the remaining languages are still on the
// first generation.
var serviceByLanguage = map[string]string{
	"ko":    "KorService2",
	"en":    "EngService2",
	"jp":    "JpnService1",
	"zh-cn": "ChsService1",
	"zh-tw": "ChtService1",
	"de":    "GerService1",
	"fr":    "FreService1",
	"es":    "SpnService1",
	"ru":    "RusService1",
}

// DefaultLanguage is used when a request does not name one.
const DefaultLanguage = "en"

// NormalizeLanguage lowercases lang and falls back to DefaultLanguage
// for unsupported tags.
func NormalizeLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if _, ok := serviceByLanguage[lang]; ok {
		return lang
	}
	return DefaultLanguage
}

// ServiceFor returns the tourism service name for lang.
func ServiceFor(lang string) string {
	return serviceByLanguage[NormalizeLanguage(lang)]
}

// SupportedLanguages lists the supported language tags, sorted.
func SupportedLanguages() []string {
	langs := make([]string, 0, len(serviceByLanguage))
	for lang := range serviceByLanguage {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// contentTypeNames maps tourism content type IDs to display names.
var contentTypeNames = map[string]string{
	"76": "Tourist Attraction",
	"78": "Cultural Facility",
	"85": "Festival Event",
	"75": "Leisure Activity",
	"80": "Accommodation",
	"79": "Shopping",
	"82": "Restaurant",
	"77": "Transportation",
}

// ContentTypeName returns the display name for a content type ID, or
// the ID itself when unknown.
func ContentTypeName(id string) string {
	if name, ok := contentTypeNames[id]; ok {
		return name
	}
	return id
}

// ContentTypeID resolves a content type by display name,
// case-insensitively. The second result reports whether the name was
// recognized.
func ContentTypeID(name string) (string, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	for id, n := range contentTypeNames {
		if strings.ToLower(n) == needle {
			return id, true
		}
	}
	return "", false
}

// ContentTypeNames lists the known content type display names, sorted.
func ContentTypeNames() []string {
	names := make([]string, 0, len(contentTypeNames))
	for _, n := range contentTypeNames {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// areaNames maps province and metropolitan area codes to English
// names.
var areaNames = map[string]string{
	"1":  "Seoul",
	"2":  "Incheon",
	"3":  "Daejeon",
	"4":  "Daegu",
	"5":  "Gwangju",
	"6":  "Busan",
	"7":  "Ulsan",
	"8":  "Sejong",
	"31": "Gyeonggi",
	"32": "Gangwon",
	"33": "Chungbuk",
	"34": "Chungnam",
	"35": "Gyeongbuk",
	"36": "Gyeongnam",
	"37": "Jeonbuk",
	"38": "Jeonnam",
	"39": "Jeju",
}

// AreaName returns the display name for an area code, or the code
// itself when unknown.
func AreaName(code string) string {
	if name, ok := areaNames[code]; ok {
		return name
	}
	return code
}

// AreaCodeByName resolves an area by display name, case-insensitively.
func AreaCodeByName(name string) (string, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	for code, n := range areaNames {
		if strings.ToLower(n) == needle {
			return code, true
		}
	}
	return "", false
}

// AreaNames lists the known area display names, sorted.
func AreaNames() []string {
	names := make([]string, 0, len(areaNames))
	for _, n := range areaNames {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
