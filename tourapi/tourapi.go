package tourapi

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/smdeveloper7/mcp-services/client"
)

// API is a typed facade over the tourism services. Construct with New;
// safe for concurrent use.
type API struct {
	c *client.Client
}

// New builds a tourism API client against the production endpoint.
// Extra options are forwarded to the underlying client and may
// override the defaults (cache, rate limit, logger, metrics).
func New(apiKey string, opts ...client.Option) (*API, error) {
	return NewWithBaseURL(DefaultBaseURL, apiKey, opts...)
}

// NewWithBaseURL is New with an explicit endpoint, for gateways and
// tests.
func NewWithBaseURL(baseURL, apiKey string, opts ...client.Option) (*API, error) {
	base := []client.Option{
		client.WithAPIKey(apiKey),
		client.WithOperations(Operations()),
		client.WithDefaultLanguage(DefaultLanguage),
		client.WithCommonParams(map[string]string{
			"MobileOS":  "ETC",
			"MobileApp": "MobileApp",
			"_type":     "json",
		}),
		client.WithPathFunc(func(lang, opPath string) string {
			return "/" + ServiceFor(lang) + opPath
		}),
		client.WithCheckResponse(CheckResponse),
	}
	c, err := client.New(baseURL, append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	return &API{c: c}, nil
}

// Paging selects a result page. Zero values fall back to page 1 with
// 20 rows.
type Paging struct {
	Page int
	Rows int
}

func (p Paging) apply(params map[string]string) {
	page, rows := p.Page, p.Rows
	if page <= 0 {
		page = 1
	}
	if rows <= 0 {
		rows = 20
	}
	params["pageNo"] = strconv.Itoa(page)
	params["numOfRows"] = strconv.Itoa(rows)
}

// CategoryFilter narrows results by the three-level tourism category
// hierarchy. Deeper levels require the shallower ones.
type CategoryFilter struct {
	Cat1 string
	Cat2 string
	Cat3 string
}

func (f CategoryFilter) validate() error {
	if f.Cat2 != "" && f.Cat1 == "" {
		return fmt.Errorf("tourapi: cat2 requires cat1")
	}
	if f.Cat3 != "" && f.Cat2 == "" {
		return fmt.Errorf("tourapi: cat3 requires cat2")
	}
	return nil
}

func (f CategoryFilter) apply(params map[string]string) {
	setIf(params, "cat1", f.Cat1)
	setIf(params, "cat2", f.Cat2)
	setIf(params, "cat3", f.Cat3)
}

func setIf(params map[string]string, key, value string) {
	if value != "" {
		params[key] = value
	}
}

func validateAreaPair(areaCode, sigunguCode string) error {
	if sigunguCode != "" && areaCode == "" {
		return fmt.Errorf("tourapi: sigunguCode requires areaCode")
	}
	return nil
}

func validateDate(name, value string) error {
	if _, err := time.Parse("20060102", value); err != nil {
		return fmt.Errorf("tourapi: %s must be YYYYMMDD, got %q", name, value)
	}
	return nil
}

func (a *API) run(ctx context.Context, op, lang string, params map[string]string) (*Page, error) {
	resp, err := a.c.Execute(ctx, client.Descriptor{
		Op:       op,
		Language: NormalizeLanguage(lang),
		Params:   params,
	})
	if err != nil {
		return nil, err
	}
	return decodePage(resp.Payload)
}

// SearchRequest parameterizes a keyword search.
type SearchRequest struct {
	Keyword       string
	Language      string
	ContentTypeID string
	AreaCode      string
	SigunguCode   string
	Category      CategoryFilter
	Paging        Paging
}

// SearchByKeyword finds attractions, events and venues matching a free
// text keyword.
func (a *API) SearchByKeyword(ctx context.Context, req SearchRequest) (*Page, error) {
	if req.Keyword == "" {
		return nil, fmt.Errorf("tourapi: keyword is required")
	}
	if err := validateAreaPair(req.AreaCode, req.SigunguCode); err != nil {
		return nil, err
	}
	if err := req.Category.validate(); err != nil {
		return nil, err
	}

	params := map[string]string{"keyword": req.Keyword}
	setIf(params, "contentTypeId", req.ContentTypeID)
	setIf(params, "areaCode", req.AreaCode)
	setIf(params, "sigunguCode", req.SigunguCode)
	req.Category.apply(params)
	req.Paging.apply(params)
	return a.run(ctx, "searchKeyword2", req.Language, params)
}

// AreaRequest parameterizes an area-based listing.
type AreaRequest struct {
	Language      string
	ContentTypeID string
	AreaCode      string
	SigunguCode   string
	Category      CategoryFilter
	ModifiedTime  string // YYYYMMDD, only records touched since
	Paging        Paging
}

// ListByArea lists tourism records for a region, optionally narrowed
// by content type and category.
func (a *API) ListByArea(ctx context.Context, req AreaRequest) (*Page, error) {
	if err := validateAreaPair(req.AreaCode, req.SigunguCode); err != nil {
		return nil, err
	}
	if err := req.Category.validate(); err != nil {
		return nil, err
	}
	if req.ModifiedTime != "" {
		if err := validateDate("modifiedtime", req.ModifiedTime); err != nil {
			return nil, err
		}
	}

	params := map[string]string{}
	setIf(params, "contentTypeId", req.ContentTypeID)
	setIf(params, "areaCode", req.AreaCode)
	setIf(params, "sigunguCode", req.SigunguCode)
	setIf(params, "modifiedtime", req.ModifiedTime)
	req.Category.apply(params)
	req.Paging.apply(params)
	return a.run(ctx, "areaBasedList2", req.Language, params)
}

// maxRadiusMeters is the upstream limit for location-based search.
const maxRadiusMeters = 20000

// NearbyRequest parameterizes a location-based search around a WGS84
// coordinate.
type NearbyRequest struct {
	Longitude     float64
	Latitude      float64
	RadiusMeters  int
	Language      string
	ContentTypeID string
	Paging        Paging
}

// SearchNearby lists records within RadiusMeters of a coordinate,
// sorted nearest first. The upstream service is asked to filter by
// radius but has been observed returning records beyond it, so the
// radius is enforced again here; the sort is applied because the
// service's distance ordering is not guaranteed across pages.
func (a *API) SearchNearby(ctx context.Context, req NearbyRequest) (*Page, error) {
	if req.Longitude < -180 || req.Longitude > 180 {
		return nil, fmt.Errorf("tourapi: longitude %v out of range", req.Longitude)
	}
	if req.Latitude < -90 || req.Latitude > 90 {
		return nil, fmt.Errorf("tourapi: latitude %v out of range", req.Latitude)
	}
	if req.RadiusMeters <= 0 || req.RadiusMeters > maxRadiusMeters {
		return nil, fmt.Errorf("tourapi: radius must be in 1..%d meters, got %d", maxRadiusMeters, req.RadiusMeters)
	}

	params := map[string]string{
		"mapX":   strconv.FormatFloat(req.Longitude, 'f', -1, 64),
		"mapY":   strconv.FormatFloat(req.Latitude, 'f', -1, 64),
		"radius": strconv.Itoa(req.RadiusMeters),
	}
	setIf(params, "contentTypeId", req.ContentTypeID)
	req.Paging.apply(params)

	page, err := a.run(ctx, "locationBasedList2", req.Language, params)
	if err != nil {
		return nil, err
	}
	page.Items = withinRadius(page.Items, float64(req.RadiusMeters))
	sortByDistance(page.Items)
	return page, nil
}

// itemDistance parses an item's upstream "dist" field. Items without a
// parseable distance report MaxFloat64 so they sort last.
func itemDistance(it Item) float64 {
	d, err := strconv.ParseFloat(it.Get("dist"), 64)
	if err != nil {
		return math.MaxFloat64
	}
	return d
}

// withinRadius drops items whose distance exceeds radius. Items with
// an absent or unparseable distance are kept: the upstream was asked
// to filter by radius too, so dropping them would lose records over a
// formatting quirk.
func withinRadius(items []Item, radius float64) []Item {
	kept := items[:0]
	for _, it := range items {
		d, err := strconv.ParseFloat(it.Get("dist"), 64)
		if err != nil || d <= radius {
			kept = append(kept, it)
		}
	}
	return kept
}

// sortByDistance orders items by their upstream "dist" field. Items
// without a parseable distance sort last, in their original order.
func sortByDistance(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return itemDistance(items[i]) < itemDistance(items[j])
	})
}

// FestivalRequest parameterizes a festival search window.
type FestivalRequest struct {
	StartDate   string // YYYYMMDD, required
	EndDate     string // YYYYMMDD, optional
	Language    string
	AreaCode    string
	SigunguCode string
	Paging      Paging
}

// SearchFestivals lists festivals running on or after StartDate.
func (a *API) SearchFestivals(ctx context.Context, req FestivalRequest) (*Page, error) {
	if req.StartDate == "" {
		return nil, fmt.Errorf("tourapi: eventStartDate is required")
	}
	if err := validateDate("eventStartDate", req.StartDate); err != nil {
		return nil, err
	}
	if req.EndDate != "" {
		if err := validateDate("eventEndDate", req.EndDate); err != nil {
			return nil, err
		}
		if req.EndDate < req.StartDate {
			return nil, fmt.Errorf("tourapi: eventEndDate %s precedes eventStartDate %s", req.EndDate, req.StartDate)
		}
	}
	if err := validateAreaPair(req.AreaCode, req.SigunguCode); err != nil {
		return nil, err
	}

	params := map[string]string{"eventStartDate": req.StartDate}
	setIf(params, "eventEndDate", req.EndDate)
	setIf(params, "areaCode", req.AreaCode)
	setIf(params, "sigunguCode", req.SigunguCode)
	req.Paging.apply(params)
	return a.run(ctx, "searchFestival2", req.Language, params)
}

// StayRequest parameterizes an accommodation search.
type StayRequest struct {
	Language    string
	AreaCode    string
	SigunguCode string
	Paging      Paging
}

// SearchStays lists accommodation, optionally narrowed by region.
func (a *API) SearchStays(ctx context.Context, req StayRequest) (*Page, error) {
	if err := validateAreaPair(req.AreaCode, req.SigunguCode); err != nil {
		return nil, err
	}

	params := map[string]string{}
	setIf(params, "areaCode", req.AreaCode)
	setIf(params, "sigunguCode", req.SigunguCode)
	req.Paging.apply(params)
	return a.run(ctx, "searchStay2", req.Language, params)
}

// DetailCommon fetches the language-independent core record for a
// content ID: title, address, overview, coordinates.
func (a *API) DetailCommon(ctx context.Context, contentID, lang string) (*Page, error) {
	if contentID == "" {
		return nil, fmt.Errorf("tourapi: contentId is required")
	}
	params := map[string]string{"contentId": contentID}
	Paging{}.apply(params)
	return a.run(ctx, "detailCommon2", lang, params)
}

// DetailIntro fetches the type-specific attributes for a content ID,
// such as opening hours or event dates. The content type must match
// the record.
func (a *API) DetailIntro(ctx context.Context, contentID, contentTypeID, lang string) (*Page, error) {
	if contentID == "" || contentTypeID == "" {
		return nil, fmt.Errorf("tourapi: contentId and contentTypeId are required")
	}
	params := map[string]string{"contentId": contentID, "contentTypeId": contentTypeID}
	Paging{}.apply(params)
	return a.run(ctx, "detailIntro2", lang, params)
}

// DetailInfo fetches repeating detail rows (room types, course stops)
// for a content ID.
func (a *API) DetailInfo(ctx context.Context, contentID, contentTypeID, lang string) (*Page, error) {
	if contentID == "" || contentTypeID == "" {
		return nil, fmt.Errorf("tourapi: contentId and contentTypeId are required")
	}
	params := map[string]string{"contentId": contentID, "contentTypeId": contentTypeID}
	Paging{}.apply(params)
	return a.run(ctx, "detailInfo2", lang, params)
}

// DetailImages fetches the image gallery for a content ID.
func (a *API) DetailImages(ctx context.Context, contentID, lang string, paging Paging) (*Page, error) {
	if contentID == "" {
		return nil, fmt.Errorf("tourapi: contentId is required")
	}
	params := map[string]string{"contentId": contentID, "imageYN": "Y"}
	paging.apply(params)
	return a.run(ctx, "detailImage2", lang, params)
}

// SyncRequest parameterizes an incremental synchronization listing.
type SyncRequest struct {
	Language      string
	ContentTypeID string
	AreaCode      string
	SigunguCode   string
	ModifiedTime  string // YYYYMMDD
	ShowFlag      string // "1" active records only
	Paging        Paging
}

// SyncList lists records including tombstones for incremental
// synchronization with the upstream catalogue.
func (a *API) SyncList(ctx context.Context, req SyncRequest) (*Page, error) {
	if err := validateAreaPair(req.AreaCode, req.SigunguCode); err != nil {
		return nil, err
	}
	if req.ModifiedTime != "" {
		if err := validateDate("modifiedtime", req.ModifiedTime); err != nil {
			return nil, err
		}
	}

	params := map[string]string{}
	setIf(params, "contentTypeId", req.ContentTypeID)
	setIf(params, "areaCode", req.AreaCode)
	setIf(params, "sigunguCode", req.SigunguCode)
	setIf(params, "modifiedtime", req.ModifiedTime)
	setIf(params, "showflag", req.ShowFlag)
	req.Paging.apply(params)
	return a.run(ctx, "areaBasedSyncList2", req.Language, params)
}

// AreaCodes lists area codes. With parentCode empty it returns the
// provinces; with a province code it returns that province's sigungu
// districts.
func (a *API) AreaCodes(ctx context.Context, parentCode, lang string) (*Page, error) {
	params := map[string]string{}
	setIf(params, "areaCode", parentCode)
	Paging{Rows: 100}.apply(params)
	return a.run(ctx, "areaCode2", lang, params)
}

// CategoryCodes lists category codes one level below the given
// filter.
func (a *API) CategoryCodes(ctx context.Context, lang string, contentTypeID string, filter CategoryFilter) (*Page, error) {
	if err := filter.validate(); err != nil {
		return nil, err
	}
	params := map[string]string{}
	setIf(params, "contentTypeId", contentTypeID)
	filter.apply(params)
	Paging{Rows: 100}.apply(params)
	return a.run(ctx, "categoryCode2", lang, params)
}
