package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/smdeveloper7/mcp-services/tourapi"
	"github.com/smdeveloper7/mcp-services/weather"
)

// Tool couples an MCP tool definition with its handler.
type Tool interface {
	Handle() mcp.Tool
	Handler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// deps is the shared state every tool handler closes over.
type deps struct {
	tourism *tourapi.API
	weather *weather.Service
	logger  *zap.Logger
}

func (d *deps) tourismTools() []Tool {
	return []Tool{
		&searchKeywordTool{d},
		&areaListTool{d},
		&nearbyTool{d},
		&festivalTool{d},
		&accommodationTool{d},
		&detailTool{d},
		&imagesTool{d},
		&areaCodesTool{d},
	}
}

// languageProperty is the shared language parameter definition.
func languageProperty() mcp.PropertyOption {
	return mcp.Description(fmt.Sprintf(
		"Response language, one of: %s. Defaults to %s.",
		strings.Join(tourapi.SupportedLanguages(), ", "), tourapi.DefaultLanguage))
}

// resolveContentType accepts a content type display name such as
// "Restaurant" and returns its upstream ID. Empty input means no
// filter.
func resolveContentType(name string) (string, error) {
	if name == "" {
		return "", nil
	}
	id, ok := tourapi.ContentTypeID(name)
	if !ok {
		return "", fmt.Errorf("unknown content type %q; valid values: %s",
			name, strings.Join(tourapi.ContentTypeNames(), ", "))
	}
	return id, nil
}

// fieldFilterProperty is the shared whitelist parameter every list
// tool accepts.
func fieldFilterProperty() []mcp.PropertyOption {
	return []mcp.PropertyOption{
		mcp.Description("Optional whitelist of item fields to include in each result, e.g. [\"title\", \"addr1\"]. Empty returns all fields."),
		mcp.Items(map[string]any{"type": "string"}),
	}
}

func fieldFilter(request mcp.CallToolRequest) []string {
	return request.GetStringSlice("filter", nil)
}

func paging(request mcp.CallToolRequest) tourapi.Paging {
	return tourapi.Paging{
		Page: request.GetInt("page", 1),
		Rows: request.GetInt("rows", 20),
	}
}

type searchKeywordTool struct{ *deps }

func (t *searchKeywordTool) Handle() mcp.Tool {
	return mcp.NewTool("search_tourism_by_keyword",
		mcp.WithDescription("Search Korean tourism attractions, festivals, restaurants and more by keyword."),
		mcp.WithString("keyword", mcp.Required(), mcp.Description("Search keyword, e.g. 'Gyeongbokgung' or 'bibimbap'.")),
		mcp.WithString("content_type", mcp.Description("Optional content type filter, e.g. 'Tourist Attraction', 'Restaurant', 'Festival Event'.")),
		mcp.WithString("area_code", mcp.Description("Optional area code filter, e.g. '1' for Seoul.")),
		mcp.WithString("language", languageProperty()),
		mcp.WithNumber("page", mcp.Description("Result page, starting at 1.")),
		mcp.WithNumber("rows", mcp.Description("Results per page, default 20.")),
		mcp.WithArray("filter", fieldFilterProperty()...),
	)
}

func (t *searchKeywordTool) Handler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	keyword, err := request.RequireString("keyword")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	contentType, err := resolveContentType(request.GetString("content_type", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	page, err := t.tourism.SearchByKeyword(ctx, tourapi.SearchRequest{
		Keyword:       keyword,
		Language:      request.GetString("language", ""),
		ContentTypeID: contentType,
		AreaCode:      request.GetString("area_code", ""),
		Paging:        paging(request),
	})
	if err != nil {
		t.logger.Warn("keyword search failed", zap.String("keyword", keyword), zap.Error(err))
		return mcp.NewToolResultError(err.Error()), nil
	}
	applyFieldFilter(page, fieldFilter(request))
	return mcp.NewToolResultText(formatPage(fmt.Sprintf("Results for %q", keyword), page)), nil
}

type areaListTool struct{ *deps }

func (t *areaListTool) Handle() mcp.Tool {
	return mcp.NewTool("get_tourism_by_area",
		mcp.WithDescription("Browse tourism information by geographic area, optionally narrowed to a district and content type."),
		mcp.WithString("area_code", mcp.Required(), mcp.Description("Area code, e.g. '1' for Seoul, '39' for Jeju.")),
		mcp.WithString("sigungu_code", mcp.Description("Optional district code within the area.")),
		mcp.WithString("content_type", mcp.Description("Optional content type filter.")),
		mcp.WithString("language", languageProperty()),
		mcp.WithNumber("page", mcp.Description("Result page, starting at 1.")),
		mcp.WithNumber("rows", mcp.Description("Results per page, default 20.")),
		mcp.WithArray("filter", fieldFilterProperty()...),
	)
}

func (t *areaListTool) Handler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	areaCode, err := request.RequireString("area_code")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	contentType, err := resolveContentType(request.GetString("content_type", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	page, err := t.tourism.ListByArea(ctx, tourapi.AreaRequest{
		Language:      request.GetString("language", ""),
		ContentTypeID: contentType,
		AreaCode:      areaCode,
		SigunguCode:   request.GetString("sigungu_code", ""),
		Paging:        paging(request),
	})
	if err != nil {
		t.logger.Warn("area listing failed", zap.String("areaCode", areaCode), zap.Error(err))
		return mcp.NewToolResultError(err.Error()), nil
	}
	applyFieldFilter(page, fieldFilter(request))
	return mcp.NewToolResultText(formatPage(fmt.Sprintf("Tourism in %s", tourapi.AreaName(areaCode)), page)), nil
}

type nearbyTool struct{ *deps }

func (t *nearbyTool) Handle() mcp.Tool {
	return mcp.NewTool("find_nearby_attractions",
		mcp.WithDescription("Find tourism attractions near a GPS coordinate, closest first."),
		mcp.WithNumber("longitude", mcp.Required(), mcp.Description("WGS84 longitude, e.g. 126.9780.")),
		mcp.WithNumber("latitude", mcp.Required(), mcp.Description("WGS84 latitude, e.g. 37.5665.")),
		mcp.WithNumber("radius", mcp.Description("Search radius in meters, 1-20000. Default 1000.")),
		mcp.WithString("content_type", mcp.Description("Optional content type filter.")),
		mcp.WithString("language", languageProperty()),
		mcp.WithNumber("page", mcp.Description("Result page, starting at 1.")),
		mcp.WithNumber("rows", mcp.Description("Results per page, default 20.")),
		mcp.WithArray("filter", fieldFilterProperty()...),
	)
}

func (t *nearbyTool) Handler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	lon, err := request.RequireFloat("longitude")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	lat, err := request.RequireFloat("latitude")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	contentType, err := resolveContentType(request.GetString("content_type", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	page, err := t.tourism.SearchNearby(ctx, tourapi.NearbyRequest{
		Longitude:     lon,
		Latitude:      lat,
		RadiusMeters:  request.GetInt("radius", 1000),
		Language:      request.GetString("language", ""),
		ContentTypeID: contentType,
		Paging:        paging(request),
	})
	if err != nil {
		t.logger.Warn("nearby search failed",
			zap.Float64("lon", lon), zap.Float64("lat", lat), zap.Error(err))
		return mcp.NewToolResultError(err.Error()), nil
	}
	applyFieldFilter(page, fieldFilter(request))
	return mcp.NewToolResultText(formatPage(
		fmt.Sprintf("Attractions near (%.4f, %.4f)", lat, lon), page)), nil
}

type festivalTool struct{ *deps }

func (t *festivalTool) Handle() mcp.Tool {
	return mcp.NewTool("search_festivals_by_date",
		mcp.WithDescription("Search Korean festivals by date range and optionally by area."),
		mcp.WithString("start_date", mcp.Required(), mcp.Description("Earliest festival date, YYYYMMDD.")),
		mcp.WithString("end_date", mcp.Description("Optional latest festival date, YYYYMMDD.")),
		mcp.WithString("area_code", mcp.Description("Optional area code filter.")),
		mcp.WithString("language", languageProperty()),
		mcp.WithNumber("page", mcp.Description("Result page, starting at 1.")),
		mcp.WithNumber("rows", mcp.Description("Results per page, default 20.")),
		mcp.WithArray("filter", fieldFilterProperty()...),
	)
}

func (t *festivalTool) Handler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	startDate, err := request.RequireString("start_date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	page, err := t.tourism.SearchFestivals(ctx, tourapi.FestivalRequest{
		StartDate: startDate,
		EndDate:   request.GetString("end_date", ""),
		Language:  request.GetString("language", ""),
		AreaCode:  request.GetString("area_code", ""),
		Paging:    paging(request),
	})
	if err != nil {
		t.logger.Warn("festival search failed", zap.String("startDate", startDate), zap.Error(err))
		return mcp.NewToolResultError(err.Error()), nil
	}
	applyFieldFilter(page, fieldFilter(request))
	return mcp.NewToolResultText(formatPage(fmt.Sprintf("Festivals from %s", startDate), page)), nil
}

type accommodationTool struct{ *deps }

func (t *accommodationTool) Handle() mcp.Tool {
	return mcp.NewTool("find_accommodations",
		mcp.WithDescription("Find hotels, guesthouses and other accommodation, optionally narrowed by area."),
		mcp.WithString("area_code", mcp.Description("Optional area code filter.")),
		mcp.WithString("sigungu_code", mcp.Description("Optional district code; requires area_code.")),
		mcp.WithString("language", languageProperty()),
		mcp.WithNumber("page", mcp.Description("Result page, starting at 1.")),
		mcp.WithNumber("rows", mcp.Description("Results per page, default 20.")),
		mcp.WithArray("filter", fieldFilterProperty()...),
	)
}

func (t *accommodationTool) Handler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page, err := t.tourism.SearchStays(ctx, tourapi.StayRequest{
		Language:    request.GetString("language", ""),
		AreaCode:    request.GetString("area_code", ""),
		SigunguCode: request.GetString("sigungu_code", ""),
		Paging:      paging(request),
	})
	if err != nil {
		t.logger.Warn("accommodation search failed", zap.Error(err))
		return mcp.NewToolResultError(err.Error()), nil
	}
	applyFieldFilter(page, fieldFilter(request))
	return mcp.NewToolResultText(formatPage("Accommodation", page)), nil
}

type detailTool struct{ *deps }

func (t *detailTool) Handle() mcp.Tool {
	return mcp.NewTool("get_detailed_information",
		mcp.WithDescription("Get full details for one tourism item: overview, type-specific attributes and extra detail rows."),
		mcp.WithString("content_id", mcp.Required(), mcp.Description("Content ID from a previous search result.")),
		mcp.WithString("content_type", mcp.Description("Content type of the item; enables type-specific details.")),
		mcp.WithString("language", languageProperty()),
	)
}

// Handler fans the three detail operations out concurrently; the
// type-specific ones run only when the content type is known.
func (t *detailTool) Handler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	contentID, err := request.RequireString("content_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	contentType, err := resolveContentType(request.GetString("content_type", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	lang := request.GetString("language", "")

	var common, intro, info *tourapi.Page
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		common, err = t.tourism.DetailCommon(gctx, contentID, lang)
		return err
	})
	if contentType != "" {
		g.Go(func() error {
			var err error
			intro, err = t.tourism.DetailIntro(gctx, contentID, contentType, lang)
			return err
		})
		g.Go(func() error {
			var err error
			info, err = t.tourism.DetailInfo(gctx, contentID, contentType, lang)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.logger.Warn("detail lookup failed", zap.String("contentID", contentID), zap.Error(err))
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatDetail(contentID, common, intro, info)), nil
}

type imagesTool struct{ *deps }

func (t *imagesTool) Handle() mcp.Tool {
	return mcp.NewTool("get_tourism_images",
		mcp.WithDescription("Get the image gallery for one tourism item."),
		mcp.WithString("content_id", mcp.Required(), mcp.Description("Content ID from a previous search result.")),
		mcp.WithString("language", languageProperty()),
		mcp.WithNumber("page", mcp.Description("Result page, starting at 1.")),
		mcp.WithNumber("rows", mcp.Description("Results per page, default 20.")),
	)
}

func (t *imagesTool) Handler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	contentID, err := request.RequireString("content_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	page, err := t.tourism.DetailImages(ctx, contentID, request.GetString("language", ""), paging(request))
	if err != nil {
		t.logger.Warn("image lookup failed", zap.String("contentID", contentID), zap.Error(err))
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatImages(contentID, page)), nil
}

type areaCodesTool struct{ *deps }

func (t *areaCodesTool) Handle() mcp.Tool {
	return mcp.NewTool("get_area_codes",
		mcp.WithDescription("List Korean area codes, or the district codes within one area."),
		mcp.WithString("parent_area_code", mcp.Description("Optional area code whose districts to list; empty lists the provinces.")),
		mcp.WithString("language", languageProperty()),
	)
}

func (t *areaCodesTool) Handler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	parent := request.GetString("parent_area_code", "")
	page, err := t.tourism.AreaCodes(ctx, parent, request.GetString("language", ""))
	if err != nil {
		t.logger.Warn("area code lookup failed", zap.String("parent", parent), zap.Error(err))
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatCodes(parent, page)), nil
}
