package tourapi

import (
	"time"

	"github.com/smdeveloper7/mcp-services/client"
)

// Cache lifetimes per operation family. Code tables change rarely;
// listings churn with upstream content updates.
const (
	listingTTL = 24 * time.Hour
	detailTTL  = 24 * time.Hour
	codeTTL    = 7 * 24 * time.Hour
)

// pagingParams are accepted by every list-returning operation.
var pagingParams = []string{"numOfRows", "pageNo", "arrange"}

// Operations is the tourism operation table registered with the
// underlying client. Parameter names follow the upstream API verbatim.
func Operations() map[string]client.Operation {
	ops := []client.Operation{
		{
			Name:     "searchKeyword2",
			Path:     "/searchKeyword2",
			Required: []string{"keyword"},
			Optional: []string{"contentTypeId", "areaCode", "sigunguCode", "cat1", "cat2", "cat3"},
			TTL:      listingTTL,
		},
		{
			Name:     "areaBasedList2",
			Path:     "/areaBasedList2",
			Optional: []string{"contentTypeId", "areaCode", "sigunguCode", "cat1", "cat2", "cat3", "modifiedtime"},
			TTL:      listingTTL,
		},
		{
			Name:     "locationBasedList2",
			Path:     "/locationBasedList2",
			Required: []string{"mapX", "mapY", "radius"},
			Optional: []string{"contentTypeId"},
			TTL:      listingTTL,
		},
		{
			Name:     "searchFestival2",
			Path:     "/searchFestival2",
			Required: []string{"eventStartDate"},
			Optional: []string{"eventEndDate", "areaCode", "sigunguCode"},
			TTL:      listingTTL,
		},
		{
			Name:     "searchStay2",
			Path:     "/searchStay2",
			Optional: []string{"areaCode", "sigunguCode"},
			TTL:      listingTTL,
		},
		{
			Name:     "detailCommon2",
			Path:     "/detailCommon2",
			Required: []string{"contentId"},
			TTL:      detailTTL,
		},
		{
			Name:     "detailIntro2",
			Path:     "/detailIntro2",
			Required: []string{"contentId", "contentTypeId"},
			TTL:      detailTTL,
		},
		{
			Name:     "detailInfo2",
			Path:     "/detailInfo2",
			Required: []string{"contentId", "contentTypeId"},
			TTL:      detailTTL,
		},
		{
			Name:     "detailImage2",
			Path:     "/detailImage2",
			Required: []string{"contentId"},
			Optional: []string{"imageYN"},
			TTL:      detailTTL,
		},
		{
			Name:     "areaBasedSyncList2",
			Path:     "/areaBasedSyncList2",
			Optional: []string{"contentTypeId", "areaCode", "sigunguCode", "cat1", "cat2", "cat3", "modifiedtime", "showflag"},
			TTL:      listingTTL,
		},
		{
			Name:     "areaCode2",
			Path:     "/areaCode2",
			Optional: []string{"areaCode"},
			TTL:      codeTTL,
		},
		{
			Name:     "categoryCode2",
			Path:     "/categoryCode2",
			Optional: []string{"contentTypeId", "cat1", "cat2", "cat3"},
			TTL:      codeTTL,
		},
	}

	table := make(map[string]client.Operation, len(ops))
	for _, op := range ops {
		op.Optional = append(op.Optional, pagingParams...)
		table[op.Name] = op
	}
	return table
}
