package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

func (d *deps) weatherTools() []Tool {
	return []Tool{
		&currentWeatherTool{d},
		&hourlyForecastTool{d},
		&villageForecastTool{d},
	}
}

func coordinateProperties() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithNumber("longitude", mcp.Required(), mcp.Description("WGS84 longitude, e.g. 126.9780 for Seoul.")),
		mcp.WithNumber("latitude", mcp.Required(), mcp.Description("WGS84 latitude, e.g. 37.5665 for Seoul.")),
	}
}

func requireCoordinates(request mcp.CallToolRequest) (lon, lat float64, errResult *mcp.CallToolResult) {
	lon, err := request.RequireFloat("longitude")
	if err != nil {
		return 0, 0, mcp.NewToolResultError(err.Error())
	}
	lat, err = request.RequireFloat("latitude")
	if err != nil {
		return 0, 0, mcp.NewToolResultError(err.Error())
	}
	return lon, lat, nil
}

type currentWeatherTool struct{ *deps }

func (t *currentWeatherTool) Handle() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Get current observed weather conditions for a location in Korea."),
	}, coordinateProperties()...)
	return mcp.NewTool("get_current_weather", opts...)
}

func (t *currentWeatherTool) Handler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	lon, lat, errResult := requireCoordinates(request)
	if errResult != nil {
		return errResult, nil
	}

	nc, err := t.weather.CurrentConditions(ctx, lon, lat)
	if err != nil {
		t.logger.Warn("nowcast failed", zap.Float64("lon", lon), zap.Float64("lat", lat), zap.Error(err))
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatNowcast(nc)), nil
}

type hourlyForecastTool struct{ *deps }

func (t *hourlyForecastTool) Handle() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Get the hourly weather forecast for the next ~6 hours for a location in Korea."),
	}, coordinateProperties()...)
	return mcp.NewTool("get_hourly_forecast", opts...)
}

func (t *hourlyForecastTool) Handler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	lon, lat, errResult := requireCoordinates(request)
	if errResult != nil {
		return errResult, nil
	}

	fc, err := t.weather.HourlyForecast(ctx, lon, lat)
	if err != nil {
		t.logger.Warn("hourly forecast failed", zap.Float64("lon", lon), zap.Float64("lat", lat), zap.Error(err))
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatForecast("Hourly forecast", fc)), nil
}

type villageForecastTool struct{ *deps }

func (t *villageForecastTool) Handle() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Get the three-day weather forecast in three-hour steps for a location in Korea, including daily min/max temperatures."),
	}, coordinateProperties()...)
	return mcp.NewTool("get_weather_forecast", opts...)
}

func (t *villageForecastTool) Handler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	lon, lat, errResult := requireCoordinates(request)
	if errResult != nil {
		return errResult, nil
	}

	fc, err := t.weather.VillageForecast(ctx, lon, lat)
	if err != nil {
		t.logger.Warn("village forecast failed", zap.Float64("lon", lon), zap.Float64("lat", lat), zap.Error(err))
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatForecast("Three-day forecast", fc)), nil
}
