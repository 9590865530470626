package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"travel-chat-be/internal/pkg/logger"
	"travel-chat-be/pkg/weather"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Geocoder resolves a place name to coordinates.
type Geocoder interface {
	Resolve(ctx context.Context, location string) (lat, lon float64, err error)
}

// WeatherProvider fetches current conditions for coordinates.
type WeatherProvider interface {
	Current(ctx context.Context, lat, lon float64) (*weather.Conditions, error)
}

// IEnrichmentService detects an embedded weather intent in the user's
// message and turns it into a synthetic context block for the prompt.
type IEnrichmentService interface {
	Enrich(ctx context.Context, userText string) string
}

var weatherPattern = regexp.MustCompile(`(?i)weather in ([\w\s,]+)`)

type enrichmentService struct {
	geocoder Geocoder
	weather  WeatherProvider
	cache    *gocache.Cache
	logger   logger.ILogger
}

func NewEnrichmentService(geocoder Geocoder, weatherProvider WeatherProvider, log logger.ILogger) IEnrichmentService {
	return &enrichmentService{
		geocoder: geocoder,
		weather:  weatherProvider,
		cache:    gocache.New(10*time.Minute, 30*time.Minute),
		logger:   log,
	}
}

// Enrich returns a weather context block for messages matching
// "weather in <location>", or "" when the message carries no weather
// intent. External failures never propagate: the block degrades to a
// placeholder so the turn always proceeds.
func (s *enrichmentService) Enrich(ctx context.Context, userText string) string {
	match := weatherPattern.FindStringSubmatch(userText)
	if match == nil {
		return ""
	}
	location := strings.ToLower(strings.TrimSpace(match[1]))

	if cached, ok := s.cache.Get(location); ok {
		return cached.(string)
	}

	block, err := s.lookup(ctx, location)
	if err != nil {
		s.logger.Warn("enrichment", "Weather lookup failed", map[string]interface{}{
			"location": location,
			"error":    err.Error(),
		})
		return fmt.Sprintf("[Could not fetch weather for '%s']", location)
	}

	s.cache.SetDefault(location, block)
	return block
}

func (s *enrichmentService) lookup(ctx context.Context, location string) (string, error) {
	lat, lon, err := s.geocoder.Resolve(ctx, location)
	if err != nil {
		return "", err
	}

	conditions, err := s.weather.Current(ctx, lat, lon)
	if err != nil {
		return "", err
	}

	title := cases.Title(language.English).String(location)
	return fmt.Sprintf(
		"[Weather Info for %s]\nTemperature: %v°C\nWind: %v km/h\n",
		title, conditions.Temperature, conditions.Windspeed,
	), nil
}
