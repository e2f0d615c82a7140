// Package routes defines the API routes and URL structure
package routes

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/tryonlabs/tryon/internal/types"
	"github.com/tryonlabs/tryon/pkg/api/v1/handlers"
)

/*

To keep this file organized, routes should be organized in the following way:

1. Smallest scope first
2. For similar scopes, put the endpoints in alphabetical order
3. Order routes in GET, POST, PUT, DELETE order.
	a. Within this ordering, param urls (ie /:id) should go last, otherwise fiber will interpret the route slug as that param.
	b. After param considerations, order alphabetically.
4. For clarity, naming should match the action (i.e. GetTask, SubmitTryOn)

*/

// API base configuration
const (
	// DefaultPort is the default port for the API
	DefaultPort = "8080"
	// APIv1Prefix is the prefix for all API endpoints
	APIv1Prefix = "/api/v1"
	// MediaPrefix serves files of the local media backend
	MediaPrefix = "/media"
)

// DefaultBaseURL is the default base URL for the API
var DefaultBaseURL = fmt.Sprintf("http://localhost:%s", DefaultPort)

// Route names for lookup
const (
	// Health check
	HealthCheck = "HealthCheck"

	// Cron routes
	CronPoll = "CronPoll"

	// Quota routes
	GetQuota = "GetQuota"

	// Try-on routes
	ListTryOns  = "ListTryOns"
	GetTryOn    = "GetTryOn"
	SubmitTryOn = "SubmitTryOn"
)

// routeCache stores extracted routes for use prior to compilation
var (
	routeCache     map[string]string
	routeCacheMu   sync.RWMutex
	routeCacheInit sync.Once
)

// RegisterRoutes configures all the v1 routes
func RegisterRoutes(
	app *fiber.App,
	tryOnHandler *handlers.TryOnHandler,
	quotaHandler *handlers.QuotaHandler,
	cronHandler *handlers.CronHandler,
) {
	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(types.HealthResponse{Status: "healthy"})
	}).Name(HealthCheck)

	// API v1 routes
	v1 := app.Group(APIv1Prefix)

	// Cron endpoints, authenticated with the shared cron secret
	v1.Post("/cron/poll", cronHandler.Poll).Name(CronPoll)

	// Quota endpoints
	v1.Get("/quota", quotaHandler.GetQuota).Name(GetQuota)

	// Try-on endpoints
	tryOn := v1.Group("/tryon")
	tryOn.Get("/", tryOnHandler.ListTasks).Name(ListTryOns)
	tryOn.Get("/:id", tryOnHandler.GetTask).Name(GetTryOn)
	tryOn.Post("/", tryOnHandler.Submit).Name(SubmitTryOn)
}

// RegisterMedia serves the local media directory
func RegisterMedia(app *fiber.App, dir string) {
	app.Static(MediaPrefix, dir, fiber.Static{
		ByteRange: true,
	})
}

// initRouteCache initializes the route cache by creating a mock app and extracting routes
func initRouteCache() {
	routeCacheInit.Do(func() {
		routeCache = make(map[string]string)

		app := fiber.New()
		RegisterRoutes(app, &handlers.TryOnHandler{}, &handlers.QuotaHandler{}, &handlers.CronHandler{})

		for _, route := range app.GetRoutes() {
			if route.Name != "" {
				routeCache[route.Name] = route.Path
			}
		}
	})
}

// GetRoute returns the route pattern for the given route name
func GetRoute(name string) string {
	initRouteCache()

	routeCacheMu.RLock()
	defer routeCacheMu.RUnlock()
	return routeCache[name]
}

// BuildURL builds a URL for the given route name and parameters
func BuildURL(routeName string, params map[string]string, queryParams url.Values) string {
	route := GetRoute(routeName)
	if route == "" {
		return ""
	}

	// Replace parameters in the route
	for param, value := range params {
		route = strings.ReplaceAll(route, ":"+param, url.PathEscape(value))
	}

	// Remove trailing slash if it's a base endpoint with no parameters
	if strings.HasSuffix(route, "/") && !strings.Contains(route, ":") && route != "/" {
		route = strings.TrimSuffix(route, "/")
	}

	// Add query parameters if any
	if len(queryParams) > 0 {
		route = fmt.Sprintf("%s?%s", route, queryParams.Encode())
	}

	return route
}

// Health check route helper

// HealthCheckURL returns the URL for the health check endpoint
func HealthCheckURL() string {
	return BuildURL(HealthCheck, nil, nil)
}

// Cron route helper

// CronPollURL returns the URL for the cron poll endpoint, optionally scoped to one task
func CronPollURL(taskID string) string {
	var q url.Values
	if taskID != "" {
		q = url.Values{"taskId": []string{taskID}}
	}
	return BuildURL(CronPoll, nil, q)
}

// Quota route helper

// GetQuotaURL returns the URL for the quota endpoint
func GetQuotaURL() string {
	return BuildURL(GetQuota, nil, nil)
}

// Try-on route helpers

// ListTryOnsURL returns the URL for listing try-on tasks
func ListTryOnsURL(queryParams url.Values) string {
	return BuildURL(ListTryOns, nil, queryParams)
}

// GetTryOnURL returns the URL for polling a try-on task
func GetTryOnURL(id string) string {
	return BuildURL(GetTryOn, map[string]string{"id": id}, nil)
}

// SubmitTryOnURL returns the URL for submitting a try-on
func SubmitTryOnURL() string {
	return BuildURL(SubmitTryOn, nil, nil)
}
