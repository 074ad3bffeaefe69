package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/dpup/prefab"

	"github.com/dpup/xctsk-viewer/server/internal/api"
	"github.com/dpup/xctsk-viewer/server/internal/cache"
	"github.com/dpup/xctsk-viewer/server/internal/clients/xcontest"
	"github.com/dpup/xctsk-viewer/server/internal/config"
	"github.com/dpup/xctsk-viewer/server/internal/services"
)

func main() {
	appConfig := loadConfig()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Fetched task documents, shared by the API and the warmer
	cacheInstance := cache.NewCache()
	cacheInstance.StartPeriodicCleanup(ctx, appConfig.XContest.CacheTTL)

	xcontestClient := xcontest.NewClient(&appConfig.XContest, cacheInstance)
	provider := services.NewXCTSKProvider()
	artifactService := services.NewArtifactService(provider, &appConfig.Render)
	handler := api.NewHandler(xcontestClient, artifactService, &appConfig.Server)

	log.Printf("XCTSK Viewer API Server starting")
	log.Printf("Task source: %s (api version %d)", appConfig.XContest.BaseURL, appConfig.XContest.APIVersion)
	log.Printf("Task cache TTL: %s", appConfig.XContest.CacheTTL)
	log.Printf("Warm task codes: %d", len(appConfig.XContest.WarmCodes))

	// Keep featured tasks in the cache
	warmer := services.NewTaskWarmer(xcontestClient, provider, &appConfig.XContest)
	warmer.Start(ctx)
	defer warmer.Stop()

	// Server configuration (port, etc.) is loaded from prefab.yaml/env vars
	server := prefab.New(
		prefab.WithHTTPHandlerFunc("/api/", handler.ServeHTTP),
		prefab.WithHTTPHandlerFunc("/", homepageHandler),
	)

	// Start the server (blocks until shutdown)
	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// loadConfig starts from defaults and applies the "xctsk" section of
// Prefab's config. XCTSK_CONFIG names a standalone YAML file to use instead.
func loadConfig() *config.Config {
	if path := os.Getenv("XCTSK_CONFIG"); path != "" {
		appConfig, err := config.Load(path)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		return appConfig
	}

	appConfig := config.DefaultConfig()
	if err := prefab.Config.Unmarshal("xctsk", appConfig); err != nil {
		log.Fatalf("Failed to unmarshal xctsk section: %v", err)
	}
	if err := appConfig.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	return appConfig
}

// homepageHandler serves a simple HTML homepage at the server root
func homepageHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	html := `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>XCTSK Viewer</title>
    <style>
        body {
            font-family: 'Courier New', Consolas, monospace;
            background: #000;
            color: #0f0;
            padding: 20px;
            line-height: 1.4;
        }
        a { color: #0ff; text-decoration: none; }
        a:hover { text-decoration: underline; }
        pre { margin: 0; }
        .header { color: #ff0; }
    </style>
</head>
<body>
<pre>
<span class="header">XCTSK Viewer</span>

Turns XCTrack competition tasks into distance tables, map geometry,
KML/GPX exports and share codes.

<span class="header">API Endpoints:</span>

  GET  /api/xctsk/{code}                     - Task summary, turnpoints and GeoJSON
  GET  /api/xctsk/{code}/geojson             - GeoJSON feature collection
  GET  /api/xctsk/{code}/kml                 - KML document
  GET  /api/xctsk/{code}/gpx                 - GPX waypoints and routes
  GET  /api/qrcode_image/qrcode_{code}.png   - Share code for XCTrack
  POST /api/xctsk                            - Upload a .xctsk file, XCTSK: string or QR image

<span class="header">Example Usage:</span>
  curl /api/xctsk/{code}
  curl --data-binary @task.xctsk /api/xctsk
</pre>
</body>
</html>`

	if _, err := fmt.Fprint(w, html); err != nil {
		slog.Error("Failed to write homepage HTML", "error", err)
	}
}
