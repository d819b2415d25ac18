// Terrain Web serves the page that embeds the Panda3D "Terrain" demo.
//
// The page loads RunPanda3D.js and calls P3D_RunContent with the package
// name, instance ID, fixed display settings and every query parameter of
// the request. Launches can be logged to SQLite, announced over MQTT and
// written to InfluxDB.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/nerrad567/terrain-web/migrations"

	"github.com/nerrad567/terrain-web/internal/api"
	"github.com/nerrad567/terrain-web/internal/assets"
	"github.com/nerrad567/terrain-web/internal/embedpage"
	"github.com/nerrad567/terrain-web/internal/infrastructure/config"
	"github.com/nerrad567/terrain-web/internal/infrastructure/database"
	"github.com/nerrad567/terrain-web/internal/infrastructure/influxdb"
	"github.com/nerrad567/terrain-web/internal/infrastructure/logging"
	"github.com/nerrad567/terrain-web/internal/infrastructure/mqtt"
	"github.com/nerrad567/terrain-web/internal/launchlog"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the application, separated from main for testability.
// Everything it opens is closed by defers in reverse order.
func run(ctx context.Context) error { //nolint:gocognit,gocyclo // linear startup sequence
	log := logging.Default()
	log.Info("starting Terrain Web",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	page, err := buildAssembler(cfg.Page)
	if err != nil {
		return fmt.Errorf("configuring page: %w", err)
	}
	if page.Options().EscapeMode == embedpage.EscapeParity {
		log.Warn("page escape mode is parity: query values are written into the page unescaped")
	}
	log.Info("page configured",
		"data_file", cfg.Page.DataFile,
		"instance_id", cfg.Page.InstanceID,
		"forward_params", cfg.Page.ForwardUnvalidatedParams,
		"escape_mode", page.Options().EscapeMode,
	)

	var sinks []launchlog.Recorder
	deps := api.Deps{
		Config:  cfg.API,
		Site:    cfg.Site,
		Logger:  log,
		Page:    page,
		Version: version,
	}

	// Launch log database
	var db *database.DB
	if cfg.Database.Enabled {
		db, err = database.Open(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		log.Info("database connected", "path", cfg.Database.Path)

		if migrateErr := db.Migrate(ctx); migrateErr != nil {
			return fmt.Errorf("running migrations: %w", migrateErr)
		}
		log.Info("database migrations complete")

		repo := launchlog.NewSQLiteRepository(db.DB)
		sinks = append(sinks, repo)
		deps.Launches = repo
		deps.DB = db.DB
	} else {
		log.Info("launch database disabled")
	}

	// MQTT launch announcements
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(ctx, cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT connected")
		})
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		sinks = append(sinks, launchlog.NewMQTTPublisher(mqttClient, byte(cfg.MQTT.QoS))) //nolint:gosec // QoS validated to 0-2
		deps.MQTT = mqttClient
	} else {
		log.Info("MQTT disabled")
	}

	// InfluxDB launch metrics
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		sinks = append(sinks, launchlog.NewInfluxWriter(influxClient))
		deps.InfluxDB = influxClient
	} else {
		log.Info("InfluxDB disabled")
	}

	// Recording runs off the request path; closed before the sinks above.
	if len(sinks) > 0 {
		recorder := launchlog.NewAsync(launchlog.Multi(sinks...), log)
		defer func() {
			log.Info("flushing launch recorder")
			if closeErr := recorder.Close(); closeErr != nil {
				log.Error("error closing launch recorder", "error", closeErr)
			}
		}()
		deps.Recorder = recorder
		deps.LaunchStats = recorder
	}

	// Static assets
	static := assets.New(cfg.Page.StaticDir)
	if static.Available() {
		log.Info("serving static assets", "dir", static.Dir())
	} else {
		log.Warn("static asset directory not found, asset requests will 404", "dir", cfg.Page.StaticDir)
	}
	deps.Assets = static

	// HTTP server
	server, err := api.New(deps)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if err := healthCheck(ctx, server, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	log.Info("Terrain Web stopped", "renders", server.Renders())
	return nil
}

// getConfigPath returns the config file path from TERRAINWEB_CONFIG or the default.
func getConfigPath() string {
	if path := os.Getenv("TERRAINWEB_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// buildAssembler turns the page section into an embed page assembler.
func buildAssembler(cfg config.PageConfig) (*embedpage.Assembler, error) {
	mode, err := embedpage.ParseEscapeMode(cfg.EscapeMode)
	if err != nil {
		return nil, err
	}

	return embedpage.NewAssembler(embedpage.Options{
		DataFile:      cfg.DataFile,
		InstanceID:    cfg.InstanceID,
		ScriptPath:    cfg.ScriptPath,
		ForwardParams: cfg.ForwardUnvalidatedParams,
		EscapeMode:    mode,
	})
}

// healthCheck verifies every enabled component. Nil components are skipped.
func healthCheck(ctx context.Context, server *api.Server, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := server.HealthCheck(ctx); err != nil {
		return fmt.Errorf("api: %w", err)
	}

	if db != nil {
		if err := db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
