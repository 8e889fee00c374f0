package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/flyerhub/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 1024)
				convey.So(cfg.PostingPrice, convey.ShouldEqual, "5.99")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("FLYERHUB_ADDR", ":8080")
			_ = os.Setenv("FLYERHUB_QUEUE_SIZE", "64")
			_ = os.Setenv("FLYERHUB_WORKER_COUNT", "4")
			_ = os.Setenv("FLYERHUB_QUOTA_YEAR_AWARE", "false")
			_ = os.Setenv("FLYERHUB_POSTING_PRICE", "3.50")
			_ = os.Setenv("FLYERHUB_RESERVED_BUSINESS_NAMES", "acme,globex")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
				convey.So(cfg.QuotaYearAware, convey.ShouldBeFalse)
				convey.So(cfg.PostingPrice, convey.ShouldEqual, "3.50")
				convey.So(cfg.ReservedBusinessNames, convey.ShouldResemble, []string{"acme", "globex"})
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
log_format: json
db_path: /tmp/flyerhub.db
free_postings_per_month: 3
flush_schedule: "@every 30s"
reserved_business_names:
  - initech
metrics_namespace: shop
metrics_labels:
  deployment: staging
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("FLYERHUB_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.DBPath, convey.ShouldEqual, "/tmp/flyerhub.db")
				convey.So(cfg.FreePostingsPerMonth, convey.ShouldEqual, 3)
				convey.So(cfg.FlushSchedule, convey.ShouldEqual, "@every 30s")
				convey.So(cfg.ReservedBusinessNames, convey.ShouldResemble, []string{"initech"})
				convey.So(cfg.MetricsNamespace, convey.ShouldEqual, "shop")
				convey.So(cfg.MetricsLabels, convey.ShouldResemble, map[string]string{"deployment": "staging"})
				convey.So(cfg.QueueSize, convey.ShouldEqual, 1024) // From defaults
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
worker_count: 8
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("FLYERHUB_CONFIG", tmpFile)
			_ = os.Setenv("FLYERHUB_ADDR", ":8080") // This should override the file
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 8)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("FLYERHUB_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("FLYERHUB_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("FLYERHUB_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with a malformed price", func() {
			_ = os.Setenv("FLYERHUB_POSTING_PRICE", "cheap")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("FLYERHUB_QUEUE_SIZE", "invalid")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"FLYERHUB_CONFIG",
		"FLYERHUB_ADDR",
		"FLYERHUB_QUEUE_SIZE",
		"FLYERHUB_WORKER_COUNT",
		"FLYERHUB_QUOTA_YEAR_AWARE",
		"FLYERHUB_POSTING_PRICE",
		"FLYERHUB_RESERVED_BUSINESS_NAMES",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "flyerhub-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
