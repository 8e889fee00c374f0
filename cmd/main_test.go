package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	app "github.com/okian/flyerhub/internal/app"
	"github.com/okian/flyerhub/internal/config"
	"github.com/okian/flyerhub/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		ctx := context.Background()

		convey.Convey("When configuration comes from the environment", func() {
			t.Setenv("FLYERHUB_ADDR", ":8080")
			t.Setenv("FLYERHUB_QUEUE_SIZE", "64")
			t.Setenv("FLYERHUB_WORKER_COUNT", "4")

			convey.Convey("Then it should be loadable", func() {
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When building service options", func() {
			cfg := config.New(ctx)
			opts, err := serviceOptions(cfg)

			convey.Convey("Then defaults translate cleanly", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(opts, convey.ShouldNotBeEmpty)
			})

			convey.Convey("Then a bad price is rejected", func() {
				cfg.PostingPrice = "free"
				_, err := serviceOptions(cfg)
				convey.So(err, convey.ShouldNotBeNil)
			})

			convey.Convey("Then a negative free tier is rejected", func() {
				cfg.FreePostingsPerMonth = -1
				_, err := serviceOptions(cfg)
				convey.So(err, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When opening the repository", func() {
			cfg := config.New(ctx)

			convey.Convey("Then an empty path means memory", func() {
				store, err := newStore(ctx, cfg)
				convey.So(err, convey.ShouldBeNil)
				convey.So(store.Close(), convey.ShouldBeNil)
			})

			convey.Convey("Then a path opens sqlite", func() {
				cfg.DBPath = filepath.Join(t.TempDir(), "data", "flyerhub.db")
				store, err := newStore(ctx, cfg)
				convey.So(err, convey.ShouldBeNil)
				keys, err := store.Keys(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(keys, convey.ShouldBeEmpty)
				convey.So(store.Close(), convey.ShouldBeNil)
			})
		})

		convey.Convey("When building the HTTP mux", func() {
			cfg := config.New(ctx)
			cfg.SeedFlyersFile = "../configs/flyers.yaml"
			opts, err := serviceOptions(cfg)
			convey.So(err, convey.ShouldBeNil)
			svc := app.New(opts...)
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer func() { _ = svc.Stop(ctx) }()
			mux := newMux(ctx, svc)

			convey.Convey("Then every surface is routed", func() {
				for _, path := range []string{"/", "/api-docs", "/openapi.yaml", "/flyers", "/flyers/trending", "/stats", "/healthz"} {
					req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
					w := httptest.NewRecorder()
					mux.ServeHTTP(w, req)
					convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				}
			})

			convey.Convey("Then the seed catalog is served", func() {
				req := httptest.NewRequest(http.MethodGet, "/flyers/flyer-1", http.NoBody)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Body.String(), convey.ShouldContainSubstring, "Patel Brothers")
			})
		})

		convey.Convey("When running until the context is cancelled", func() {
			cfg := config.New(ctx)
			cfg.Addr = "127.0.0.1:0"
			runCtx, cancel := context.WithCancel(ctx)
			done := make(chan error, 1)
			go func() { done <- run(runCtx, cfg) }()
			time.Sleep(50 * time.Millisecond)
			cancel()

			convey.Convey("Then it shuts down cleanly", func() {
				select {
				case err := <-done:
					convey.So(err, convey.ShouldBeNil)
				case <-time.After(10 * time.Second):
					convey.So("run did not return", convey.ShouldBeEmpty)
				}
			})
		})
	})
}
