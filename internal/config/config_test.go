package config_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/outbreak/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":8050")
			convey.So(cfg.ModelPath, convey.ShouldEqual, "models/outbreak_model.yaml")
			convey.So(cfg.ModelLabelPath, convey.ShouldEqual, "label")
			convey.So(cfg.RevocationStore, convey.ShouldEqual, config.StoreMemory)
			convey.So(cfg.SessionTTL(), convey.ShouldEqual, 12*time.Hour)
			convey.So(cfg.ModelTimeout(), convey.ShouldEqual, 2*time.Second)
			convey.So(cfg.TrendDays, convey.ShouldEqual, 30)
			convey.So(cfg.TrendWindow, convey.ShouldEqual, 3)
			convey.So(cfg.TrendHorizon, convey.ShouldEqual, 7)
		})

		convey.Convey("Then it is invalid until a secret is set", func() {
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			cfg.SessionSecret = "s3cret"
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a valid config", t, func() {
		cfg := config.New(context.Background())
		cfg.SessionSecret = "s3cret"

		cases := []struct {
			name   string
			mutate func(c *config.Config)
			want   string
		}{
			{"empty addr", func(c *config.Config) { c.Addr = "" }, "addr must not be empty"},
			{"no model", func(c *config.Config) { c.ModelPath = "" }, "model_path or model_url"},
			{"remote without timeout", func(c *config.Config) { c.ModelURL = "http://m"; c.ModelTimeoutMS = 0 }, "model_timeout_ms"},
			{"zero ttl", func(c *config.Config) { c.SessionTTLMinutes = 0 }, "session_ttl_minutes"},
			{"empty cookie", func(c *config.Config) { c.SessionCookie = "" }, "session_cookie"},
			{"unknown store", func(c *config.Config) { c.RevocationStore = "etcd" }, `unknown revocation_store "etcd"`},
			{"redis without url", func(c *config.Config) { c.RevocationStore = config.StoreRedis }, "redis_url is required"},
			{"zero revocation size", func(c *config.Config) { c.RevocationMaxSize = 0 }, "revocation_max_size"},
			{"zero window", func(c *config.Config) { c.TrendWindow = 0 }, "trend_days, trend_window and trend_horizon"},
		}

		for _, tc := range cases {
			convey.Convey("When "+tc.name, func() {
				tc.mutate(cfg)
				err := cfg.Validate()
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, tc.want)
			})
		}

		convey.Convey("When a remote model is configured without a path", func() {
			cfg.ModelPath = ""
			cfg.ModelURL = "http://model:9000/predict"
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
