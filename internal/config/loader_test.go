package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/iamasit07/soloq/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	"SOLOQ_CONFIG",
	"SOLOQ_ADDR",
	"SOLOQ_STORE_DRIVER",
	"SOLOQ_DATABASE_URL",
	"SOLOQ_RATE_LIMIT_GAMES",
	"SOLOQ_RATE_LIMIT_WINDOW",
	"SOLOQ_UPDATE_GLOBAL_RATING",
	"SOLOQ_ALLOWED_ORIGINS",
	"SOLOQ_LEADERBOARD_MAX_LIMIT",
}

func clearConfigEnvVars() {
	for _, k := range configEnvVars {
		_ = os.Unsetenv(k)
	}
}

func TestLoad(t *testing.T) {
	Convey("Given a config loader", t, func() {
		clearConfigEnvVars()
		Reset(clearConfigEnvVars)

		Convey("When loading with the memory store and no overrides", func() {
			_ = os.Setenv("SOLOQ_STORE_DRIVER", "memory")
			cfg, err := config.Load()

			Convey("Then defaults apply", func() {
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":8080")
				So(cfg.RateLimitGames, ShouldEqual, 10)
				So(cfg.RateLimitReads, ShouldEqual, 20)
				So(cfg.RateLimitWindow, ShouldEqual, time.Minute)
				So(cfg.UpdateGlobalRating, ShouldBeTrue)
				So(cfg.LeaderboardDefaultLimit, ShouldEqual, 10)
				So(cfg.LeaderboardMaxLimit, ShouldEqual, 50)
				So(cfg.AllowedOrigins, ShouldResemble, []string{"http://localhost:5173"})
			})
		})

		Convey("When environment variables override defaults", func() {
			_ = os.Setenv("SOLOQ_STORE_DRIVER", "memory")
			_ = os.Setenv("SOLOQ_ADDR", ":9090")
			_ = os.Setenv("SOLOQ_RATE_LIMIT_GAMES", "3")
			_ = os.Setenv("SOLOQ_RATE_LIMIT_WINDOW", "30s")
			_ = os.Setenv("SOLOQ_UPDATE_GLOBAL_RATING", "false")
			_ = os.Setenv("SOLOQ_ALLOWED_ORIGINS", "https://a.example, https://b.example")
			cfg, err := config.Load()

			Convey("Then the overrides win", func() {
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":9090")
				So(cfg.RateLimitGames, ShouldEqual, 3)
				So(cfg.RateLimitWindow, ShouldEqual, 30*time.Second)
				So(cfg.UpdateGlobalRating, ShouldBeFalse)
				So(cfg.AllowedOrigins, ShouldResemble, []string{"https://a.example", "https://b.example"})
			})
		})

		Convey("When a YAML file is named", func() {
			dir := t.TempDir()
			path := filepath.Join(dir, "soloq.yaml")
			yaml := "addr: \":7070\"\nstore_driver: postgres\ndatabase_url: postgres://localhost/soloq\nleaderboard_max_limit: 25\n"
			So(os.WriteFile(path, []byte(yaml), 0o600), ShouldBeNil)
			_ = os.Setenv("SOLOQ_CONFIG", path)

			Convey("Then file values load and env still wins", func() {
				_ = os.Setenv("SOLOQ_ADDR", ":6060")
				cfg, err := config.Load()
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":6060")
				So(cfg.StoreDriver, ShouldEqual, config.StoreDriverPostgres)
				So(cfg.DatabaseURL, ShouldEqual, "postgres://localhost/soloq")
				So(cfg.LeaderboardMaxLimit, ShouldEqual, 25)
			})
		})

		Convey("When the named file is missing", func() {
			_ = os.Setenv("SOLOQ_CONFIG", "/nonexistent/soloq.yaml")
			_, err := config.Load()
			So(errors.Is(err, config.ErrLoadConfig), ShouldBeTrue)
		})

		Convey("When postgres is selected without a database url", func() {
			_, err := config.Load()
			So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
		})
	})
}
