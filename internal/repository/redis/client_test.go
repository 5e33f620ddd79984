package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/iamasit07/soloq/internal/domain"
	. "github.com/smartystreets/goconvey/convey"
)

func TestConnect(t *testing.T) {
	ctx := context.Background()

	Convey("Given a running redis", t, func() {
		mr, err := miniredis.Run()
		So(err, ShouldBeNil)
		Reset(mr.Close)

		Convey("Then Connect returns a live client", func() {
			client := Connect(ctx, Options{Addr: mr.Addr()}, nil)
			So(client, ShouldNotBeNil)
			_ = client.Close()
		})
	})

	Convey("Given no address", t, func() {
		So(Connect(ctx, Options{}, nil), ShouldBeNil)
	})

	Convey("Given an unreachable redis", t, func() {
		mr, err := miniredis.Run()
		So(err, ShouldBeNil)
		addr := mr.Addr()
		mr.Close()

		So(Connect(ctx, Options{Addr: addr}, nil), ShouldBeNil)
	})
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()

	Convey("Given a cache over miniredis", t, func() {
		mr, err := miniredis.Run()
		So(err, ShouldBeNil)
		Reset(mr.Close)

		client := Connect(ctx, Options{Addr: mr.Addr()}, nil)
		So(client, ShouldNotBeNil)
		Reset(func() { _ = client.Close() })
		cache := NewRedisCache(client)

		Convey("A stored value reads back until it expires", func() {
			So(cache.Set(ctx, "leaderboard:neuro:10", `{"rows":[]}`, time.Minute), ShouldBeNil)

			val, err := cache.Get(ctx, "leaderboard:neuro:10")
			So(err, ShouldBeNil)
			So(val, ShouldEqual, `{"rows":[]}`)

			mr.FastForward(2 * time.Minute)
			_, err = cache.Get(ctx, "leaderboard:neuro:10")
			So(err, ShouldEqual, domain.ErrNotFound)
		})

		Convey("A missing key is ErrNotFound", func() {
			_, err := cache.Get(ctx, "nope")
			So(err, ShouldEqual, domain.ErrNotFound)
		})

		Convey("Del removes keys", func() {
			So(cache.Set(ctx, "a", "1", 0), ShouldBeNil)
			So(cache.Del(ctx, "a"), ShouldBeNil)
			So(mr.Exists("a"), ShouldBeFalse)
		})
	})
}
