package useragent

import (
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestExtractIPAddress(t *testing.T) {
	Convey("Given requests behind proxies", t, func() {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = "10.0.0.9:5555"

		Convey("The first X-Forwarded-For hop wins", func() {
			r.Header.Set("X-Forwarded-For", " 203.0.113.7 , 10.0.0.1")
			r.Header.Set("X-Real-IP", "198.51.100.2")
			So(ExtractIPAddress(r), ShouldEqual, "203.0.113.7")
		})

		Convey("X-Real-IP is next", func() {
			r.Header.Set("X-Real-IP", "198.51.100.2")
			So(ExtractIPAddress(r), ShouldEqual, "198.51.100.2")
		})

		Convey("RemoteAddr loses its port", func() {
			So(ExtractIPAddress(r), ShouldEqual, "10.0.0.9")
		})

		Convey("IPv6 remote addresses keep their colons", func() {
			r.RemoteAddr = "[2001:db8::1]:443"
			So(ExtractIPAddress(r), ShouldEqual, "2001:db8::1")
		})

		Convey("An empty RemoteAddr is unknown", func() {
			r.RemoteAddr = ""
			So(ExtractIPAddress(r), ShouldEqual, "unknown")
		})
	})
}

func TestExtractDeviceInfo(t *testing.T) {
	Convey("Given user agents", t, func() {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		So(ExtractDeviceInfo(r), ShouldEqual, "Unknown Device")

		r.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120.0 Safari/537.36 Edg/120.0")
		So(ExtractDeviceInfo(r), ShouldEqual, "Edge on Windows")

		r.Header.Set("User-Agent", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) Safari/604.1")
		So(ExtractDeviceInfo(r), ShouldEqual, "Safari on iOS")

		r.Header.Set("User-Agent", "curl/8.4.0")
		So(ExtractDeviceInfo(r), ShouldEqual, "curl on Unknown OS")
	})
}
