package logger

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	Convey("Given level names", t, func() {
		So(ParseLevel("debug"), ShouldEqual, zapcore.DebugLevel)
		So(ParseLevel(" WARN "), ShouldEqual, zapcore.WarnLevel)
		So(ParseLevel("warning"), ShouldEqual, zapcore.WarnLevel)
		So(ParseLevel("error"), ShouldEqual, zapcore.ErrorLevel)
		So(ParseLevel("nonsense"), ShouldEqual, zapcore.InfoLevel)
		So(ParseLevel(""), ShouldEqual, zapcore.InfoLevel)
	})
}

func TestNew(t *testing.T) {
	Convey("Given both formats", t, func() {
		for _, format := range []string{"json", "console", ""} {
			l := New("warn", format)
			So(l, ShouldNotBeNil)
			So(l.Core().Enabled(zapcore.InfoLevel), ShouldBeFalse)
			So(l.Core().Enabled(zapcore.ErrorLevel), ShouldBeTrue)
		}
	})
}
