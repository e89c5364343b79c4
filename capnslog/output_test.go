package capnslog

import (
	"os"
	"testing"
)

func TestCapnslogCaptureAtInfo(t *testing.T) {
	plog := NewPackageLogger("github.com/gztools/rezip", "captest")
	repo := MustRepoLogger("github.com/gztools/rezip")
	SetFormatter(NewStringFormatter(os.Stdout))

	repo.SetGlobalLogLevel(ERROR)
	plog.Info(BaseLogEntry("suppressed at ERROR"))

	repo.SetGlobalLogLevel(INFO)
	plog.Info(BaseLogEntry("visible at INFO"))
}

func TestCapnslogStraight(t *testing.T) {
	plog := NewPackageLogger("github.com/gztools/rezip", "straight")
	SetFormatter(NewStringFormatter(os.Stdout))
	plog.Error(BaseLogEntry("error"))
	plog.Print("print")
	plog.Info(BaseLogEntry("info"))
	plog.Debug(BaseLogEntry("debug"))
}
