package utils

import (
	"net/http"
	"strconv"

	"github.com/airenas/go-app/pkg/goapp"

	_ "net/http/pprof"
)

// RunPerfEndpoint serves pprof handlers if port > 0, blocks
func RunPerfEndpoint(port int) {
	if port <= 0 {
		goapp.Log.Info().Msg("no debug.port provided - skip pprof")
		return
	}
	goapp.Log.Info().Int("port", port).Msg("Starting debug http endpoint")
	if err := http.ListenAndServe(":"+strconv.Itoa(port), nil); err != nil {
		goapp.Log.Error().Err(err).Msg("can't start debug endpoint")
	}
}
