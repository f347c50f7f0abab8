package health

import (
	"encoding/json"
	"net/http"
	"runtime"

	"github.com/gorilla/mux"
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildTime string `json:"build_time" yaml:"build_time"`
	GoVersion string `json:"go_version" yaml:"go_version"`
}

// NewBuildInfo fills GoVersion from the runtime.
func NewBuildInfo(version, commit, buildTime string) BuildInfo {
	return BuildInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
		GoVersion: runtime.Version(),
	}
}

// LivenessHandler serves the liveness probe.
//
//	{"status": "ok", "timestamp": "2026-10-18T10:30:00Z"}
func (c *Checker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, c.CheckLiveness(r.Context()))
	}
}

// ReadinessHandler serves the readiness probe: 200 when every check passed,
// 503 otherwise.
//
//	{
//	    "status": "degraded",
//	    "checks": {
//	        "storage": {"status": "unhealthy", "message": "database is locked"}
//	    },
//	    "timestamp": "2026-10-18T10:30:00Z"
//	}
func (c *Checker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := c.CheckReadiness(r.Context())

		code := http.StatusOK
		if !report.Ready() {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, r, code, report)
	}
}

// VersionHandler serves build information.
func VersionHandler(info BuildInfo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, info)
	}
}

// Paths selects where the probes are mounted. Empty paths are skipped.
type Paths struct {
	Liveness  string
	Readiness string
	Version   string
}

// Register mounts the probe endpoints on router for GET and HEAD. Other
// methods fall through to the router's MethodNotAllowedHandler.
func (c *Checker) Register(router *mux.Router, paths Paths, info BuildInfo) {
	if paths.Liveness != "" {
		router.Handle(paths.Liveness, c.LivenessHandler()).Methods(http.MethodGet, http.MethodHead).Name("health")
	}
	if paths.Readiness != "" {
		router.Handle(paths.Readiness, c.ReadinessHandler()).Methods(http.MethodGet, http.MethodHead).Name("ready")
	}
	if paths.Version != "" {
		router.Handle(paths.Version, VersionHandler(info)).Methods(http.MethodGet, http.MethodHead).Name("version")
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if r.Method != http.MethodHead {
		_ = json.NewEncoder(w).Encode(v)
	}
}
