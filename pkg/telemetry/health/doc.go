// Package health provides liveness and readiness probes for the Books API.
//
// Liveness (/health) answers as long as the process serves HTTP. Readiness
// (/ready) runs every registered component check concurrently, each bounded
// by the configured timeout, and answers 503 when any of them fails:
//
//	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
//	checker.RegisterCheck("storage", store.Ping)
//	checker.Register(router, health.Paths{
//	    Liveness:  "/health",
//	    Readiness: "/ready",
//	    Version:   "/version",
//	}, health.NewBuildInfo(version, commit, buildTime))
package health
