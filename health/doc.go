// Package health aggregates the health of the service's parts.
//
// A Checker polls registered sources on demand and combines them with
// Aggregate: one unhealthy source makes the service unhealthy, a degraded one
// makes it degraded. Components report through FromComponentHealth, which
// scrubs URLs, paths, addresses and credentials from their last error.
//
//	checker := health.NewChecker("clientmanager")
//	checker.Register("nats", func() health.Status { ... })
//	checker.Register("client-manager", func() health.Status {
//	    return health.FromComponentHealth("client-manager", comp.Health())
//	})
//	server.SetHealthCheck(checker.Err)
package health
