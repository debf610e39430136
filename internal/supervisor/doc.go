// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

/*
Package supervisor runs Dashfeed's long-lived services under a suture/v4
supervisor tree.

	dashfeed (root)
	├── feeders-layer
	│   └── refresh        periodic feeder jobs
	└── api-layer
	    └── http-server    chi router

Each layer restarts its own children with suture's failure threshold and
backoff. Supervisor events are logged through sutureslog into the zerolog
logger via logging.NewSlogLogger.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddFeederService(services.NewRefreshService(jobs, services.RefreshConfig{Interval: 5 * time.Minute}))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	return tree.Serve(ctx)
*/
package supervisor
