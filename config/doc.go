// Package config loads the client manager's configuration.
//
// Configuration comes from three layers, later ones winning:
//
//  1. built-in defaults
//  2. an optional YAML or JSON file
//  3. CLIENTMANAGER_* environment variables, with '.' in keys replaced by '_'
//     (CLIENTMANAGER_NATS_URL, CLIENTMANAGER_LOG_LEVEL, ...)
//
// A minimal file:
//
//	platform:
//	  org: c360
//	  id: edge-01
//	nats:
//	  url: nats://localhost:4222
//	log:
//	  level: debug
//	components:
//	  client-manager:
//	    type: processor
//	    name: client-manager
//	    config:
//	      queue_size: 256
//
// Each component's "config" subtree is kept as raw JSON and decoded by the
// component's own factory. Keys are case-insensitive, so component configs
// use snake_case keys and carry case-sensitive names in values. Entries
// without "enabled" are enabled.
package config
