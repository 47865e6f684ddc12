// Package clientmanager provides the processor that runs the coordination
// engine on NATS.
//
// Inbound lifecycle events arrive on one subject per event kind
// (clientmanager.events.PublisherCreated and so on) or on the shared
// clientmanager.commands subject, where the "action" or "event_type" field
// selects the handler. Short action aliases are accepted there:
//
//	pubJoin    PublisherCreated
//	pubLeave   PublisherRemoved
//	addQuery   QueryReceived
//	delQuery   QueryDeletionRequested
//	addWorker  ServiceWorkerAnnounced
//
// Every message must be a JSON object with a non-empty "id". Messages that
// fail validation or decoding are dropped, logged at debug and counted.
//
// Decoded events are queued to a single goroutine that owns the engine, so
// events are applied strictly one at a time in arrival order. Commands are
// published as JSON with "id" and "action" set, on the output port named
// after their target. The notifications port is a JetStream stream; its
// wildcard subject becomes one subject per action, for example
// clientmanager.notifications.QueryCreated.
//
// Configuration:
//
//	{
//	  "catalog": "ObjectDetection:ObjectDetection,Person,Car;ColorDetection:ObjectColor,ColorDetection",
//	  "services": [{"type": "SpeedEstimation", "content_types": ["Speed"]}],
//	  "queue_size": 256,
//	  "ports": {
//	    "outputs": [{"name": "matcher", "subject": "cep.matcher.cmd"}]
//	  }
//	}
//
// Port entries override the defaults by name; unnamed defaults stay bound.
package clientmanager
