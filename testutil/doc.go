// Package testutil provides test doubles and fixtures for the client manager.
//
// MockNATSClient is an in-memory transport with the Subscribe, Publish and
// PublishToStream methods the processor needs; published messages are kept
// per subject for assertions.
//
// RecordingEmitter captures engine commands in emission order:
//
//	rec := testutil.NewRecordingEmitter()
//	eng := engine.New(query.NewTextParser(), registry, rec, nil, nil,
//		engine.WithIDGenerator(testutil.SequentialIDs()))
//	eng.Handle(ctx, testutil.Publisher("p1", "300x300", "30"))
//	rec.Actions() // []string{...}
//
// The fixtures build lifecycle events both as engine values and as wire JSON.
package testutil
