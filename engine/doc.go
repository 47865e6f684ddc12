// Package engine is the coordination core of the client manager.
//
// # Overview
//
// The engine consumes client lifecycle events and keeps four stores in step:
//
//   - PublisherDirectory: joined publishers by id (first writer wins)
//   - QueryStore: registered queries by query id
//   - BufferIndex: buffer-stream key to the ids of the queries reading it
//   - serviceregistry.Registry: service types, content types and workers
//
// It emits commands to the downstream collaborators through an Emitter:
//
//	QueryReceived ──► parse ──► identity ──► publisher gate ──► buffer key ──► chain
//	                                                                │
//	       ┌────────────────────────────────────────────────────────┘
//	       ▼
//	 first query on key?  ── yes ──► startPreprocessing, addBufferStreamKey
//	       │
//	       ▼
//	 updateControlFlow ──► addQueryMatching ──► addQueryWindow ──► QueryCreated
//
// Deletion mirrors the reference counting: the last query leaving a buffer
// stream emits stopPreprocessing and delBufferStreamKey, then QueryRemoved.
//
// # Identity
//
// Query ids and buffer-stream keys are hex MD5 digests, compatible with the
// ids other pipeline services already store:
//
//	QueryID("sub_1", "my incredible query")                             // 6962607866718b3cbd13556162c95dd9
//	BufferStreamKey([]string{"abc", "dfg"}, "pub_id1", "300x900", "100") // 7a8cde7a97f51f561cda88d38df63caa
//
// # Concurrency
//
// Engine has no locks. The owning processor runs it from a single goroutine;
// see processor/clientmanager.
package engine
