// Package message holds the helpers shared by every inbound and outbound
// event envelope.
//
// Every event on the wire is a flat JSON object with a correlation "id" and,
// on shared command subjects, an "action" or "event_type" tag naming the
// event. Inbound envelopes are checked with ValidateEnvelope before decoding;
// outbound notifications are stamped with a fresh id from NewEventID:
//
//	id := message.NewEventID("ClientManager") // "ClientManager:<uuid>"
//	payload, err := message.Stamp(payload, id)
package message
