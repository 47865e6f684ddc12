package clientmanager

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/c360/clientmanager/engine"
	"github.com/c360/clientmanager/errors"
	"github.com/c360/clientmanager/message"
	"github.com/c360/clientmanager/serviceregistry"
)

// eventKinds maps wire event tags, including the short action aliases, to
// engine event kinds.
var eventKinds = map[string]string{
	PortPublisherCreated:       engine.KindPublisherJoined,
	"pubJoin":                  engine.KindPublisherJoined,
	PortPublisherRemoved:       engine.KindPublisherLeft,
	"pubLeave":                 engine.KindPublisherLeft,
	PortQueryReceived:          engine.KindQueryReceived,
	"addQuery":                 engine.KindQueryReceived,
	PortQueryDeletionRequested: engine.KindQueryDeletionRequested,
	"delQuery":                 engine.KindQueryDeletionRequested,
	PortServiceWorkerAnnounced: engine.KindServiceWorkerAnnounced,
	"addWorker":                engine.KindServiceWorkerAnnounced,
}

// KnownTag reports whether tag names an event the engine handles.
func KnownTag(tag string) bool {
	_, ok := eventKinds[tag]
	return ok
}

// eventTag picks the tag for a message arriving on port. Ports named after
// an event fix the tag; anything else reads it from the message.
func eventTag(port string, data []byte) string {
	if KnownTag(port) {
		return port
	}
	return message.EventType(data)
}

// Decode turns a validated wire message into an engine event. Unrecognised
// tags decode to engine.Unknown; missing required fields are invalid.
func Decode(tag string, data []byte) (engine.Event, error) {
	id := message.ID(data)
	doc := gjson.ParseBytes(data)

	switch eventKinds[tag] {
	case engine.KindPublisherJoined:
		// resolution and fps feed every buffer stream key of this
		// publisher, and the first join is the one kept.
		var fields [4]string
		for i, path := range []string{"publisher_id", "source", "meta.resolution", "meta.fps"} {
			v, err := required(doc, path, tag)
			if err != nil {
				return nil, err
			}
			fields[i] = v
		}
		return engine.PublisherJoined{
			ID: id,
			Publisher: engine.Publisher{
				ID:     fields[0],
				Source: fields[1],
				Meta:   decodeMeta(doc.Get("meta")),
			},
		}, nil

	case engine.KindPublisherLeft:
		publisherID, err := required(doc, "publisher_id", tag)
		if err != nil {
			return nil, err
		}
		return engine.PublisherLeft{ID: id, PublisherID: publisherID}, nil

	case engine.KindQueryReceived:
		subscriberID, err := required(doc, "subscriber_id", tag)
		if err != nil {
			return nil, err
		}
		text, err := required(doc, "query", tag)
		if err != nil {
			return nil, err
		}
		return engine.QueryReceived{ID: id, SubscriberID: subscriberID, Text: text}, nil

	case engine.KindQueryDeletionRequested:
		subscriberID, err := required(doc, "subscriber_id", tag)
		if err != nil {
			return nil, err
		}
		name, err := required(doc, "query_name", tag)
		if err != nil {
			return nil, err
		}
		return engine.QueryDeletionRequested{ID: id, SubscriberID: subscriberID, QueryName: name}, nil

	case engine.KindServiceWorkerAnnounced:
		worker, err := decodeWorker(doc.Get("worker"), tag)
		if err != nil {
			return nil, err
		}
		return engine.ServiceWorkerAnnounced{ID: id, Worker: worker}, nil
	}

	return engine.Unknown{ID: id, Type: tag}, nil
}

func required(doc gjson.Result, path, tag string) (string, error) {
	v := doc.Get(path)
	if !v.Exists() || v.String() == "" {
		return "", errors.WrapInvalid(
			fmt.Errorf("%w: %s event missing %q", errors.ErrInvalidData, tag, path),
			"ClientManager", "Decode", "read required field")
	}
	return v.String(), nil
}

// decodeMeta reads resolution and fps. FPS may arrive as a number or a
// string; it is kept in its textual form since it feeds the buffer-stream
// key. Other fields are kept in Extra.
func decodeMeta(meta gjson.Result) engine.PublisherMeta {
	out := engine.PublisherMeta{
		Resolution: meta.Get("resolution").String(),
		FPS:        meta.Get("fps").String(),
	}
	if !meta.IsObject() {
		return out
	}

	meta.ForEach(func(key, value gjson.Result) bool {
		switch key.String() {
		case "resolution", "fps":
		default:
			if out.Extra == nil {
				out.Extra = make(map[string]any)
			}
			out.Extra[key.String()] = value.Value()
		}
		return true
	})
	return out
}

func decodeWorker(worker gjson.Result, tag string) (serviceregistry.Worker, error) {
	if !worker.IsObject() {
		return serviceregistry.Worker{}, errors.WrapInvalid(
			fmt.Errorf("%w: %s event missing \"worker\"", errors.ErrInvalidData, tag),
			"ClientManager", "Decode", "read worker")
	}

	serviceType, err := required(worker, "service_type", tag)
	if err != nil {
		return serviceregistry.Worker{}, err
	}
	streamKey, err := required(worker, "stream_key", tag)
	if err != nil {
		return serviceregistry.Worker{}, err
	}

	w := serviceregistry.Worker{ServiceType: serviceType, StreamKey: streamKey}
	worker.ForEach(func(key, value gjson.Result) bool {
		switch key.String() {
		case "service_type", "stream_key":
		default:
			if w.Attributes == nil {
				w.Attributes = make(map[string]any)
			}
			w.Attributes[key.String()] = value.Value()
		}
		return true
	})
	return w, nil
}
