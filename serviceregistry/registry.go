// Package serviceregistry keeps the catalog of processing services, the
// content types each one produces, and the workers that have announced
// themselves for a service type.
package serviceregistry

import (
	"fmt"
	"slices"
	"strings"

	"github.com/c360/clientmanager/errors"
)

// DefaultCatalog is the catalog the client manager starts with when no
// services are configured.
const DefaultCatalog = "ObjectDetection:ObjectDetection,Person,Car;ColorDetection:ObjectColor,ColorDetection"

// Worker is a processing-service instance announcing itself.
type Worker struct {
	ServiceType string         `json:"service_type"`
	StreamKey   string         `json:"stream_key"`
	Attributes  map[string]any `json:"attributes,omitempty"`
}

// Service is a catalog entry.
type Service struct {
	Type         string            `json:"service_type"`
	ContentTypes []string          `json:"content_types"`
	Workers      map[string]Worker `json:"workers"`
}

// Registry maps service types to the content types they produce and to
// their announced workers. Iteration follows declaration order, which makes
// Chain deterministic.
//
// Registry is not goroutine safe.
type Registry struct {
	order    []string
	services map[string]*Service
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{services: make(map[string]*Service)}
}

// ParseCatalog builds a registry from the "Service:ct1,ct2;Other:ct3" format.
func ParseCatalog(catalog string) (*Registry, error) {
	r := New()
	for _, entry := range strings.Split(catalog, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, types, ok := strings.Cut(entry, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, errors.WrapInvalid(
				fmt.Errorf("%w: catalog entry %q", errors.ErrInvalidConfig, entry),
				"Registry", "ParseCatalog", "parse entry")
		}
		var contentTypes []string
		for _, ct := range strings.Split(types, ",") {
			if ct = strings.TrimSpace(ct); ct != "" {
				contentTypes = append(contentTypes, ct)
			}
		}
		r.Declare(name, contentTypes...)
	}
	return r, nil
}

// Declare adds a service type or extends its content types.
func (r *Registry) Declare(serviceType string, contentTypes ...string) {
	svc := r.entry(serviceType)
	for _, ct := range contentTypes {
		if !slices.Contains(svc.ContentTypes, ct) {
			svc.ContentTypes = append(svc.ContentTypes, ct)
		}
	}
}

func (r *Registry) entry(serviceType string) *Service {
	svc, ok := r.services[serviceType]
	if !ok {
		svc = &Service{Type: serviceType, Workers: make(map[string]Worker)}
		r.services[serviceType] = svc
		r.order = append(r.order, serviceType)
	}
	return svc
}

// Announce records a worker under its service type, replacing any worker
// already registered with the same stream key. Unknown service types are
// added with no content types. It reports whether a worker was replaced.
func (r *Registry) Announce(w Worker) bool {
	svc := r.entry(w.ServiceType)
	_, replaced := svc.Workers[w.StreamKey]
	svc.Workers[w.StreamKey] = w
	return replaced
}

// Chain returns, for each requested content type in order, the first
// declared service type that produces it. Content types no service produces
// are skipped.
func (r *Registry) Chain(contentTypes []string) []string {
	chain := make([]string, 0, len(contentTypes))
	for _, ct := range contentTypes {
		for _, name := range r.order {
			if slices.Contains(r.services[name].ContentTypes, ct) {
				chain = append(chain, name)
				break
			}
		}
	}
	return chain
}

// Workers returns the workers announced for serviceType, sorted by stream key.
func (r *Registry) Workers(serviceType string) []Worker {
	svc, ok := r.services[serviceType]
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(svc.Workers))
	for k := range svc.Workers {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	workers := make([]Worker, 0, len(keys))
	for _, k := range keys {
		workers = append(workers, svc.Workers[k])
	}
	return workers
}

// ServiceTypes returns the declared service types in declaration order.
func (r *Registry) ServiceTypes() []string {
	return slices.Clone(r.order)
}

// Snapshot returns a deep copy of every entry in declaration order.
func (r *Registry) Snapshot() []Service {
	out := make([]Service, 0, len(r.order))
	for _, name := range r.order {
		svc := r.services[name]
		workers := make(map[string]Worker, len(svc.Workers))
		for k, w := range svc.Workers {
			workers[k] = w
		}
		out = append(out, Service{
			Type:         svc.Type,
			ContentTypes: slices.Clone(svc.ContentTypes),
			Workers:      workers,
		})
	}
	return out
}
