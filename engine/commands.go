package engine

import (
	"context"

	"github.com/c360/clientmanager/query"
)

// Target names the downstream collaborator a command is addressed to.
type Target string

// Command targets.
const (
	TargetPreprocessor      Target = "preprocessor"
	TargetEventDispatcher   Target = "event_dispatcher"
	TargetAdaptationPlanner Target = "adaptation_planner"
	TargetMatcher           Target = "matcher"
	TargetWindowManager     Target = "window_manager"
	TargetNotifications     Target = "notifications"
)

// Targets lists every command target.
func Targets() []Target {
	return []Target{
		TargetPreprocessor,
		TargetEventDispatcher,
		TargetAdaptationPlanner,
		TargetMatcher,
		TargetWindowManager,
		TargetNotifications,
	}
}

// Wire action names.
const (
	ActionStartPreprocessing = "startPreprocessing"
	ActionStopPreprocessing  = "stopPreprocessing"
	ActionAddBufferStreamKey = "addBufferStreamKey"
	ActionDelBufferStreamKey = "delBufferStreamKey"
	ActionUpdateControlFlow  = "updateControlFlow"
	ActionAddQueryMatching   = "addQueryMatching"
	ActionAddQueryWindow     = "addQueryWindow"
	ActionQueryCreated       = "QueryCreated"
	ActionQueryRemoved       = "QueryRemoved"
)

// Command is an outbound instruction for a downstream collaborator. Every
// command carries a freshly generated correlation id.
type Command interface {
	Target() Target
	Action() string
	CorrelationID() string
}

// Emitter delivers commands. Emission is fire and forget: delivery failures
// belong to the emitter and are never reported back to the engine.
type Emitter interface {
	Emit(ctx context.Context, cmd Command)
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(ctx context.Context, cmd Command)

// Emit calls f(ctx, cmd).
func (f EmitterFunc) Emit(ctx context.Context, cmd Command) {
	f(ctx, cmd)
}

// StartPreprocessing asks the preprocessor to start feeding a buffer stream.
type StartPreprocessing struct {
	ID              string   `json:"id"`
	PublisherID     string   `json:"publisher_id"`
	Source          string   `json:"source"`
	Resolution      string   `json:"resolution"`
	FPS             string   `json:"fps"`
	QueryIDs        []string `json:"query_ids"`
	BufferStreamKey string   `json:"buffer_stream_key"`
}

// StopPreprocessing asks the preprocessor to stop a buffer stream.
type StopPreprocessing struct {
	ID              string `json:"id"`
	BufferStreamKey string `json:"buffer_stream_key"`
}

// AddBufferStreamKey registers a buffer stream with the event dispatcher.
type AddBufferStreamKey struct {
	ID              string `json:"id"`
	PublisherID     string `json:"publisher_id"`
	BufferStreamKey string `json:"buffer_stream_key"`
}

// DelBufferStreamKey deregisters a buffer stream from the event dispatcher.
type DelBufferStreamKey struct {
	ID              string `json:"id"`
	PublisherID     string `json:"publisher_id"`
	BufferStreamKey string `json:"buffer_stream_key"`
}

// UpdateControlFlow hands a query's service chain and QoS policy to the
// adaptation planner.
type UpdateControlFlow struct {
	ID           string         `json:"id"`
	QueryID      string         `json:"query_id"`
	PublisherID  string         `json:"publisher_id"`
	ServiceChain []string       `json:"service_chain"`
	QoSPolicies  map[string]any `json:"qos_policies"`
}

// AddQueryMatching registers a query's pattern clauses with the matcher.
type AddQueryMatching struct {
	ID            string `json:"id"`
	QueryID       string `json:"query_id"`
	Match         string `json:"match"`
	OptionalMatch string `json:"optional_match"`
	Where         string `json:"where"`
	Return        string `json:"ret"`
}

// AddQueryWindow registers a query's window with the window manager.
type AddQueryWindow struct {
	ID      string       `json:"id"`
	QueryID string       `json:"query_id"`
	Window  query.Window `json:"window"`
}

// QueryCreated is the durable record of a registration. The query fields
// are flattened into the payload.
type QueryCreated struct {
	ID string `json:"id"`
	Query
}

// QueryRemoved is the durable record of a removal.
type QueryRemoved struct {
	ID string `json:"id"`
	Query
	Deleted bool `json:"deleted"`
}

func (StartPreprocessing) Target() Target { return TargetPreprocessor }
func (StopPreprocessing) Target() Target  { return TargetPreprocessor }
func (AddBufferStreamKey) Target() Target { return TargetEventDispatcher }
func (DelBufferStreamKey) Target() Target { return TargetEventDispatcher }
func (UpdateControlFlow) Target() Target  { return TargetAdaptationPlanner }
func (AddQueryMatching) Target() Target   { return TargetMatcher }
func (AddQueryWindow) Target() Target     { return TargetWindowManager }
func (QueryCreated) Target() Target       { return TargetNotifications }
func (QueryRemoved) Target() Target       { return TargetNotifications }

func (StartPreprocessing) Action() string { return ActionStartPreprocessing }
func (StopPreprocessing) Action() string  { return ActionStopPreprocessing }
func (AddBufferStreamKey) Action() string { return ActionAddBufferStreamKey }
func (DelBufferStreamKey) Action() string { return ActionDelBufferStreamKey }
func (UpdateControlFlow) Action() string  { return ActionUpdateControlFlow }
func (AddQueryMatching) Action() string   { return ActionAddQueryMatching }
func (AddQueryWindow) Action() string     { return ActionAddQueryWindow }
func (QueryCreated) Action() string       { return ActionQueryCreated }
func (QueryRemoved) Action() string       { return ActionQueryRemoved }

func (c StartPreprocessing) CorrelationID() string { return c.ID }
func (c StopPreprocessing) CorrelationID() string  { return c.ID }
func (c AddBufferStreamKey) CorrelationID() string { return c.ID }
func (c DelBufferStreamKey) CorrelationID() string { return c.ID }
func (c UpdateControlFlow) CorrelationID() string  { return c.ID }
func (c AddQueryMatching) CorrelationID() string   { return c.ID }
func (c AddQueryWindow) CorrelationID() string     { return c.ID }
func (c QueryCreated) CorrelationID() string       { return c.ID }
func (c QueryRemoved) CorrelationID() string       { return c.ID }
