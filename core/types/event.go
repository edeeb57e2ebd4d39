package types

// Event is a structured record of a state change, rendered as a type tag plus
// flat string attributes so transports (RPC, logs, indexers) stay agnostic of
// the emitting module.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}
