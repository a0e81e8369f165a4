// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import "time"

// LabRecord represents a lab environment as stored in the registry.
// The JSON field names are the on-disk registry format and must stay stable:
// the registry document is a map keyed by lab name, so Name itself is not
// serialized inside the record.
type LabRecord struct {
	Name      string    `json:"-"`
	HTTPPort  int       `json:"port"`
	APIPort   int       `json:"api_port"`
	Directory string    `json:"dir"`
	Branch    string    `json:"branch"`
	CreatedAt time.Time `json:"created"`
}

// LabRegistry defines the secondary port for lab registry persistence.
// The registry is the single source of truth for lab existence and port
// allocation. A record present in the registry is assumed to have all its
// dependent resources either present or being reconciled.
type LabRegistry interface {
	// Load reads the full registry document. A missing document yields an
	// empty map, not an error. Malformed data is a surfaced error.
	Load() (map[string]*LabRecord, error)

	// Save atomically rewrites the full registry document.
	Save(records map[string]*LabRecord) error

	// Mutate runs fn on the current records under an exclusive lock and
	// persists the result. Returning an error from fn aborts without saving.
	Mutate(fn func(records map[string]*LabRecord) error) error
}
