package agent

import (
	"github.com/concierge/concierge/internal/models"
)

// routingTable is the static mapping from a primary topic to the ordered
// provider set consulted for it. Order matters: it breaks confidence ties
// during synthesis.
var routingTable = map[models.Topic][]string{
	models.TopicBusinessSetup: {"business", "licensing", "tax"},
	models.TopicLicensing:     {"licensing", "business"},
	models.TopicTax:           {"tax", "business"},
	models.TopicImmigration:   {"immigration", "legal"},
	models.TopicLegal:         {"legal", "business"},
	models.TopicProperty:      {"property", "legal"},
}

// StaticRegistry routes intents to providers through a fixed table
type StaticRegistry struct {
	providers map[string]Provider
	order     map[string]int
	ordered   []string
	defaults  []string
}

// NewStaticRegistry creates a registry over the given providers. The
// default set is consulted when classification found no domain; it is
// chosen for coverage, not precision.
func NewStaticRegistry(providers []Provider, defaults []string) *StaticRegistry {
	r := &StaticRegistry{
		providers: make(map[string]Provider, len(providers)),
		order:     make(map[string]int, len(providers)),
		ordered:   make([]string, 0, len(providers)),
		defaults:  defaults,
	}
	for i, p := range providers {
		r.providers[p.ID()] = p
		r.order[p.ID()] = i
		r.ordered = append(r.ordered, p.ID())
	}
	return r
}

// SelectProviders returns the ordered provider IDs for an intent. Secondary
// topics append their lead provider when it is not already selected, and
// registered providers serving the primary topic join the round even when
// the table does not name them. A query with no primary topic falls back
// to the default set rather than failing.
func (r *StaticRegistry) SelectProviders(intent models.Intent) []string {
	if !intent.HasPrimary() {
		return r.registered(r.defaults)
	}

	ids := append([]string(nil), routingTable[intent.Primary]...)
	for _, topic := range intent.Secondary {
		set := routingTable[topic]
		if len(set) == 0 {
			continue
		}
		if !contains(ids, set[0]) {
			ids = append(ids, set[0])
		}
	}

	// Extra specialists registered for the primary topic, such as the
	// graph-backed provider, are consulted alongside the table set.
	for _, id := range r.ordered {
		if r.providers[id].Topic() != intent.Primary {
			continue
		}
		if !contains(ids, id) {
			ids = append(ids, id)
		}
	}

	if len(ids) == 0 {
		ids = r.defaults
	}
	return r.registered(ids)
}

// Provider looks up a registered provider by ID
func (r *StaticRegistry) Provider(id string) (Provider, bool) {
	p, ok := r.providers[id]
	return p, ok
}

// Order returns a provider's registration index, used for tie-breaking
func (r *StaticRegistry) Order(id string) int {
	if n, ok := r.order[id]; ok {
		return n
	}
	return int(^uint(0) >> 1)
}

// registered filters IDs down to providers that actually exist
func (r *StaticRegistry) registered(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := r.providers[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
