package events

import (
	"encoding/json"
	"log"

	"github.com/rgoyal/huddle/internal/registry"
)

// Router resolves recipient user ids to live connections and delivers an
// event to each. Delivery is best-effort and at-most-once: no retry, no
// queueing for offline users, and one slow or dead connection never blocks
// the rest.
type Router struct {
	registry *registry.Registry
}

func NewRouter(r *registry.Registry) *Router {
	return &Router{registry: r}
}

// Emit delivers {kind, payload} to every recipient with a live connection.
// Emitting to a recipient set with zero live members is a silent no-op.
func (rt *Router) Emit(recipients []int, kind string, payload any) {
	sessions := rt.registry.LookupMany(recipients)
	if len(sessions) == 0 {
		return
	}

	data, err := json.Marshal(Envelope{Kind: kind, Payload: payload})
	if err != nil {
		log.Printf("Error marshaling %s event: %v", kind, err)
		return
	}

	for _, s := range sessions {
		// Deliver is non-blocking; a session that can't keep up drops
		// the event rather than stalling other recipients.
		if !s.Deliver(data) {
			log.Printf("Dropped %s event: session not accepting", kind)
		}
	}
}
