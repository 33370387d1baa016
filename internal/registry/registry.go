package registry

import (
	"sort"
	"strings"

	"github.com/park285/mchess-live/internal/protocol"
	"go.uber.org/zap"
)

// Human is the selectable player name for the operator.
const Human = "human"

// MaxOrdinals mirrors the analysis slot limit.
const MaxOrdinals = 2

// Engine is the liveness record for one agent. Ordinal is -1 for agents that never
// received one.
type Engine struct {
	Actor    string `json:"actor"`
	Name     string `json:"name,omitempty"`
	IsEngine bool   `json:"is_engine"`
	Ordinal  int    `json:"ordinal"`
	Online   bool   `json:"online"`
	Busy     bool   `json:"busy"`
	Message  string `json:"message,omitempty"`
}

// Players lists the selectable player names for each side.
type Players struct {
	White []string `json:"white"`
	Black []string `json:"black"`
}

// Registry tracks agent liveness and the engine catalog. Not safe for concurrent use.
type Registry struct {
	records  map[string]*Engine
	order    []string
	ordinals int
	catalog  map[string]protocol.EngineMeta
	players  Players

	logger *zap.Logger
}

func New(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{
		records: make(map[string]*Engine),
		catalog: make(map[string]protocol.EngineMeta),
		logger:  logger,
	}
	r.players = r.computePlayers()
	return r
}

// Observe records an agent_state report. The first two engine-class actors get ordinals 0
// and 1 for the lifetime of the process.
func (r *Registry) Observe(actor, state string, isEngine bool, name string) Engine {
	actor = strings.TrimSpace(actor)
	rec, ok := r.records[actor]
	if !ok {
		rec = &Engine{Actor: actor, Ordinal: -1}
		r.records[actor] = rec
		r.order = append(r.order, actor)
	}
	if isEngine && !rec.IsEngine {
		rec.IsEngine = true
		if rec.Ordinal < 0 && r.ordinals < MaxOrdinals {
			rec.Ordinal = r.ordinals
			r.ordinals++
			r.logger.Info("registry_engine_ordinal", zap.String("actor", actor), zap.Int("ordinal", rec.Ordinal))
		}
	}
	if name != "" {
		rec.Name = name
	}

	switch state {
	case protocol.StateOnline:
		rec.Online = true
	case protocol.StateOffline:
		rec.Online = false
		rec.Busy = false
	case protocol.StateBusy:
		rec.Online = true
		rec.Busy = true
	case protocol.StateIdle:
		rec.Online = true
		rec.Busy = false
	default:
		r.logger.Warn("registry_unknown_state", zap.String("actor", actor), zap.String("state", state))
	}
	return *rec
}

// SetMessage keeps the last status message an agent reported.
func (r *Registry) SetMessage(actor, msg string) {
	if rec, ok := r.records[actor]; ok {
		rec.Message = msg
	}
}

// Get returns the record for actor.
func (r *Registry) Get(actor string) (Engine, bool) {
	rec, ok := r.records[actor]
	if !ok {
		return Engine{}, false
	}
	return *rec, true
}

// Records returns all records in first-seen order.
func (r *Registry) Records() []Engine {
	out := make([]Engine, 0, len(r.order))
	for _, a := range r.order {
		out = append(out, *r.records[a])
	}
	return out
}

// ListEngines replaces the catalog wholesale and recomputes the player lists.
func (r *Registry) ListEngines(catalog map[string]protocol.EngineMeta) {
	r.catalog = make(map[string]protocol.EngineMeta, len(catalog))
	for k, v := range catalog {
		r.catalog[k] = v
	}
	r.players = r.computePlayers()
	r.logger.Info("registry_catalog_replaced", zap.Int("engines", len(r.catalog)))
}

// Catalog returns the engine identities in sorted order.
func (r *Registry) Catalog() []string {
	ids := make([]string, 0, len(r.catalog))
	for id := range r.catalog {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Players returns the selectable names for both sides.
func (r *Registry) Players() Players {
	return Players{
		White: append([]string(nil), r.players.White...),
		Black: append([]string(nil), r.players.Black...),
	}
}

// IsSelectable reports whether name may be assigned to a side.
func (r *Registry) IsSelectable(name string) bool {
	if name == Human {
		return true
	}
	_, ok := r.catalog[name]
	return ok
}

// InvalidateLiveness marks every agent offline and idle. Ordinals survive.
func (r *Registry) InvalidateLiveness() {
	for _, rec := range r.records {
		rec.Online = false
		rec.Busy = false
	}
	r.logger.Debug("registry_liveness_invalidated", zap.Int("agents", len(r.records)))
}

func (r *Registry) computePlayers() Players {
	names := append([]string{Human}, r.Catalog()...)
	return Players{
		White: names,
		Black: append([]string(nil), names...),
	}
}
