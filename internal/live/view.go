package live

import (
	"time"

	"github.com/park285/mchess-live/internal/analysis"
	"github.com/park285/mchess-live/internal/movegate"
	"github.com/park285/mchess-live/internal/position"
	"github.com/park285/mchess-live/internal/protocol"
	"github.com/park285/mchess-live/internal/registry"
	"github.com/park285/mchess-live/internal/stats"
)

// View is the read model handed to renderers. It shares nothing with the live state.
type View struct {
	Connection ConnectionView     `json:"connection"`
	Position   position.Snapshot  `json:"position"`
	Analysis   AnalysisView       `json:"analysis"`
	Moves      MovesView          `json:"moves"`
	Engines    EnginesView        `json:"engines"`
	Stats      []stats.Sample     `json:"stats"`
	LastEcho   *protocol.MoveEcho `json:"last_echo,omitempty"`
	Generated  time.Time          `json:"generated"`
}

type ConnectionView struct {
	Status  Status `json:"status"`
	Session string `json:"session,omitempty"`
}

// AnalysisView exposes every reporting actor and, separately, the visible slots.
type AnalysisView struct {
	Actors []string        `json:"actors"`
	Slots  []analysis.Slot `json:"slots"`
}

type MovesView struct {
	State movegate.State `json:"state"`
	Legal []string       `json:"legal"`
}

type EnginesView struct {
	Records []registry.Engine `json:"records"`
	Catalog []string          `json:"catalog"`
	Players registry.Players  `json:"players"`
}

// View builds a fresh read model.
func (s *State) View() View {
	v := View{
		Connection: ConnectionView{Status: s.status, Session: s.session},
		Position:   s.position.Snapshot(),
		Analysis:   AnalysisView{Actors: s.analysis.Actors(), Slots: s.analysis.Slots()},
		Moves:      MovesView{State: s.gate.State(), Legal: s.gate.Legal()},
		Engines: EnginesView{
			Records: s.registry.Records(),
			Catalog: s.registry.Catalog(),
			Players: s.registry.Players(),
		},
		Stats:     s.stats.Samples(),
		Generated: time.Now().UTC(),
	}
	if s.lastEcho != nil {
		echo := *s.lastEcho
		v.LastEcho = &echo
	}
	return v
}
