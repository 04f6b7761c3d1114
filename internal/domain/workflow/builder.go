package workflow

import (
	"context"
	"fmt"
	"sort"
)

// GuardFunc decides whether a guarded route may be taken
type GuardFunc func(ctx context.Context) bool

// StateMachineBuilder collects the lifecycle routes and stamps out machines
type StateMachineBuilder interface {
	// Configure returns the route set leaving the given status.
	// Terminal statuses cannot be configured.
	Configure(state State) StateConfiguration

	// Build creates a machine positioned at the given status. A machine
	// built on an unknown status refuses every trigger.
	Build(initialState State) StateMachine
}

// StateConfiguration adds routes leaving one status
type StateConfiguration interface {
	// Permit routes the trigger to the target status unconditionally
	Permit(trigger Trigger, toState State) StateConfiguration

	// PermitIf routes the trigger to the target status when guard passes.
	// Routes for a trigger are tried in registration order.
	PermitIf(trigger Trigger, toState State, guard GuardFunc) StateConfiguration
}

type route struct {
	to    State
	guard GuardFunc
}

// routeTable maps each trigger to its candidate routes
type routeTable map[Trigger][]route

func (rt routeTable) clone() routeTable {
	out := make(routeTable, len(rt))
	for trigger, routes := range rt {
		out[trigger] = append([]route(nil), routes...)
	}
	return out
}

type builder struct {
	routes map[State]routeTable
}

// NewBuilder creates an empty lifecycle builder
func NewBuilder() StateMachineBuilder {
	return &builder{routes: make(map[State]routeTable)}
}

func (b *builder) Configure(state State) StateConfiguration {
	if !state.IsValid() {
		panic(fmt.Sprintf("invalid state: %s", state))
	}
	if state.IsTerminal() {
		panic(fmt.Sprintf("terminal state %s cannot have outgoing routes", state))
	}

	table, ok := b.routes[state]
	if !ok {
		table = make(routeTable)
		b.routes[state] = table
	}
	return table
}

func (b *builder) Build(initialState State) StateMachine {
	// Later Configure calls must not leak into built machines
	routes := make(map[State]routeTable, len(b.routes))
	for state, table := range b.routes {
		routes[state] = table.clone()
	}

	return &machine{current: initialState, routes: routes}
}

func (rt routeTable) Permit(trigger Trigger, toState State) StateConfiguration {
	return rt.PermitIf(trigger, toState, nil)
}

func (rt routeTable) PermitIf(trigger Trigger, toState State, guard GuardFunc) StateConfiguration {
	if !toState.IsValid() {
		panic(fmt.Sprintf("invalid target state: %s", toState))
	}
	rt[trigger] = append(rt[trigger], route{to: toState, guard: guard})
	return rt
}

type machine struct {
	current State
	routes  map[State]routeTable
}

func (m *machine) State() State {
	return m.current
}

func (m *machine) Allows(trigger Trigger) bool {
	return len(m.routes[m.current][trigger]) > 0
}

func (m *machine) Fire(ctx context.Context, trigger Trigger) (Transition, error) {
	from := m.current
	if !from.IsValid() {
		return Transition{}, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, from)
	}
	if from.IsTerminal() {
		return Transition{}, fmt.Errorf("%w: cannot fire %s from %s", ErrTerminalState, trigger, from)
	}

	candidates := m.routes[from][trigger]
	if len(candidates) == 0 {
		return Transition{}, fmt.Errorf("%w: cannot fire %s from %s", ErrInvalidTransition, trigger, from)
	}

	for _, r := range candidates {
		if r.guard != nil && !r.guard(ctx) {
			continue
		}
		m.current = r.to
		return Transition{From: from, To: r.to, Trigger: trigger}, nil
	}

	return Transition{}, fmt.Errorf("%w: %s from %s", ErrGuardFailed, trigger, from)
}

func (m *machine) Available() []Trigger {
	table := m.routes[m.current]
	triggers := make([]Trigger, 0, len(table))
	for trigger := range table {
		triggers = append(triggers, trigger)
	}
	sort.Slice(triggers, func(i, j int) bool { return triggers[i] < triggers[j] })
	return triggers
}
