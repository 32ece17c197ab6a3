// Package ecs bridges canopy's responder dispatch sequences and hover
// events into a Donburi ECS world as typed events.
package ecs

import (
	"github.com/phanxgames/canopy"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// PointerLocalizer is the router's localizer payload for a donburi-backed
// app: the point already resolved into the hit node's local space, the
// generalization of willow's PointerContext.LocalX/LocalY (node.go) to an
// ECS-keyed Dispatch rather than a *Node-keyed callback.
type PointerLocalizer struct {
	LocalX, LocalY float64
}

// DispatchEvent is one capture/target/bubble step keyed by a Donburi
// [donburi.Entity] — donburi's own generational handle stands in directly
// for canopy's K type parameter, since both are (slot, generation) pairs.
type DispatchEvent = canopy.Dispatch[donburi.Entity, PointerLocalizer, any]

// HoverTransition is one enter/leave transition keyed by donburi.Entity.
type HoverTransition = canopy.HoverEvent[donburi.Entity]

// DispatchEventType is the Donburi event type for canopy dispatch steps.
// Subscribe with DispatchEventType.Subscribe to receive them in ECS systems.
var DispatchEventType = events.NewEventType[DispatchEvent]()

// HoverEventType is the Donburi event type for canopy hover transitions.
var HoverEventType = events.NewEventType[HoverTransition]()

// Publisher publishes canopy router/hover output into a Donburi world,
// mirroring the teacher's donburiStore/NewDonburiStore/EmitEvent shape
// (ecs/donburi.go) generalized from a single InteractionEvent type to the
// two event families canopy produces.
type Publisher struct {
	world donburi.World
}

// NewPublisher returns a Publisher bound to world.
func NewPublisher(world donburi.World) *Publisher {
	return &Publisher{world: world}
}

// PublishDispatch publishes every step of a dispatch sequence in order.
func (p *Publisher) PublishDispatch(seq []DispatchEvent) {
	for _, d := range seq {
		DispatchEventType.Publish(p.world, d)
	}
}

// PublishHover publishes every hover transition in order.
func (p *Publisher) PublishHover(transitions []HoverTransition) {
	for _, e := range transitions {
		HoverEventType.Publish(p.world, e)
	}
}
