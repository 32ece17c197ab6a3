// Package ecs bridges canopy's responder dispatch and hover output into a
// Donburi ECS world as typed events.
//
// Usage:
//
//	pub := ecs.NewPublisher(world)
//	pub.PublishDispatch(dispatchSeq)
//	pub.PublishHover(hoverEvents)
//
// Subscribe with ecs.DispatchEventType.Subscribe(world, handler) in an ECS
// system to receive them.
package ecs
