package tempo

import "github.com/benjaminschreck/go-tempo/pkg/dom"

// EventType identifies a lifecycle notification.
type EventType int

const (
	// RenderStarting is emitted once before a render, append or prepend call
	RenderStarting EventType = iota
	// ItemRenderStarting is emitted after an item's template is resolved
	ItemRenderStarting
	// ItemRenderComplete is emitted after an item's output is added to the fragment
	ItemRenderComplete
	// RenderComplete is emitted once the fragment is inserted
	RenderComplete
)

var eventNames = map[EventType]string{
	RenderStarting:     "render_starting",
	ItemRenderStarting: "item_render_starting",
	ItemRenderComplete: "item_render_complete",
	RenderComplete:     "render_complete",
}

func (t EventType) String() string {
	if name, ok := eventNames[t]; ok {
		return name
	}
	return "unknown"
}

// Event is delivered to a renderer's listener. Item and Element are nil for the
// render-level events.
type Event struct {
	Type    EventType
	Item    interface{}
	Element dom.Element
}

// Listener receives lifecycle events.
type Listener func(Event)
