package tree

import (
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDSource hands out node identifiers that are unique for the session.
type IDSource interface {
	NextID() NodeID
}

// UUIDSource generates random 128-bit identifiers.
type UUIDSource struct{}

// NextID returns a fresh version 4 UUID.
func (UUIDSource) NextID() NodeID {
	return NodeID(uuid.NewString())
}

// CounterSource generates monotonically increasing identifiers with an
// optional prefix. It is safe for concurrent use.
type CounterSource struct {
	Prefix string
	n      atomic.Uint64
}

// NextID returns the next identifier in sequence, starting at 1.
func (c *CounterSource) NextID() NodeID {
	return NodeID(c.Prefix + strconv.FormatUint(c.n.Add(1), 10))
}

// Factory builds fresh nodes with unique ids and default fields.
type Factory struct {
	ids IDSource
}

// NewFactory creates a factory drawing ids from ids. A nil source falls
// back to UUIDSource.
func NewFactory(ids IDSource) *Factory {
	if ids == nil {
		ids = UUIDSource{}
	}
	return &Factory{ids: ids}
}

// New creates a detached node of the given kind. parent is recorded as the
// back-reference and may be ZeroID for roots. The node is not inserted into
// any forest. New panics for kinds that are not structured nodes.
func (f *Factory) New(kind Kind, parent NodeID) *Node {
	var data NodeData
	switch kind {
	case KindBlock:
		data = &BlockData{Functions: []Child{}}
	case KindObject:
		data = &ObjectData{Functions: []Child{}}
	case KindFunction:
		data = &FunctionData{Params: []Child{}}
	default:
		panic(fmt.Sprintf("tree: cannot create node of kind %s", kind))
	}

	id := f.ids.NextID()
	return &Node{
		ID:     id,
		Text:   fmt.Sprintf("%s-%s", Lookup(kind).Title, id.Short()),
		Kind:   kind,
		Parent: parent,
		Data:   data,
	}
}
