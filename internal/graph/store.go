package graph

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrNilNode        = errors.New("node is nil")
	ErrEmptyNodeID    = errors.New("node id is empty")
	ErrDuplicateNode  = errors.New("node already exists")
	ErrNodeNotFound   = errors.New("node not found")
	ErrEmptyFieldName = errors.New("field name is empty")
	ErrFieldExists    = errors.New("field already set")
)

// FieldWriter is the node-field-write capability handed to node hooks.
type FieldWriter interface {
	CreateNodeField(node *Node, name string, value any) error
}

// Store is an in-memory content graph. Nodes keep their discovery order.
type Store struct {
	mu    sync.RWMutex
	nodes map[string]*Node
	order []string
}

// NewStore returns an empty graph.
func NewStore() *Store {
	return &Store{nodes: make(map[string]*Node)}
}

// CreateNode adds node to the graph.
func (s *Store) CreateNode(node *Node) error {
	if node == nil {
		return ErrNilNode
	}
	if node.ID == "" {
		return ErrEmptyNodeID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.nodes[node.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, node.ID)
	}
	s.nodes[node.ID] = node
	s.order = append(s.order, node.ID)
	return nil
}

// CreateNodeField sets fields[name] on a node of this graph. Every field is
// write-once.
func (s *Store) CreateNodeField(node *Node, name string, value any) error {
	if node == nil {
		return ErrNilNode
	}
	if name == "" {
		return ErrEmptyFieldName
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.nodes[node.ID]
	if !ok || stored != node {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, node.ID)
	}
	if _, exists := node.Fields[name]; exists {
		return fmt.Errorf("%w: %s on %s", ErrFieldExists, name, node.ID)
	}
	if node.Fields == nil {
		node.Fields = make(map[string]any)
	}
	node.Fields[name] = value
	return nil
}

// Node returns a snapshot of the node with the given id.
func (s *Store) Node(id string) (*Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[id]
	if !ok {
		return nil, false
	}
	return n.clone(), true
}

// Nodes returns the live nodes in discovery order. Callers outside the
// orchestrator must treat them as read-only.
func (s *Store) Nodes() []*Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Node, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.nodes[id])
	}
	return out
}

// Len reports the number of nodes.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
