package runtime

import (
	"fmt"

	"github.com/aretw0/courselet/pkg/domain"
)

// Instance is one running flow: a specification, the node it sits on, and its state bag.
type Instance struct {
	Spec  *domain.Specification
	Node  *domain.Node
	State *domain.State
}

// NewInstance places a fresh instance on the entry node of spec.
func NewInstance(spec *domain.Specification, seed *domain.State) (*Instance, error) {
	entry, err := spec.Node(spec.EntryName())
	if err != nil {
		return nil, fmt.Errorf("enter %s: %w", spec.Name, err)
	}
	if seed == nil {
		seed = domain.NewState()
	}
	return &Instance{Spec: spec, Node: entry, State: seed}, nil
}

// Stack is a user's nested flows. The bottom frame is the base browsing instance.
type Stack struct {
	frames []*Instance
}

// NewStack creates a stack whose base is inst.
func NewStack(base *Instance) *Stack {
	return &Stack{frames: []*Instance{base}}
}

// Current returns the top instance.
func (s *Stack) Current() (*Instance, error) {
	if len(s.frames) == 0 {
		return nil, domain.ErrEmptyStack
	}
	return s.frames[len(s.frames)-1], nil
}

// Depth returns the number of instances on the stack.
func (s *Stack) Depth() int { return len(s.frames) }

// Frames returns the instances bottom-first.
func (s *Stack) Frames() []*Instance {
	out := make([]*Instance, len(s.frames))
	copy(out, s.frames)
	return out
}

// Push places inst on top.
func (s *Stack) Push(inst *Instance) {
	s.frames = append(s.frames, inst)
}

// Pop removes the top instance. The base instance cannot be popped.
func (s *Stack) Pop() (*Instance, error) {
	if len(s.frames) <= 1 {
		return nil, domain.ErrEmptyStack
	}
	top := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return top, nil
}
