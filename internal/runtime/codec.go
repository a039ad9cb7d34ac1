package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/courselet/pkg/domain"
	"github.com/aretw0/courselet/pkg/ports"
)

// codecVersion is bumped whenever the persisted layout changes.
const codecVersion = 1

type snapshot struct {
	Version int     `json:"version"`
	Frames  []frame `json:"frames"`
}

type frame struct {
	Spec  string        `json:"spec"`
	Node  string        `json:"node"`
	State *domain.State `json:"state,omitempty"`
}

// Snapshot is the decoded form of a persisted stack, for inspection without a registry.
type Snapshot struct {
	Version int             `json:"version"`
	Frames  []SnapshotFrame `json:"frames"`
}

// SnapshotFrame is one persisted instance.
type SnapshotFrame struct {
	Spec  string            `json:"spec"`
	Node  string            `json:"node"`
	State map[string]string `json:"state,omitempty"`
}

// Encode serializes the stack as spec names, node names and state ids.
func Encode(st *Stack) ([]byte, error) {
	if st.Depth() == 0 {
		return nil, domain.ErrEmptyStack
	}
	snap := snapshot{Version: codecVersion}
	for _, inst := range st.frames {
		f := frame{Spec: inst.Spec.Name, Node: inst.Node.Name}
		if inst.State.Len() > 0 {
			f.State = inst.State
		}
		snap.Frames = append(snap.Frames, f)
	}
	return json.Marshal(snap)
}

// Inspect decodes a blob without resolving anything.
func Inspect(data []byte) (*Snapshot, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode stack: %w", err)
	}
	out := &Snapshot{Version: snap.Version}
	for _, f := range snap.Frames {
		sf := SnapshotFrame{Spec: f.Spec, Node: f.Node}
		if f.State != nil {
			sf.State = f.State.Params()
		}
		out.Frames = append(out.Frames, sf)
	}
	return out, nil
}

// Decoder rebuilds stacks from persisted blobs.
type Decoder struct {
	Specs    Specs
	Resolver ports.EntityResolver
	Logger   *slog.Logger
}

// Decode rebuilds the stack: specs and nodes are looked up by name and every
// entity id in the state bags is resolved again.
func (dec *Decoder) Decode(ctx context.Context, data []byte) (*Stack, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode stack: %w", err)
	}
	if snap.Version != codecVersion {
		return nil, fmt.Errorf("decode stack: unsupported version %d", snap.Version)
	}
	if len(snap.Frames) == 0 {
		return nil, domain.ErrEmptyStack
	}

	st := &Stack{}
	for _, f := range snap.Frames {
		spec, err := dec.Specs.Specification(f.Spec)
		if err != nil {
			return nil, err
		}
		node, err := spec.Node(f.Node)
		if err != nil {
			return nil, err
		}
		state := f.State
		if state == nil {
			state = domain.NewState()
		}
		if err := dec.Rehydrate(ctx, state); err != nil {
			return nil, err
		}
		st.Push(&Instance{Spec: spec, Node: node, State: state})
	}
	return st, nil
}

// Rehydrate resolves every entity-valued key of state. A reference to an
// entity that no longer exists fails with a NotFoundError.
func (dec *Decoder) Rehydrate(ctx context.Context, state *domain.State) error {
	for key, id := range state.Values() {
		kind, _ := domain.KindOf(key)
		if kind == "" || id == "" {
			continue
		}
		if _, bound := state.Entity(key); bound {
			continue
		}
		if dec.Resolver == nil {
			continue
		}
		entity, err := dec.Resolver.Resolve(ctx, kind, id)
		if errors.Is(err, domain.ErrNotFound) && dec.Logger != nil {
			dec.Logger.Warn("stale state reference", "key", key, "id", id)
		}
		if err != nil {
			return fmt.Errorf("resolve %s %s: %w", kind, id, err)
		}
		if err := state.Bind(key, id, entity); err != nil {
			return err
		}
	}
	return nil
}
