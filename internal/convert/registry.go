package convert

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/danmuck/meshu3d/internal/toolchain"
)

var (
	ErrStrategyExists  = errors.New("convert: strategy already exists")
	ErrStrategyNil     = errors.New("convert: strategy is nil")
	ErrUnknownStrategy = errors.New("convert: unknown strategy")
	ErrInvalidMetadata = errors.New("convert: invalid strategy metadata")
)

// Registry stores strategies by stable identifier.
type Registry struct {
	items map[string]Strategy
}

// NewRegistry creates an empty strategy registry.
func NewRegistry() *Registry {
	return &Registry{items: make(map[string]Strategy)}
}

// builtinFamilies are the id prefixes owned by the built-in strategies.
// Configured commands may not use them, so a [convert.commands] entry can
// never shadow or be mistaken for a built-in in an order list.
var builtinFamilies = map[string]struct{}{
	"gem": {}, "idtf": {}, "path": {}, "meshlab": {}, "blender": {}, "native": {},
}

// ValidateMetadata checks that a strategy has a name and description, an id
// of the form <family>.<variant>, and only names known toolchain entries.
func ValidateMetadata(meta StrategyMetadata) error {
	id := strings.TrimSpace(meta.ID)
	name := strings.TrimSpace(meta.Name)
	desc := strings.TrimSpace(meta.Description)
	if id == "" || name == "" || desc == "" {
		return fmt.Errorf("%w: id, name, and description are required", ErrInvalidMetadata)
	}
	if _, _, ok := splitID(id); !ok {
		return fmt.Errorf("%w: id %q is not <family>.<variant>", ErrInvalidMetadata, id)
	}
	for _, tool := range meta.Tools {
		if _, ok := toolchain.BuiltinEntry(tool); !ok {
			return fmt.Errorf("%w: %s uses unknown tool %q", ErrInvalidMetadata, id, tool)
		}
	}
	return nil
}

// ValidateCommandID checks an id from the [convert.commands] table. Besides
// the usual form it must not sit in a built-in family.
func ValidateCommandID(id string) error {
	family, _, ok := splitID(id)
	if !ok {
		return fmt.Errorf("%w: command id %q is not <family>.<variant>", ErrInvalidMetadata, id)
	}
	if _, reserved := builtinFamilies[family]; reserved {
		return fmt.Errorf("%w: command id %q uses built-in family %q", ErrInvalidMetadata, id, family)
	}
	return nil
}

// Register adds a strategy to the registry.
func (r *Registry) Register(s Strategy) error {
	if s == nil {
		return ErrStrategyNil
	}

	meta := s.Metadata()
	if err := ValidateMetadata(meta); err != nil {
		return err
	}

	if _, ok := r.items[meta.ID]; ok {
		return fmt.Errorf("%w: %s", ErrStrategyExists, meta.ID)
	}
	r.items[meta.ID] = s
	return nil
}

// Resolve returns a strategy by id.
func (r *Registry) Resolve(id string) (Strategy, bool) {
	s, ok := r.items[id]
	return s, ok
}

// Select resolves ids in order. Unknown ids fail the whole selection.
func (r *Registry) Select(ids []string) ([]Strategy, error) {
	out := make([]Strategy, 0, len(ids))
	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		s, ok := r.items[id]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, id)
		}
		out = append(out, s)
	}
	return out, nil
}

// ListMetadata returns deterministic metadata ordering by id.
func (r *Registry) ListMetadata() []StrategyMetadata {
	list := make([]StrategyMetadata, 0, len(r.items))
	for _, s := range r.items {
		list = append(list, s.Metadata())
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].ID < list[j].ID
	})
	return list
}

// splitID splits "gem.script" into its family and variant. Both parts are
// lowercase words of letters, digits and inner dashes; the family starts
// with a letter.
func splitID(id string) (family, variant string, ok bool) {
	family, variant, found := strings.Cut(id, ".")
	if !found || !isWord(family) || !isWord(variant) {
		return "", "", false
	}
	if family[0] < 'a' || family[0] > 'z' {
		return "", "", false
	}
	return family, variant, true
}

func isWord(s string) bool {
	if s == "" || s[0] == '-' || s[len(s)-1] == '-' {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '-') {
			return false
		}
	}
	return true
}
