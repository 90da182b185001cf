package convert

import (
	"errors"
	"reflect"
	"testing"

	"github.com/danmuck/meshu3d/internal/testutil/testlog"
)

type fakeStrategy struct {
	meta StrategyMetadata
	run  func(job Job) error
}

func (f fakeStrategy) Metadata() StrategyMetadata {
	return f.meta
}

func (f fakeStrategy) Convert(job Job) error {
	if f.run == nil {
		return nil
	}
	return f.run(job)
}

func named(id string, run func(job Job) error) fakeStrategy {
	return fakeStrategy{meta: StrategyMetadata{ID: id, Name: id, Description: "fake " + id}, run: run}
}

func TestRegisterResolveAndDuplicate(t *testing.T) {
	testlog.Start(t)
	r := NewRegistry()
	s := named("gem.fake", nil)

	if err := r.Register(s); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Register(s); !errors.Is(err, ErrStrategyExists) {
		t.Fatalf("expected ErrStrategyExists, got %v", err)
	}
	got, ok := r.Resolve("gem.fake")
	if !ok || got.Metadata().ID != "gem.fake" {
		t.Fatalf("resolve failed: ok=%v", ok)
	}
}

func TestListMetadataSorted(t *testing.T) {
	testlog.Start(t)
	r := NewRegistry()
	_ = r.Register(named("z.last", nil))
	_ = r.Register(named("a.first", nil))
	_ = r.Register(named("m.middle", nil))

	list := r.ListMetadata()
	ids := []string{list[0].ID, list[1].ID, list[2].ID}
	want := []string{"a.first", "m.middle", "z.last"}
	if !reflect.DeepEqual(ids, want) {
		t.Fatalf("metadata not sorted: got=%v want=%v", ids, want)
	}
}

func TestSelectKeepsOrderAndRejectsUnknown(t *testing.T) {
	testlog.Start(t)
	r := NewRegistry()
	_ = r.Register(named("b.two", nil))
	_ = r.Register(named("a.one", nil))

	got, err := r.Select([]string{"b.two", "a.one"})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if got[0].Metadata().ID != "b.two" || got[1].Metadata().ID != "a.one" {
		t.Fatalf("order not kept: %s %s", got[0].Metadata().ID, got[1].Metadata().ID)
	}
	if _, err := r.Select([]string{"a.one", "c.three"}); !errors.Is(err, ErrUnknownStrategy) {
		t.Fatalf("expected ErrUnknownStrategy, got %v", err)
	}
}

func TestValidateMetadataFailures(t *testing.T) {
	testlog.Start(t)
	cases := []StrategyMetadata{
		{ID: "", Name: "Gem", Description: "x"},
		{ID: "gem.cli", Name: "", Description: "x"},
		{ID: "gem.cli", Name: "Gem", Description: ""},
		{ID: "Gem.Cli", Name: "Gem", Description: "x"},
		{ID: ".gem.cli", Name: "Gem", Description: "x"},
		{ID: "gem..cli", Name: "Gem", Description: "x"},
		{ID: "gem.cli-", Name: "Gem", Description: "x"},
		{ID: "gem.cli.fast", Name: "Gem", Description: "x"},
		{ID: "blender", Name: "Blender", Description: "x"},
		{ID: "9gem.cli", Name: "Gem", Description: "x"},
		{ID: "gem.cli", Name: "Gem", Description: "x", Tools: []string{"gimp"}},
	}
	for _, meta := range cases {
		if err := ValidateMetadata(meta); !errors.Is(err, ErrInvalidMetadata) {
			t.Fatalf("expected ErrInvalidMetadata for meta=%+v, got %v", meta, err)
		}
	}
}

func TestRegisterNilStrategy(t *testing.T) {
	testlog.Start(t)
	if err := NewRegistry().Register(nil); !errors.Is(err, ErrStrategyNil) {
		t.Fatalf("expected ErrStrategyNil, got %v", err)
	}
}

func TestBuiltinCoversDefaultOrders(t *testing.T) {
	testlog.Start(t)
	r := Builtin(NewToolbox(nil, ""))
	for _, order := range [][]string{IDTFOrder, STLOrder, {"meshlab.export", "blender.stl", "native.stl"}} {
		if _, err := r.Select(order); err != nil {
			t.Fatalf("select %v: %v", order, err)
		}
	}
}

func TestRegisterCommands(t *testing.T) {
	testlog.Start(t)
	r := NewRegistry()
	err := r.RegisterCommands(NewToolbox(nil, ""), map[string]string{
		"custom.assimp": "assimp export {input} {output}",
	})
	if err != nil {
		t.Fatalf("register commands: %v", err)
	}
	if _, ok := r.Resolve("custom.assimp"); !ok {
		t.Fatalf("custom.assimp not registered")
	}
	err = r.RegisterCommands(NewToolbox(nil, ""), map[string]string{"Bad": "x {output}"})
	if !errors.Is(err, ErrInvalidMetadata) {
		t.Fatalf("expected ErrInvalidMetadata, got %v", err)
	}
}

func TestRegisterCommandsRejectsBuiltinFamily(t *testing.T) {
	testlog.Start(t)
	r := NewRegistry()
	for _, id := range []string{"gem.fast", "idtf.local", "native.obj"} {
		err := r.RegisterCommands(NewToolbox(nil, ""), map[string]string{id: "tool {input} {output}"})
		if !errors.Is(err, ErrInvalidMetadata) {
			t.Fatalf("%s: expected ErrInvalidMetadata, got %v", id, err)
		}
	}
	if len(r.ListMetadata()) != 0 {
		t.Fatalf("rejected commands were registered: %v", r.ListMetadata())
	}
}

func TestValidateMetadataAcceptsBuiltins(t *testing.T) {
	testlog.Start(t)
	for _, meta := range Builtin(NewToolbox(nil, "")).ListMetadata() {
		if err := ValidateMetadata(meta); err != nil {
			t.Fatalf("%s: %v", meta.ID, err)
		}
	}
}
