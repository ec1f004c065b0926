package core

import (
	"fmt"
	"sync"
	"testing"
)

func TestTopicRegistryEnsureExistsIdempotent(t *testing.T) {
	reg := NewTopicRegistry()

	first := reg.EnsureExists("conv:39-40")
	second := reg.EnsureExists("conv:39-40")

	if first != second {
		t.Fatalf("expected same topic, got %+v and %+v", first, second)
	}
	if !reg.Exists("conv:39-40") {
		t.Fatal("topic not registered")
	}
	if reg.Exists("conv:1-2") {
		t.Fatal("unregistered topic reported as existing")
	}
}

func TestTopicRegistryConcurrentEnsure(t *testing.T) {
	reg := NewTopicRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reg.EnsureExists("conv:39-40")
			reg.EnsureExists(fmt.Sprintf("user:%d", i%5))
		}(i)
	}
	wg.Wait()

	names := reg.List()
	if len(names) != 6 {
		t.Fatalf("expected 6 topics, got %d: %v", len(names), names)
	}
	if names[0] != "conv:39-40" {
		t.Fatalf("expected sorted list starting with conv topic, got %v", names)
	}
}
