package trace

import (
	"context"
	"strings"
	"testing"
)

func TestWithRunID(t *testing.T) {
	ctx := WithRunID(context.Background())
	id := RunID(ctx)
	if !strings.HasPrefix(id, "run_") || len(id) != len("run_")+16 {
		t.Fatalf("unexpected run id %q", id)
	}
	if again := RunID(WithRunID(ctx)); again != id {
		t.Fatalf("existing run id replaced: %q -> %q", id, again)
	}
	if RunID(context.Background()) != "" {
		t.Fatalf("background context should carry no run id")
	}
}

func TestGenerateRunIDUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := GenerateRunID()
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}
