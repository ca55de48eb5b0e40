package catalog

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"pgregory.net/rapid"
)

func genOptionalInt(label string) *rapid.Generator[Optional[int]] {
	return rapid.Custom(func(t *rapid.T) Optional[int] {
		if rapid.Bool().Draw(t, label+"_set") {
			return Some(rapid.IntRange(0, 20).Draw(t, label))
		}
		return None[int]()
	})
}

func genPatch() *rapid.Generator[Patch] {
	return rapid.Custom(func(t *rapid.T) Patch {
		var p Patch
		if rapid.Bool().Draw(t, "desc_set") {
			p.Description = Some(rapid.StringMatching(`[a-z ]{1,20}`).Draw(t, "desc"))
		}
		p.MinPlayers = genOptionalInt("min").Draw(t, "min_players")
		p.MaxPlayers = genOptionalInt("max").Draw(t, "max_players")
		p.PlayTimeMinutes = genOptionalInt("time").Draw(t, "play_time")
		return p
	})
}

func sameInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func TestPropertyUpdateMergesOnlyPresentFields(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ctx := context.Background()
		svc := NewService(NewMemStore(), zap.NewNop())

		created, err := svc.Create(ctx, catan())
		if err != nil {
			t.Fatalf("create: %v", err)
		}

		p := genPatch().Draw(t, "patch")
		updated, ok, err := svc.Update(ctx, created.ID, p)
		if err != nil || !ok {
			t.Fatalf("update: ok=%v err=%v", ok, err)
		}

		if updated.ID != created.ID || !updated.CreatedAt.Equal(created.CreatedAt) {
			t.Fatalf("identity changed: %+v -> %+v", created, updated)
		}
		if !updated.UpdatedAt.After(created.UpdatedAt) {
			t.Fatalf("updatedAt did not advance")
		}
		if updated.Name != created.Name {
			t.Fatalf("name changed without being patched")
		}

		wantDesc := created.Description
		if v, set := p.Description.Get(); set {
			wantDesc = v
		}
		if updated.Description != wantDesc {
			t.Fatalf("description=%q want %q", updated.Description, wantDesc)
		}

		checks := []struct {
			patch   Optional[int]
			before  *int
			after   *int
			nameFor string
		}{
			{p.MinPlayers, created.MinPlayers, updated.MinPlayers, "minPlayers"},
			{p.MaxPlayers, created.MaxPlayers, updated.MaxPlayers, "maxPlayers"},
			{p.PlayTimeMinutes, created.PlayTimeMinutes, updated.PlayTimeMinutes, "playTimeMinutes"},
		}
		for _, c := range checks {
			want := c.before
			if v, set := c.patch.Get(); set {
				want = &v
			}
			if !sameInt(c.after, want) {
				t.Fatalf("%s mismatch", c.nameFor)
			}
		}
	})
}

func TestPropertyNamesStayUnique(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ctx := context.Background()
		svc := NewService(NewMemStore(), zap.NewNop())
		names := rapid.SampledFrom([]string{"Catan", "Azul", "Chess", "Go"})

		steps := rapid.IntRange(1, 30).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			all, err := svc.List(ctx)
			if err != nil {
				t.Fatalf("list: %v", err)
			}

			if len(all) == 0 || rapid.Bool().Draw(t, "create") {
				_, _ = svc.Create(ctx, BoardGame{Name: names.Draw(t, "name"), Description: "d"})
				continue
			}

			target := rapid.SampledFrom(all).Draw(t, "target")
			if rapid.Bool().Draw(t, "delete") {
				_, _ = svc.Delete(ctx, target.ID)
			} else {
				_, _, _ = svc.Update(ctx, target.ID, Patch{Name: Some(names.Draw(t, "rename"))})
			}
		}

		all, err := svc.List(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		seen := map[string]bool{}
		for _, g := range all {
			if seen[g.Name] {
				t.Fatalf("duplicate name %q in %+v", g.Name, all)
			}
			seen[g.Name] = true
		}
	})
}
