package tui

import "testing"

// TestKeyMapDefaults verifies default bindings used by board navigation.
func TestKeyMapDefaults(t *testing.T) {
	k := newKeyMap()
	assertKeys := func(name string, got []string, expected ...string) {
		t.Helper()
		if len(got) != len(expected) {
			t.Fatalf("%s key count mismatch got=%#v expected=%#v", name, got, expected)
		}
		for i := range expected {
			if got[i] != expected[i] {
				t.Fatalf("%s key mismatch got=%#v expected=%#v", name, got, expected)
			}
		}
	}

	assertKeys("move left", k.moveTaskLeft.Keys(), "[")
	assertKeys("move right", k.moveTaskRight.Keys(), "]")
	assertKeys("open", k.openTask.Keys(), "enter", "i")
	assertKeys("cancel", k.cancel.Keys(), "esc")
	assertKeys("next board", k.nextBoard.Keys(), "tab")
}

// TestKeyMapHelpGroups verifies every binding reachable from full help.
func TestKeyMapHelpGroups(t *testing.T) {
	k := newKeyMap()
	total := 0
	for _, group := range k.FullHelp() {
		total += len(group)
	}
	if total != 14 {
		t.Fatalf("expected 14 bindings in full help, got %d", total)
	}
	if len(k.ShortHelp()) == 0 {
		t.Fatal("expected short help bindings")
	}
}
