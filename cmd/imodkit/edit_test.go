package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"imodkit/pkg/imod"
)

func TestParseArgs(t *testing.T) {
	arg, err := parseDistanceArg("2:<=:15.5")
	if err != nil {
		t.Fatalf("parseDistanceArg failed: %v", err)
	}
	if arg.ref != 2 || arg.threshold != 15.5 || !arg.cmp(15.5, arg.threshold) {
		t.Errorf("Unexpected arg: %+v", arg)
	}
	for _, bad := range []string{"2:<=", "x:<:1", "1:~:1", "1:<:y"} {
		if _, err := parseDistanceArg(bad); err == nil {
			t.Errorf("parseDistanceArg(%q): expected error", bad)
		}
	}

	cmp, n, err := parseCountArg(">=:3")
	if err != nil || n != 3 || !cmp(3, 3) {
		t.Errorf("parseCountArg: n=%d err=%v", n, err)
	}
	if _, _, err := parseCountArg("3"); err == nil {
		t.Error("parseCountArg: expected error")
	}

	dest, list, err := parseMoveArg("1:2-3")
	if err != nil || dest != 1 || len(list) != 2 {
		t.Errorf("parseMoveArg: dest=%d list=%v err=%v", dest, list, err)
	}
}

func TestBuildOp(t *testing.T) {
	if _, err := buildOp(editFlags{transparency: -1}, nil); err == nil {
		t.Error("Expected error when no edits are requested")
	}
	if _, err := buildOp(editFlags{transparency: -1, color: "1,2"}, nil); err == nil {
		t.Error("Expected error for bad colour")
	}

	op, err := buildOp(editFlags{
		transparency: 40,
		removeEmpty:  true,
		units:        "nm",
		name:         "cell",
	}, nil)
	if err != nil {
		t.Fatalf("buildOp failed: %v", err)
	}

	m := imod.NewModel()
	o := imod.NewObject()
	o.Contours = []*imod.Contour{{}, {Points: []float32{1, 2, 3}}}
	m.AddObject(o)
	if err := op(context.Background(), "test.mod", m); err != nil {
		t.Fatalf("op failed: %v", err)
	}
	if m.UnitsString() != "nm" || o.Name != "cell" || o.Transparency != 40 || len(o.Contours) != 1 {
		t.Errorf("Edits not applied: units=%s name=%q transparency=%d contours=%d",
			m.UnitsString(), o.Name, o.Transparency, len(o.Contours))
	}
}

func TestBuildOpTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "styles.csv")
	if err := os.WriteFile(path, []byte("name,linewidth\ncell,4\n"), 0644); err != nil {
		t.Fatal(err)
	}
	op, err := buildOp(editFlags{transparency: -1, table: path}, nil)
	if err != nil {
		t.Fatalf("buildOp failed: %v", err)
	}
	m := imod.NewModel()
	o := imod.NewObject()
	o.Name = "cell"
	m.AddObject(o)
	if err := op(context.Background(), "test.mod", m); err != nil {
		t.Fatalf("op failed: %v", err)
	}
	if o.LineWidth2D != 4 {
		t.Errorf("Expected line width 4, got %d", o.LineWidth2D)
	}

	if _, err := buildOp(editFlags{transparency: -1, table: path + ".missing"}, nil); err == nil {
		t.Error("Expected error for missing table")
	}
}

func TestFirstDiff(t *testing.T) {
	if got := firstDiff([]byte("abc"), []byte("abd")); got != 2 {
		t.Errorf("firstDiff = %d, want 2", got)
	}
	if got := firstDiff([]byte("ab"), []byte("abc")); got != 2 {
		t.Errorf("firstDiff = %d, want 2", got)
	}
}
