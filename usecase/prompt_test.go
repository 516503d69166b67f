package usecase

import (
	"strings"
	"testing"
)

func TestBuildSystemPromptDeterministic(t *testing.T) {
	a := BuildSystemPrompt(twoSum, "What data structure?")
	b := BuildSystemPrompt(twoSum, "What data structure?")
	if a != b {
		t.Fatal("identical inputs must produce identical prompts")
	}
}

func TestBuildSystemPromptContent(t *testing.T) {
	p := BuildSystemPrompt(twoSum, "Why does 100% of my loop fail?")

	for _, want := range []string{
		`"two sum" problem from ` + twoSum,
		"DO NOT provide complete solutions or working code",
		"similar patterns",
		"The student's current question is: Why does 100% of my loop fail?",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildSystemPromptFallbackName(t *testing.T) {
	p := BuildSystemPrompt("https://leetcode.com/", "")
	if !strings.Contains(p, `"the problem" problem from https://leetcode.com/`) {
		t.Errorf("expected generic label, got %q", p)
	}
}

func TestBuildAnalysisPrompt(t *testing.T) {
	p := BuildAnalysisPrompt("https://www.leetcode.com/problems/merge-k-sorted-lists/")
	for _, want := range []string{
		`"merge k sorted lists"`,
		"Common challenges",
		"markdown",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestWindowHistoryShort(t *testing.T) {
	msgs := WindowHistory(turns(3), HistoryWindow)
	if len(msgs) != 3 {
		t.Fatalf("got %d messages", len(msgs))
	}
	if msgs[0].Content != "turn 0" || msgs[2].Content != "turn 2" {
		t.Errorf("order not preserved: %+v", msgs)
	}
	if len(WindowHistory(nil, HistoryWindow)) != 0 {
		t.Error("nil history must produce no messages")
	}
}
