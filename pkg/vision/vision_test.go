package vision

import "testing"

func TestBestPicksHighestAboveThreshold(t *testing.T) {
	dets := []Detection{
		{Label: "A", Confidence: 0.55},
		{Label: "B", Confidence: 0.91},
		{Label: "C", Confidence: 0.72},
	}
	best := Best(dets, 0.4)
	if best == nil || best.Label != "B" {
		t.Fatalf("expected B, got %+v", best)
	}
}

func TestBestDiscardsBelowThreshold(t *testing.T) {
	dets := []Detection{
		{Label: "A", Confidence: 0.2},
		{Label: "B", Confidence: 0.39},
	}
	if best := Best(dets, 0.4); best != nil {
		t.Fatalf("expected nil, got %+v", best)
	}
	if best := Best(nil, 0.4); best != nil {
		t.Fatalf("expected nil for empty input, got %+v", best)
	}
}
