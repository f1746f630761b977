package vision

import "testing"

func TestBestFace_FiltersLowScore(t *testing.T) {
	detections := []Detection{
		{Score: 0.4, Box: Box{Width: 500, Height: 500}},
		{Score: 0.9, Box: Box{Width: 100, Height: 100}},
	}

	best := BestFace(detections, 0.6)
	if best == nil {
		t.Fatal("expected a detection")
	}
	if best.Score != 0.9 {
		t.Errorf("expected the confident face, got score %v", best.Score)
	}
}

func TestBestFace_PicksLargest(t *testing.T) {
	detections := []Detection{
		{Score: 0.8, Box: Box{Width: 100, Height: 100}},
		{Score: 0.7, Box: Box{Width: 300, Height: 200}},
		{Score: 0.95, Box: Box{Width: 50, Height: 50}},
	}

	best := BestFace(detections, 0.6)
	if best == nil {
		t.Fatal("expected a detection")
	}
	if best.Box.Width != 300 {
		t.Errorf("expected the largest face, got width %v", best.Box.Width)
	}
}

func TestBestFace_Empty(t *testing.T) {
	if BestFace(nil, 0.6) != nil {
		t.Error("expected nil for no detections")
	}
	if BestFace([]Detection{{Score: 0.1}}, 0.6) != nil {
		t.Error("expected nil when nothing passes the filter")
	}
}

// centeredLandmarks builds a 68-point layout with a centered nose tip.
func centeredLandmarks() []Point {
	pts := make([]Point, 68)
	pts[idxJawLeft] = Point{X: 0, Y: 50}
	pts[idxJawRight] = Point{X: 100, Y: 50}
	pts[idxJawBottom] = Point{X: 50, Y: 100}
	pts[idxLeftEye] = Point{X: 25, Y: 30}
	pts[idxRightEye] = Point{X: 75, Y: 30}
	pts[idxNoseTip] = Point{X: 50, Y: 60}
	return pts
}

func TestEstimateHeadPose_Center(t *testing.T) {
	hp, ok := EstimateHeadPose(centeredLandmarks())
	if !ok {
		t.Fatal("expected pose estimate")
	}
	if hp.Bucket() != PoseCenter {
		t.Errorf("expected center, got %s (yaw %.2f pitch %.2f)", hp.Bucket(), hp.YawRatio, hp.PitchRatio)
	}
}

func TestEstimateHeadPose_Yaw(t *testing.T) {
	pts := centeredLandmarks()
	pts[idxNoseTip].X = 30 // nose toward left jaw in frame
	hp, ok := EstimateHeadPose(pts)
	if !ok {
		t.Fatal("expected pose estimate")
	}
	if hp.Yaw != PoseRight {
		t.Errorf("expected right, got %s", hp.Yaw)
	}

	pts[idxNoseTip].X = 70
	hp, _ = EstimateHeadPose(pts)
	if hp.Yaw != PoseLeft {
		t.Errorf("expected left, got %s", hp.Yaw)
	}
}

func TestEstimateHeadPose_TooFewLandmarks(t *testing.T) {
	if _, ok := EstimateHeadPose(make([]Point, 10)); ok {
		t.Error("expected failure for truncated landmark set")
	}
}
