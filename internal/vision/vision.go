// Package vision defines the contract with the external face detection
// subsystem. The core never extracts embeddings itself; it consumes
// detections produced elsewhere and only reasons about their geometry.
package vision

import (
	"context"

	"github.com/faceguard/faceguard/internal/identity"
)

// Point is a 2D landmark position in frame pixel coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Detection is a single detected face in a frame: bounding region,
// detection confidence in [0,1], the face embedding, and the 68-point
// landmark set. Landmarks are consumed only for head-pose estimation
// during multi-angle enrollment.
type Detection struct {
	Box       Box                `json:"box"`
	Score     float64            `json:"score"`
	Embedding identity.Embedding `json:"embedding"`
	Landmarks []Point            `json:"landmarks,omitempty"`
}

// Box is a bounding region in frame pixel coordinates.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Area returns the box area in square pixels.
func (b Box) Area() float64 {
	if b.Width <= 0 || b.Height <= 0 {
		return 0
	}
	return b.Width * b.Height
}

// Source produces per-frame detections. Implementations wrap whatever
// capture pipeline is in use; Detect blocks for at most one frame.
type Source interface {
	Detect(ctx context.Context) ([]Detection, error)
}

// BestFace selects the detection to act on: filter below the confidence
// threshold, then pick the largest remaining face (closest to the camera).
// Returns nil when nothing passes the filter.
func BestFace(detections []Detection, minScore float64) *Detection {
	var best *Detection
	for i := range detections {
		d := &detections[i]
		if d.Score <= minScore {
			continue
		}
		if best == nil || d.Box.Area() > best.Box.Area() {
			best = d
		}
	}
	return best
}
