package vision

// Pose is a coarse head orientation bucket used to gate multi-angle
// enrollment captures.
type Pose string

const (
	PoseCenter Pose = "center"
	PoseLeft   Pose = "left"
	PoseRight  Pose = "right"
	PoseUp     Pose = "up"
	PoseDown   Pose = "down"
)

// landmark indexes into the 68-point layout.
const (
	idxJawLeft   = 0
	idxJawBottom = 8
	idxJawRight  = 16
	idxNoseTip   = 30 // nose bridge 27-30, tip of the bridge
	idxLeftEye   = 36 // outer corner
	idxRightEye  = 45 // outer corner
)

// HeadPose holds the raw yaw/pitch ratios alongside the bucketed pose.
// Ratios near 0.5 mean a centered nose; the thresholds are heuristic
// approximations of a full PnP solve over 2D landmarks.
type HeadPose struct {
	YawRatio   float64
	PitchRatio float64
	Yaw        Pose // center, left or right
	Pitch      Pose // center, up or down
}

// EstimateHeadPose derives a coarse head orientation from facial landmarks
// by comparing the nose tip position against the jaw and eye geometry.
// Returns false when the landmark set is too small to evaluate.
func EstimateHeadPose(landmarks []Point) (HeadPose, bool) {
	if len(landmarks) <= idxRightEye {
		return HeadPose{}, false
	}

	noseTip := landmarks[idxNoseTip]
	leftJaw := landmarks[idxJawLeft]
	rightJaw := landmarks[idxJawRight]
	jawBottom := landmarks[idxJawBottom]
	leftEye := landmarks[idxLeftEye]
	rightEye := landmarks[idxRightEye]

	jawWidth := rightJaw.X - leftJaw.X
	eyeMidY := (leftEye.Y + rightEye.Y) / 2
	faceHeight := jawBottom.Y - eyeMidY
	if jawWidth <= 0 || faceHeight <= 0 {
		return HeadPose{}, false
	}

	hp := HeadPose{
		YawRatio:   (noseTip.X - leftJaw.X) / jawWidth,
		PitchRatio: (noseTip.Y - eyeMidY) / faceHeight,
		Yaw:        PoseCenter,
		Pitch:      PoseCenter,
	}

	// Nose drifting toward a jaw edge means the head is turned the other way
	// in mirror view.
	switch {
	case hp.YawRatio < 0.45:
		hp.Yaw = PoseRight
	case hp.YawRatio > 0.55:
		hp.Yaw = PoseLeft
	}

	switch {
	case hp.PitchRatio < 0.35:
		hp.Pitch = PoseUp
	case hp.PitchRatio > 0.5:
		hp.Pitch = PoseDown
	}

	return hp, true
}

// Bucket collapses the two axes into the single pose label used by the
// enrollment checklist: yaw wins over pitch, center means both centered.
func (hp HeadPose) Bucket() Pose {
	if hp.Yaw != PoseCenter {
		return hp.Yaw
	}
	if hp.Pitch != PoseCenter {
		return hp.Pitch
	}
	return PoseCenter
}
