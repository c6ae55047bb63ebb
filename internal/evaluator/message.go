package evaluator

import "FaceScan/internal/entity"

type Guidance struct {
	Code string `json:"code"`
	Text string `json:"text"`
}

var (
	GuidanceMoveBack     = Guidance{"too_close", "Move back slightly"}
	GuidanceMoveCloser   = Guidance{"too_far", "Move closer to the camera"}
	GuidanceCenterFace   = Guidance{"not_ideal", "Center your face in the frame"}
	GuidancePerfect      = Guidance{"perfect", "Perfect position"}
	GuidanceKeepCentered = Guidance{"not_centered", "Keep your face centered"}
	GuidanceSlowlyCloser = Guidance{"too_far", "Slowly move closer..."}
	GuidanceHold         = Guidance{"hold", "Hold position"}
	GuidanceStayStill    = Guidance{"scanning", "Stay still while scanning"}
	GuidanceComplete     = Guidance{"completed", "Your verification is complete."}
)

// GuidanceFor picks the user facing instruction for the current stage.
func GuidanceFor(stage entity.VerificationStage, e Evaluation, progress float64) Guidance {
	status := e.Status

	switch stage {
	case entity.StageInitial:
		if !status.IsIdealStartPosition {
			if status.IsFaceTooClose {
				return GuidanceMoveBack
			}
			if status.IsFaceFar {
				return GuidanceMoveCloser
			}
			return GuidanceCenterFace
		}
		return GuidancePerfect
	case entity.StageMovingCloser:
		if !e.IsFaceInsideBoundary {
			return GuidanceKeepCentered
		}
		if status.IsFaceFar {
			return GuidanceSlowlyCloser
		}
		if status.IsFaceTooClose {
			return GuidanceMoveBack
		}
		if progress < ScanReadyProgress {
			return GuidanceSlowlyCloser
		}
		return GuidanceHold
	case entity.StageCompleted:
		return GuidanceComplete
	default:
		return GuidanceStayStill
	}
}
