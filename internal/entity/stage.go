package entity

import "fmt"

type VerificationStage uint8

const (
	StageInitial      VerificationStage = 0
	StageMovingCloser VerificationStage = 1
	StageScanning     VerificationStage = 2
	StageCompleted    VerificationStage = 3
)

var VerificationStageMap = map[VerificationStage]string{
	StageInitial:      "initial",
	StageMovingCloser: "moving-closer",
	StageScanning:     "scanning",
	StageCompleted:    "completed",
}

func (s VerificationStage) String() string {
	return VerificationStageMap[s]
}

func (s VerificationStage) Value() uint8 {
	return uint8(s)
}

func (s VerificationStage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *VerificationStage) UnmarshalText(text []byte) error {
	for stage, name := range VerificationStageMap {
		if name == string(text) {
			*s = stage
			return nil
		}
	}
	return fmt.Errorf("%w: unknown verification stage %q", ErrInvalidConfiguration, text)
}
