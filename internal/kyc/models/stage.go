package models

// Stage identifies a wizard screen. Navigation is cyclic: Next from the
// summary wraps to member info, Previous from member info wraps to summary.
type Stage int

const (
	StageMemberInfo Stage = iota
	StageMemberAddress
	StageNomineeInfo
	StageNomineeAddress
	StageBankDetails
	StageSummary

	stageCount = int(StageSummary) + 1
)

var stageNames = [stageCount]string{
	"memberInfo",
	"memberAddress",
	"nomineeInfo",
	"nomineeAddress",
	"bankDetails",
	"summary",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= stageCount {
		return "unknown"
	}
	return stageNames[s]
}

// Next returns the successor stage, wrapping past the summary.
func (s Stage) Next() Stage {
	return Stage((int(s) + 1) % stageCount)
}

// Previous returns the predecessor stage, wrapping before member info.
func (s Stage) Previous() Stage {
	return Stage((int(s) + stageCount - 1) % stageCount)
}

// ParseStage resolves a stage by its wire name.
func ParseStage(name string) (Stage, bool) {
	for i, n := range stageNames {
		if n == name {
			return Stage(i), true
		}
	}
	return StageMemberInfo, false
}

// MarshalText implements encoding.TextMarshaler so stages serialize by name
// in drafts and API payloads.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText tolerates unknown names by resetting to the first stage, so
// legacy drafts never fail to load over a renamed stage.
func (s *Stage) UnmarshalText(text []byte) error {
	if parsed, ok := ParseStage(string(text)); ok {
		*s = parsed
	} else {
		*s = StageMemberInfo
	}
	return nil
}
