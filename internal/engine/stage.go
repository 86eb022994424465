package engine

// Stage is one pass of the fixed per-step pipeline.
type Stage int

const (
	StageRainfall         Stage = iota // W += P on every cell
	StageFlowDirection                 // D8 steepest descent
	StageFlowAccumulation              // Upstream area, sequential
	StageSlope                         // Slope along flow direction
	StageErosion                       // Stream power, then optional diffusion
	StageUplift                        // H += U on every cell
)

// Pipeline is the order Step runs the stages in. Each stage reads the state
// left by the one before it.
var Pipeline = [...]Stage{
	StageRainfall,
	StageFlowDirection,
	StageFlowAccumulation,
	StageSlope,
	StageErosion,
	StageUplift,
}

func (s Stage) String() string {
	switch s {
	case StageRainfall:
		return "rainfall"
	case StageFlowDirection:
		return "flow_direction"
	case StageFlowAccumulation:
		return "flow_accumulation"
	case StageSlope:
		return "slope"
	case StageErosion:
		return "erosion"
	case StageUplift:
		return "uplift"
	default:
		return "unknown"
	}
}
