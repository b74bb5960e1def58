package resources

import "call-audit-go/internal/domain"

// Tier is the ASR model size ladder, largest first.
type Tier string

const (
	TierLarge  Tier = "large"
	TierMedium Tier = "medium"
	TierSmall  Tier = "small"
)

// tierMemoryGB is the estimated memory each tier needs to run.
var tierMemoryGB = map[Tier]float64{
	TierLarge:  10,
	TierMedium: 5,
	TierSmall:  2,
}

// ladder orders tiers by decreasing resource cost.
var ladder = []Tier{TierLarge, TierMedium, TierSmall}

// Configuration is the selector output consumed by the orchestrator and
// batch coordinator.
type Configuration struct {
	ModelTier   Tier
	WorkerCount int
}

// Selector picks the highest feasible tier for a profile. It never fails:
// when nothing fits it degrades to the smallest tier.
type Selector struct {
	probe      func() Profile
	maxWorkers int
}

// NewSelector builds a selector with the real probe and a worker ceiling.
func NewSelector(maxWorkers int) *Selector {
	return NewSelectorWithProbe(Detect, maxWorkers)
}

// NewSelectorWithProbe injects a probe, used by tests and by callers that
// already hold a snapshot.
func NewSelectorWithProbe(probe func() Profile, maxWorkers int) *Selector {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &Selector{probe: probe, maxWorkers: maxWorkers}
}

// Select resolves the inference configuration for a requested depth.
// Without an accelerator the small tier is forced: larger models are not
// worth running on CPU. Basic-depth runs start the ladder at medium since
// they only need a usable transcript, not the best one.
func (s *Selector) Select(depth domain.AnalysisDepth) Configuration {
	profile := s.probe()

	workers := profile.CPUCores
	if workers > s.maxWorkers {
		workers = s.maxWorkers
	}
	if workers < 1 {
		workers = 1
	}

	if !profile.HasAccelerator {
		return Configuration{ModelTier: TierSmall, WorkerCount: workers}
	}

	start := 0
	if depth == domain.DepthBasic {
		start = 1 // skip the large tier
	}
	for _, tier := range ladder[start:] {
		if tierMemoryGB[tier] <= profile.FreeMemoryGB {
			return Configuration{ModelTier: tier, WorkerCount: workers}
		}
	}
	return Configuration{ModelTier: TierSmall, WorkerCount: workers}
}
