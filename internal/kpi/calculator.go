// Package kpi derives operational metrics from a transcript and its segment
// timing: duration, speech rate, silences, interruptions, and talk balance.
package kpi

import (
	"sort"
	"strings"

	"call-audit-go/internal/domain"
)

// DefaultSilenceGapSeconds is the minimum gap between segments counted as a
// silence.
const DefaultSilenceGapSeconds = 2.0

// Calculator computes the metric set for one call.
type Calculator struct {
	silenceGap float64
}

// NewCalculator builds a calculator. A non-positive silence gap falls back
// to the default.
func NewCalculator(silenceGapSeconds float64) *Calculator {
	if silenceGapSeconds <= 0 {
		silenceGapSeconds = DefaultSilenceGapSeconds
	}
	return &Calculator{silenceGap: silenceGapSeconds}
}

// Compute derives all metrics. Metrics whose inputs are unavailable (no
// segment timing, single speaker) are emitted with zero values rather than
// omitted, so reports stay shape-stable.
func (c *Calculator) Compute(t domain.Transcript) []domain.Metric {
	duration := t.SpanSeconds()
	words := t.WordCount()
	segments := sortedSegments(t.Segments)

	wpm := 0.0
	if duration > 0 {
		wpm = float64(words) / (duration / 60)
	}

	silenceCount, silenceTotal := c.silences(segments)
	interruptions := interruptionCount(segments)
	agentShare := agentTalkShare(segments)

	metrics := make([]domain.Metric, 0, 7)
	add := func(m domain.Metric, err error) {
		if err == nil {
			metrics = append(metrics, m)
		}
	}

	durMin, durTarget := domain.Thresholds(30, 120)
	add(domain.NewMetric("call_duration", duration, domain.MetricSeconds, domain.MetricPerformance, "s", durMin, durTarget))

	wpmMin, wpmTarget := domain.Thresholds(100, 140)
	add(domain.NewMetric("words_per_minute", wpm, domain.MetricScore, domain.MetricPerformance, "wpm", wpmMin, wpmTarget))

	add(domain.NewMetric("word_count", float64(words), domain.MetricCount, domain.MetricPerformance, "", nil, nil))
	add(domain.NewMetric("silence_count", float64(silenceCount), domain.MetricCount, domain.MetricEfficiency, "", nil, nil))
	add(domain.NewMetric("silence_total_seconds", silenceTotal, domain.MetricSeconds, domain.MetricEfficiency, "s", nil, nil))
	add(domain.NewMetric("interruption_count", float64(interruptions), domain.MetricCount, domain.MetricQuality, "", nil, nil))

	ratioMin, ratioTarget := domain.Thresholds(0.35, 0.5)
	add(domain.NewMetric("agent_talk_ratio", clampRatio(agentShare), domain.MetricRatio, domain.MetricQuality, "", ratioMin, ratioTarget))

	return metrics
}

func sortedSegments(segments []domain.Segment) []domain.Segment {
	out := make([]domain.Segment, len(segments))
	copy(out, segments)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// silences counts gaps between consecutive segments longer than the
// configured threshold.
func (c *Calculator) silences(segments []domain.Segment) (int, float64) {
	count := 0
	total := 0.0
	for i := 1; i < len(segments); i++ {
		gap := segments[i].Start - segments[i-1].End
		if gap > c.silenceGap {
			count++
			total += gap
		}
	}
	return count, total
}

// interruptionCount counts segment pairs where a different speaker starts
// before the previous speaker finished.
func interruptionCount(segments []domain.Segment) int {
	count := 0
	for i := 1; i < len(segments); i++ {
		prev, cur := segments[i-1], segments[i]
		if cur.Speaker != prev.Speaker && cur.Start < prev.End {
			count++
		}
	}
	return count
}

// agentTalkShare returns the agent's share of total talk time. The agent
// channel is the one labeled agent/operator, or the first speaker heard
// when the ASR engine uses anonymous labels.
func agentTalkShare(segments []domain.Segment) float64 {
	if len(segments) == 0 {
		return 0
	}
	agent := segments[0].Speaker
	for _, seg := range segments {
		label := strings.ToLower(seg.Speaker)
		if label == "agent" || label == "operator" {
			agent = seg.Speaker
			break
		}
	}
	var agentTime, total float64
	for _, seg := range segments {
		span := seg.End - seg.Start
		if span <= 0 {
			continue
		}
		total += span
		if seg.Speaker == agent {
			agentTime += span
		}
	}
	if total == 0 {
		return 0
	}
	return agentTime / total
}

func clampRatio(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
