// Package pipeline drives one call through the audit stages in order:
// transcription, sentiment, QA compliance, KPIs, pattern detection and the
// risk assessment. Transcription is the only fatal stage; any later stage
// that fails is recorded as an error finding and the run continues degraded.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"call-audit-go/internal/asr"
	"call-audit-go/internal/domain"
	"call-audit-go/internal/kpi"
	"call-audit-go/internal/logger"
	"call-audit-go/internal/pattern"
	"call-audit-go/internal/qa"
	"call-audit-go/internal/risk"
	"call-audit-go/internal/ruleset"
	"call-audit-go/internal/sentiment"
)

const (
	// DefaultTranscribeTimeout bounds the ASR stage, which waits on an
	// external service.
	DefaultTranscribeTimeout = 3 * time.Minute
	// DefaultStageTimeout bounds every local analysis stage.
	DefaultStageTimeout = 30 * time.Second
)

// Options tune the orchestrator without changing its wiring.
type Options struct {
	TranscribeTimeout time.Duration
	StageTimeout      time.Duration
	// UserID selects the active ruleset scope. Empty selects the global
	// ruleset.
	UserID string
}

// Orchestrator owns the stage sequence for a single call. Safe for
// concurrent use: per-call state lives in the run, not the struct.
type Orchestrator struct {
	asrEngine asr.Engine
	analyzer  sentiment.Analyzer
	qaEngine  *qa.Engine
	kpiCalc   *kpi.Calculator
	detector  *pattern.Detector
	riskEng   *risk.Engine
	rulesets  *ruleset.Store
	opts      Options
	log       *logger.Logger
}

// New wires an orchestrator from its stage engines.
func New(engine asr.Engine, analyzer sentiment.Analyzer, rulesets *ruleset.Store, opts Options) *Orchestrator {
	if opts.TranscribeTimeout <= 0 {
		opts.TranscribeTimeout = DefaultTranscribeTimeout
	}
	if opts.StageTimeout <= 0 {
		opts.StageTimeout = DefaultStageTimeout
	}
	return &Orchestrator{
		asrEngine: engine,
		analyzer:  analyzer,
		qaEngine:  qa.NewEngine(),
		kpiCalc:   kpi.NewCalculator(kpi.DefaultSilenceGapSeconds),
		detector:  pattern.NewDetector(),
		riskEng:   risk.NewEngine(),
		rulesets:  rulesets,
		opts:      opts,
		log:       logger.New(),
	}
}

// run carries the intermediate outputs between stages of one call.
type run struct {
	call       *domain.Call
	transcript domain.Transcript
	findings   []domain.Finding
	metrics    []domain.Metric
	riskResult *domain.RiskAssessment
	sentiment  *sentiment.Result
	qaScore    *float64
	completed  []string
}

// stage is one pipeline step. A fatal stage aborts the call on error;
// non-fatal failures degrade to an error finding.
type stage struct {
	name    string
	status  domain.CallStatus
	fatal   bool
	timeout time.Duration
	enabled func(domain.AnalysisDepth) bool
	exec    func(ctx context.Context, r *run) error
}

func always(domain.AnalysisDepth) bool         { return true }
func standardUp(d domain.AnalysisDepth) bool   { return d.IncludesStandard() }
func advancedOnly(d domain.AnalysisDepth) bool { return d.IncludesAdvanced() }

func (o *Orchestrator) stages() []stage {
	return []stage{
		{name: "transcription", status: domain.StatusTranscribing, fatal: true, timeout: o.opts.TranscribeTimeout, enabled: always, exec: o.runTranscription},
		{name: "sentiment", status: domain.StatusSentiment, timeout: o.opts.StageTimeout, enabled: standardUp, exec: o.runSentiment},
		{name: "qa", status: domain.StatusQA, timeout: o.opts.StageTimeout, enabled: standardUp, exec: o.runQA},
		{name: "kpi", status: domain.StatusKPI, timeout: o.opts.StageTimeout, enabled: standardUp, exec: o.runKPI},
		{name: "pattern", status: domain.StatusPattern, timeout: o.opts.StageTimeout, enabled: advancedOnly, exec: o.runPattern},
		{name: "risk", status: domain.StatusRiskAssessing, timeout: o.opts.StageTimeout, enabled: always, exec: o.runRisk},
	}
}

// Process runs the full stage sequence for one call and always returns a
// result, even when the call fails. The returned call status is terminal.
func (o *Orchestrator) Process(ctx context.Context, call *domain.Call) *domain.AuditResult {
	start := time.Now()
	log := o.log.WithCall(call.ID, call.Filename)
	log.WithField("depth", call.Depth).Info("audit started")

	r := &run{call: call}
	for _, st := range o.stages() {
		if !st.enabled(call.Depth) {
			continue
		}
		if err := ctx.Err(); err != nil {
			call.SetFailed(fmt.Sprintf("audit cancelled before %s: %v", st.name, err))
			break
		}

		call.Status = st.status
		stageCtx, cancel := context.WithTimeout(ctx, st.timeout)
		err := st.exec(stageCtx, r)
		cancel()

		if err == nil {
			r.completed = append(r.completed, st.name)
			continue
		}
		if st.fatal {
			log.WithField("stage", st.name).WithField("error", err.Error()).Error("fatal stage failed")
			call.SetFailed(fmt.Sprintf("%s failed: %v", st.name, err))
			break
		}
		log.WithField("stage", st.name).WithField("error", err.Error()).Warn("stage failed, continuing degraded")
		r.findings = append(r.findings, stageErrorFinding(st.name, err))
	}

	if !call.Status.IsTerminal() {
		call.Status = domain.StatusCompleted
	}

	result := o.buildResult(r, time.Since(start))
	log.WithField("status", call.Status).
		WithField("findings", len(result.Findings)).
		WithField("elapsed_s", result.ProcessingTimeSeconds).
		Info("audit finished")
	return result
}

func (o *Orchestrator) buildResult(r *run, elapsed time.Duration) *domain.AuditResult {
	result := &domain.AuditResult{
		Call:                  r.call,
		Transcript:            r.transcript,
		Findings:              r.findings,
		Metrics:               r.metrics,
		Risk:                  r.riskResult,
		StagesCompleted:       r.completed,
		ProcessingTimeSeconds: elapsed.Seconds(),
		GeneratedAt:           time.Now().UTC(),
	}
	if r.sentiment != nil {
		result.SentimentLabel = r.sentiment.Label
		result.SentimentConfidence = r.sentiment.Confidence
	}
	return result
}

func (o *Orchestrator) runTranscription(ctx context.Context, r *run) error {
	t, err := o.asrEngine.Transcribe(ctx, r.call.AudioPath)
	if err != nil {
		return err
	}
	if t.IsEmpty() {
		return fmt.Errorf("%w: empty transcript", asr.ErrTranscriptionFailed)
	}
	r.transcript = t
	r.call.DurationSeconds = t.Duration
	return nil
}

func (o *Orchestrator) runSentiment(ctx context.Context, r *run) error {
	res, err := o.analyzer.Analyze(ctx, r.transcript.Text)
	if err != nil {
		return err
	}
	r.sentiment = &res
	if res.IsNegative() {
		r.findings = append(r.findings, domain.Finding{
			Category:    domain.CategorySentiment,
			Severity:    domain.SeverityMedium,
			Title:       "Sentimiento negativo",
			Description: fmt.Sprintf("Sentimiento %s con confianza %.2f.", res.Label, res.Confidence),
		})
	}
	return nil
}

func (o *Orchestrator) runQA(_ context.Context, r *run) error {
	score, findings := o.qaEngine.Evaluate(r.transcript.Text)
	r.qaScore = &score
	r.findings = append(r.findings, findings...)

	min, target := domain.Thresholds(domain.DefaultPassThreshold, 90)
	m, err := domain.NewMetric(domain.QAScoreMetric, score, domain.MetricPercentage, domain.MetricQuality, "%", min, target)
	if err != nil {
		return err
	}
	r.metrics = append(r.metrics, m)
	return nil
}

func (o *Orchestrator) runKPI(_ context.Context, r *run) error {
	r.metrics = append(r.metrics, o.kpiCalc.Compute(r.transcript)...)
	return nil
}

func (o *Orchestrator) runPattern(_ context.Context, r *run) error {
	extra := o.detector.Detect(pattern.Input{
		Transcript: r.transcript,
		Metrics:    r.metrics,
		Sentiment:  r.sentiment,
		QAScore:    r.qaScore,
	})
	r.findings = append(r.findings, extra...)
	return nil
}

func (o *Orchestrator) runRisk(_ context.Context, r *run) error {
	if o.rulesets == nil {
		return errors.New("no ruleset store configured")
	}
	rs := o.rulesets.ActiveFor(o.opts.UserID)
	assessment := o.riskEng.Assess(r.transcript.Text, rs)
	r.riskResult = &assessment

	if assessment.Severity.Rank() >= domain.SeverityMedium.Rank() {
		f := domain.Finding{
			Category:    domain.CategoryRisk,
			Severity:    assessment.Severity,
			Title:       "Riesgo detectado por reglas",
			Description: fmt.Sprintf("Puntaje de riesgo %.2f con la regla %s v%d.", assessment.RawScore, assessment.RulesetID, assessment.RulesetVersion),
			Evidence:    riskEvidence(&assessment),
		}
		if f.Severity == domain.SeverityCritical {
			f.Recommendation = "Escalar la llamada al área legal y de retención hoy mismo."
		}
		r.findings = append(r.findings, f)
	}

	if r.call.Depth.IncludesAdvanced() {
		if f, ok := o.detector.CorrelateRisk(r.riskResult, r.sentiment); ok {
			r.findings = append(r.findings, f)
		}
	}
	return nil
}

func riskEvidence(a *domain.RiskAssessment) string {
	if len(a.MatchedKeywords) == 0 {
		return ""
	}
	evidence := ""
	for i, m := range a.MatchedKeywords {
		if i > 0 {
			evidence += "; "
		}
		evidence += fmt.Sprintf("%s x%d", m.Keyword, m.Occurrences)
	}
	return evidence
}

func stageErrorFinding(name string, err error) domain.Finding {
	severity := domain.SeverityMedium
	if errors.Is(err, context.DeadlineExceeded) {
		severity = domain.SeverityHigh
	}
	return domain.Finding{
		Category:    domain.CategoryError,
		Severity:    severity,
		Title:       fmt.Sprintf("Etapa %s falló", name),
		Description: err.Error(),
	}
}
