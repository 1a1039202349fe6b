package httpadapter

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/proofpack-health/internal/config"
	"github.com/kirillkom/proofpack-health/internal/core/domain"
	"github.com/kirillkom/proofpack-health/internal/core/packhealth"
	"github.com/kirillkom/proofpack-health/internal/core/usecase"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type ingestFake struct {
	err      error
	uploads  []domain.EvidenceUpload
	received []string
}

func (f *ingestFake) Upload(_ context.Context, upload domain.EvidenceUpload, body io.Reader) (*domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	f.uploads = append(f.uploads, upload)
	f.received = append(f.received, string(raw))
	return &domain.Document{
		ID:             "doc-1",
		ProfileID:      upload.ProfileID,
		FileName:       upload.FileName,
		Category:       upload.Category,
		MimeType:       upload.MimeType,
		FileSize:       int64(len(raw)),
		ExpirationDate: upload.ExpirationDate,
		UploadedAt:     testNow,
	}, nil
}

type docsFake struct {
	err error
}

func (f docsFake) GetByID(_ context.Context, id string) (*domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Document{ID: id, FileName: "iso.pdf", Category: "Certifications", UploadedAt: testNow}, nil
}

type evaluatorFake struct {
	engine *packhealth.Engine
	err    error

	evaluatedAt []time.Time
	latest      *domain.ScoreSnapshot
	docs        []domain.Document
}

func newEvaluatorFake() *evaluatorFake {
	engine, err := packhealth.NewEngine(packhealth.DefaultConfig(), packhealth.WithClock(packhealth.FixedClock(testNow)))
	if err != nil {
		panic(err)
	}
	return &evaluatorFake{engine: engine}
}

func (f *evaluatorFake) Evaluate(ctx context.Context, profileID string, asOf time.Time) (*domain.PackHealthReport, error) {
	f.evaluatedAt = append(f.evaluatedAt, asOf)
	return f.Report(ctx, profileID, asOf)
}

func (f *evaluatorFake) Latest(context.Context, string) (*domain.ScoreSnapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.latest == nil {
		return nil, domain.WrapError(domain.ErrScoreNotFound, "latest score", domain.ErrScoreNotFound)
	}
	return f.latest, nil
}

func (f *evaluatorFake) Report(_ context.Context, profileID string, asOf time.Time) (*domain.PackHealthReport, error) {
	if f.err != nil {
		return nil, f.err
	}
	engine := f.engine
	if !asOf.IsZero() {
		engine = engine.At(asOf)
	}
	report, err := engine.Evaluate(f.docs, nil)
	if err != nil {
		return nil, err
	}
	report.ProfileID = profileID
	return &report, nil
}

func (f *evaluatorFake) Preview(docs []domain.Document, gaps []domain.GapItem, asOf time.Time) (*domain.PackHealthReport, error) {
	engine := f.engine
	if !asOf.IsZero() {
		engine = engine.At(asOf)
	}
	return usecase.PreviewPackHealth(engine, docs, gaps)
}

type gapsFake struct {
	calls []string
}

func (f *gapsFake) UpdateStatus(_ context.Context, profileID, gapID string, status domain.GapStatus) error {
	if err := domain.ValidateGapStatusChange(gapID, status); err != nil {
		return err
	}
	f.calls = append(f.calls, profileID+"/"+gapID+"="+string(status))
	return nil
}

type routerDeps struct {
	ingest    *ingestFake
	evaluator *evaluatorFake
	gaps      *gapsFake
}

func newTestRouter(cfg config.Config, opts ...RouterOption) (*Router, routerDeps) {
	deps := routerDeps{
		ingest:    &ingestFake{},
		evaluator: newEvaluatorFake(),
		gaps:      &gapsFake{},
	}
	return NewRouter(cfg, deps.ingest, docsFake{}, deps.evaluator, deps.gaps, opts...), deps
}
