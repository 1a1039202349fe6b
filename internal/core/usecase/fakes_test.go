package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/kirillkom/proofpack-health/internal/core/domain"
	"github.com/kirillkom/proofpack-health/internal/core/packhealth"
)

var fixedNow = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

func newEngine() *packhealth.Engine {
	engine, err := packhealth.NewEngine(packhealth.DefaultConfig(), packhealth.WithClock(packhealth.FixedClock(fixedNow)))
	if err != nil {
		panic(err)
	}
	return engine
}

type docRepoFake struct {
	mu      sync.Mutex
	docs    []domain.Document
	created *domain.Document
	listErr error
	err     error
}

func (f *docRepoFake) Create(_ context.Context, doc *domain.Document) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	copyDoc := *doc
	f.created = &copyDoc
	f.docs = append(f.docs, copyDoc)
	return nil
}

func (f *docRepoFake) GetByID(_ context.Context, id string) (*domain.Document, error) {
	for _, doc := range f.docs {
		if doc.ID == id {
			d := doc
			return &d, nil
		}
	}
	return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", errors.New(id))
}

func (f *docRepoFake) ListByProfile(_ context.Context, profileID string) ([]domain.Document, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]domain.Document, 0, len(f.docs))
	for _, doc := range f.docs {
		if doc.ProfileID == profileID {
			out = append(out, doc)
		}
	}
	return out, nil
}

type gapRepoFake struct {
	statuses map[string]domain.GapStatus
	setErr   error
	lastSet  string
}

func (f *gapRepoFake) ListGapStatuses(context.Context, string) (map[string]domain.GapStatus, error) {
	out := make(map[string]domain.GapStatus, len(f.statuses))
	for k, v := range f.statuses {
		out[k] = v
	}
	return out, nil
}

func (f *gapRepoFake) SetGapStatus(_ context.Context, _ string, gapID string, status domain.GapStatus) error {
	if f.setErr != nil {
		return f.setErr
	}
	if f.statuses == nil {
		f.statuses = make(map[string]domain.GapStatus)
	}
	f.statuses[gapID] = status
	f.lastSet = gapID
	return nil
}

type scoreRepoFake struct {
	saved   []domain.ScoreSnapshot
	saveErr error
}

func (f *scoreRepoFake) SaveScore(_ context.Context, snapshot *domain.ScoreSnapshot) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, *snapshot)
	return nil
}

func (f *scoreRepoFake) LatestScore(_ context.Context, profileID string) (*domain.ScoreSnapshot, error) {
	for i := len(f.saved) - 1; i >= 0; i-- {
		if f.saved[i].ProfileID == profileID {
			s := f.saved[i]
			return &s, nil
		}
	}
	return nil, domain.WrapError(domain.ErrScoreNotFound, "latest score", errors.New(profileID))
}

type storageFake struct {
	savedKey   string
	savedBody  string
	deletedKey string
	err        error
	deleteErr  error
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.err != nil {
		return f.err
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.savedKey = key
	f.savedBody = string(raw)
	return nil
}

func (f *storageFake) Open(context.Context, string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(f.savedBody)), nil
}

func (f *storageFake) Delete(_ context.Context, key string) error {
	f.deletedKey = key
	return f.deleteErr
}

type queueFake struct {
	profileIDs []string
	err        error
}

func (f *queueFake) PublishRescoreRequested(_ context.Context, profileID string) error {
	if f.err != nil {
		return f.err
	}
	f.profileIDs = append(f.profileIDs, profileID)
	return nil
}

func (f *queueFake) SubscribeRescoreRequested(context.Context, func(context.Context, string) error) error {
	return errors.New("not implemented")
}

type eventsFake struct {
	events []domain.EligibilityChanged
	err    error
}

func (f *eventsFake) PublishEligibilityChanged(_ context.Context, event domain.EligibilityChanged) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

type extractorFake struct {
	text string
	err  error
}

func (f *extractorFake) Extract(context.Context, *domain.Document) (string, error) {
	return f.text, f.err
}

type classifierFake struct {
	category string
	gotText  string
	err      error
}

func (f *classifierFake) Classify(_ context.Context, _ string, text string) (string, error) {
	f.gotText = text
	return f.category, f.err
}

type observerFake struct {
	reports []domain.PackHealthReport
}

func (f *observerFake) ObserveEvaluation(report domain.PackHealthReport) {
	f.reports = append(f.reports, report)
}

func packDocument(id, profileID, category string) domain.Document {
	return domain.Document{
		ID:         id,
		ProfileID:  profileID,
		FileName:   id + "-evidence.pdf",
		Category:   category,
		UploadedAt: fixedNow.Add(-time.Hour),
		Metadata:   domain.DocumentMetadata{DocumentType: category + " record"},
	}
}

func fullProfilePack(profileID string) []domain.Document {
	docs := make([]domain.Document, 0, 7)
	for _, category := range packhealth.DefaultRequiredCategories() {
		docs = append(docs, packDocument("doc-"+domain.SnakeCase(category), profileID, category))
	}
	return docs
}
