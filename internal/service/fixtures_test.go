package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/campusdesk/complaint-service/internal/domain"
	"github.com/campusdesk/complaint-service/internal/observability"
	"github.com/campusdesk/complaint-service/internal/repository"
)

var baseTime = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type notification struct {
	kind      string
	complaint string
	detail    string
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notification
}

func (n *recordingNotifier) record(kind string, c *domain.Complaint, detail string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, notification{kind: kind, complaint: c.ID, detail: detail})
}

func (n *recordingNotifier) NotifyCreated(_ context.Context, c *domain.Complaint) {
	n.record("created", c, "")
}

func (n *recordingNotifier) NotifyStatusChanged(_ context.Context, c *domain.Complaint, old domain.ComplaintStatus, _, _ string) {
	n.record("status", c, string(old)+"->"+string(c.Status))
}

func (n *recordingNotifier) NotifyEscalated(_ context.Context, c *domain.Complaint, reason string) {
	n.record("escalated", c, reason)
}

func (n *recordingNotifier) NotifyAssigned(_ context.Context, c *domain.Complaint, staff *domain.User, _ string) {
	n.record("assigned", c, staff.ID)
}

func (n *recordingNotifier) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.kind)
	}
	return out
}

type recordingWatcher struct {
	mu      sync.Mutex
	watched map[string]time.Time
}

func (w *recordingWatcher) WatchDeadline(id string, at time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watched == nil {
		w.watched = map[string]time.Time{}
	}
	w.watched[id] = at
}

// failingComplaints rejects writes for the listed complaint ids.
type failingComplaints struct {
	repository.ComplaintRepository
	fail map[string]bool
}

func (f failingComplaints) ApplyUpdate(ctx context.Context, update repository.ComplaintUpdate) error {
	if f.fail[update.Complaint.ID] {
		return errors.New("write failed")
	}
	return f.ComplaintRepository.ApplyUpdate(ctx, update)
}

type fixture struct {
	store    *repository.MemoryStore
	clock    *fakeClock
	notifier *recordingNotifier
	metrics  *observability.Metrics
	category *domain.Category
	svc      *ComplaintService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    repository.NewMemoryStore(),
		clock:    &fakeClock{now: baseTime},
		notifier: &recordingNotifier{},
		metrics:  observability.NewMetrics(),
	}
	f.category = f.addCategory(t, "Facilities", "Maintenance", 24)
	f.svc = f.complaintService(f.store.Complaints())
	return f
}

func (f *fixture) complaintService(repo repository.ComplaintRepository) *ComplaintService {
	return NewComplaintService(ComplaintDependencies{
		ComplaintRepo: repo,
		CategoryRepo:  f.store.Categories(),
		Notifier:      f.notifier,
		Metrics:       f.metrics,
		Clock:         f.clock.Now,
	})
}

func (f *fixture) addCategory(t *testing.T, name, department string, hours int) *domain.Category {
	t.Helper()
	cat := &domain.Category{Name: name, Department: department, ResolutionTimeHours: hours, IsActive: true}
	require.NoError(t, f.store.Categories().Create(context.Background(), cat))
	return cat
}

func (f *fixture) addUser(t *testing.T, name string, role domain.UserRole, department string, offset time.Duration) *domain.User {
	t.Helper()
	u := &domain.User{
		Name:       name,
		Email:      name + "@example.com",
		Role:       role,
		Department: department,
		Active:     true,
		CreatedAt:  baseTime.Add(offset),
	}
	require.NoError(t, f.store.Users().Create(context.Background(), u))
	return u
}

// seed stores a complaint directly, bypassing Create.
func (f *fixture) seed(t *testing.T, mutate func(*domain.Complaint)) *domain.Complaint {
	t.Helper()
	now := f.clock.Now()
	c := &domain.Complaint{
		TicketRef:   generateTicketRef(),
		Title:       "Broken heater",
		CategoryID:  f.category.ID,
		SubmitterID: "submitter-1",
		Priority:    domain.PriorityMedium,
		Status:      domain.StatusSubmitted,
		Deadline:    now.Add(24 * time.Hour),
		CreatedAt:   now,
		StatusHistory: []domain.StatusEntry{{
			Status: domain.StatusSubmitted, Timestamp: now, Actor: "submitter-1",
		}},
	}
	if mutate != nil {
		mutate(c)
	}
	require.NoError(t, f.store.Complaints().Create(context.Background(), c))
	return c
}

func (f *fixture) reload(t *testing.T, id string) *domain.Complaint {
	t.Helper()
	c, err := f.store.Complaints().GetByID(context.Background(), id)
	require.NoError(t, err)
	return c
}

func strPtr(s string) *string { return &s }
