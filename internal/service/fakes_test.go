package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"slices"
	"testing"
	"time"

	"osld-portal/internal/appeal"
	"osld-portal/internal/deadline"
	"osld-portal/internal/email"
	"osld-portal/internal/models"
	"osld-portal/internal/repository"
	"osld-portal/internal/storage"
)

type memEvents struct {
	rows           map[uint]*models.Event
	nextID         uint
	overrideWrites int
}

func (m *memEvents) Create(_ context.Context, e *models.Event) error {
	m.nextID++
	e.ID = m.nextID
	cp := *e
	m.rows[e.ID] = &cp
	return nil
}

func (m *memEvents) GetByID(_ context.Context, id uint) (*models.Event, error) {
	e, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (m *memEvents) List(_ context.Context, filter models.EventFilter) ([]models.Event, error) {
	var out []models.Event
	for id := uint(1); id <= m.nextID; id++ {
		e, ok := m.rows[id]
		if !ok {
			continue
		}
		if len(filter.TargetOrganizations) > 0 && !slices.Contains(filter.TargetOrganizations, e.TargetOrganization) {
			continue
		}
		out = append(out, *e)
	}
	return out, nil
}

func (m *memEvents) Update(_ context.Context, e *models.Event) error {
	old, ok := m.rows[e.ID]
	if !ok {
		return sql.ErrNoRows
	}
	cp := *e
	cp.AccomplishmentDeadlineOverride = old.AccomplishmentDeadlineOverride
	cp.LiquidationDeadlineOverride = old.LiquidationDeadlineOverride
	m.rows[e.ID] = &cp
	return nil
}

func (m *memEvents) SetDeadlineOverride(_ context.Context, id uint, kind models.ReportKind, date time.Time) error {
	e, ok := m.rows[id]
	if !ok {
		return sql.ErrNoRows
	}
	m.overrideWrites++
	switch kind {
	case models.ReportAccomplishment:
		e.AccomplishmentDeadlineOverride = &date
	case models.ReportLiquidation:
		e.LiquidationDeadlineOverride = &date
	}
	return nil
}

func (m *memEvents) Delete(_ context.Context, id uint) error {
	if _, ok := m.rows[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.rows, id)
	return nil
}

type memSubmissions struct {
	rows      []models.Submission
	failWith  error
	now       func() time.Time
	lastIDSet uint
}

func (m *memSubmissions) Create(_ context.Context, s *models.Submission) error {
	if m.failWith != nil {
		return m.failWith
	}
	m.lastIDSet++
	s.ID = m.lastIDSet
	s.SubmittedAt = m.now()
	m.rows = append(m.rows, *s)
	return nil
}

func (m *memSubmissions) GetByID(_ context.Context, id uint) (*models.Submission, error) {
	for i := range m.rows {
		if m.rows[i].ID == id {
			cp := m.rows[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memSubmissions) List(_ context.Context, f models.SubmissionFilter) ([]models.Submission, error) {
	var out []models.Submission
	for _, s := range m.rows {
		if f.Organization != "" && s.Organization != f.Organization {
			continue
		}
		if f.SubmittedTo != "" && s.SubmittedTo != f.SubmittedTo {
			continue
		}
		if f.Type != "" && s.Type != f.Type {
			continue
		}
		if f.EventID != nil && (s.EventID == nil || *s.EventID != *f.EventID) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (m *memSubmissions) UpdateStatus(_ context.Context, id uint, status models.SubmissionStatus, reason *string) error {
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows[i].Status = status
			m.rows[i].RevisionReason = reason
			return nil
		}
	}
	return sql.ErrNoRows
}

type memNotifications struct {
	rows  []models.Notification
	reads map[uint][]string
	now   func() time.Time
}

func (m *memNotifications) Create(_ context.Context, n *models.Notification) error {
	n.ID = uint(len(m.rows) + 1)
	n.CreatedAt = m.now()
	m.rows = append(m.rows, *n)
	return nil
}

func (m *memNotifications) ListForOrganization(_ context.Context, reader string, targets []string) ([]models.NotificationWithReadStatus, error) {
	var out []models.NotificationWithReadStatus
	for i := len(m.rows) - 1; i >= 0; i-- {
		n := m.rows[i]
		if !slices.Contains(targets, n.TargetOrg) {
			continue
		}
		out = append(out, models.NotificationWithReadStatus{
			Notification: n,
			Read:         slices.Contains(m.reads[n.ID], reader),
		})
	}
	return out, nil
}

func (m *memNotifications) GetByID(_ context.Context, id uint) (*models.Notification, error) {
	for i := range m.rows {
		if m.rows[i].ID == id {
			cp := m.rows[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memNotifications) MarkRead(_ context.Context, id uint, reader string) error {
	if !slices.Contains(m.reads[id], reader) {
		m.reads[id] = append(m.reads[id], reader)
	}
	return nil
}

func (m *memNotifications) ExistsSince(_ context.Context, eventID uint, kind models.ReportKind, target string, since time.Time) (bool, error) {
	for _, n := range m.rows {
		if n.EventID != nil && *n.EventID == eventID && n.ReportKind != nil && *n.ReportKind == kind &&
			n.TargetOrg == target && !n.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

// reminders returns the reminder rows for (event, kind, target)
func (m *memNotifications) reminders(eventID uint, kind models.ReportKind, target string) int {
	count := 0
	for _, n := range m.rows {
		if n.EventID != nil && *n.EventID == eventID && n.ReportKind != nil && *n.ReportKind == kind && n.TargetOrg == target {
			count++
		}
	}
	return count
}

type memOrganizations map[string]models.Organization

func (m memOrganizations) GetByCode(_ context.Context, code string) (*models.Organization, error) {
	org, ok := m[code]
	if !ok {
		return nil, nil
	}
	return &org, nil
}

func (m memOrganizations) List(_ context.Context) ([]models.Organization, error) {
	out := make([]models.Organization, 0, len(m))
	for _, org := range m {
		out = append(out, org)
	}
	slices.SortFunc(out, func(a, b models.Organization) int {
		if a.Code < b.Code {
			return -1
		}
		if a.Code > b.Code {
			return 1
		}
		return 0
	})
	return out, nil
}

func (m memOrganizations) ListChildren(_ context.Context, parent string) ([]models.Organization, error) {
	var out []models.Organization
	for _, org := range m {
		if org.ParentCode != nil && *org.ParentCode == parent {
			out = append(out, org)
		}
	}
	return out, nil
}

type memAccounts struct {
	rows      map[string]*models.Account
	lastLogin []uint
}

func (m *memAccounts) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	a, ok := m.rows[email]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	return a, nil
}

func (m *memAccounts) UpdateLastLogin(_ context.Context, id uint) error {
	m.lastLogin = append(m.lastLogin, id)
	return nil
}

type memAudit struct {
	rows []models.AuditLog
}

func (m *memAudit) Create(_ context.Context, log *models.AuditLog) error {
	m.rows = append(m.rows, *log)
	return nil
}

func (m *memAudit) List(_ context.Context, _ models.AuditLogFilter) ([]models.AuditLog, error) {
	return m.rows, nil
}

type memDocuments struct {
	files   map[string][]byte
	deleted []string
	failErr error
}

func (m *memDocuments) Upload(_ context.Context, r io.Reader, name string) (*storage.StoredFile, error) {
	if m.failErr != nil {
		return nil, m.failErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	m.files[name] = data
	return &storage.StoredFile{
		URL:      "https://res.cloudinary.com/demo/raw/upload/" + name,
		ObjectID: storage.EncodeObjectID("raw", name),
	}, nil
}

func (m *memDocuments) Delete(_ context.Context, objectID string) error {
	m.deleted = append(m.deleted, objectID)
	return nil
}

type sentMail struct {
	kind string
	to   string
	mail email.DeadlineMail
}

type fakeMailer struct {
	sent []sentMail
}

func (f *fakeMailer) Enabled() bool { return true }

func (f *fakeMailer) SendDeadlineReminder(to string, m email.DeadlineMail) error {
	f.sent = append(f.sent, sentMail{"reminder", to, m})
	return nil
}

func (f *fakeMailer) SendAppealSubmitted(to string, m email.DeadlineMail) error {
	f.sent = append(f.sent, sentMail{"submitted", to, m})
	return nil
}

func (f *fakeMailer) SendAppealApproved(to string, m email.DeadlineMail) error {
	f.sent = append(f.sent, sentMail{"approved", to, m})
	return nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func strPtr(s string) *string { return &s }

// harness wires every service to in-memory stores
type harness struct {
	now time.Time

	events        *memEvents
	submissions   *memSubmissions
	notifications *memNotifications
	orgs          memOrganizations
	audit         *memAudit
	documents     *memDocuments
	mailer        *fakeMailer

	deadlineSvc     *DeadlineService
	notifierSvc     *NotifierService
	overrideSvc     *OverrideService
	eventSvc        *EventService
	submissionSvc   *SubmissionService
	notificationSvc *NotificationService
}

func newHarness(t *testing.T, now time.Time) *harness {
	t.Helper()

	h := &harness{
		now:    now,
		events: &memEvents{rows: map[uint]*models.Event{}},
		orgs: memOrganizations{
			"OSLD": {Code: "OSLD", Name: "Office of Student Leadership", Kind: models.KindOffice, ContactEmail: "osld@school.edu"},
			"USG":  {Code: "USG", Name: "University Student Government", Kind: models.KindStudentGovernment, ContactEmail: "usg@school.edu"},
			"LSG":  {Code: "LSG", Name: "Local Student Government", Kind: models.KindCouncil, ParentCode: strPtr("USG")},
			"CSC":  {Code: "CSC", Name: "Computer Science Club", Kind: models.KindAccredited, ContactEmail: "csc@school.edu"},
			"JPIA": {Code: "JPIA", Name: "Junior Accountants", Kind: models.KindAccredited},
		},
		audit:     &memAudit{},
		documents: &memDocuments{files: map[string][]byte{}},
		mailer:    &fakeMailer{},
	}
	clock := func() time.Time { return h.now }
	h.submissions = &memSubmissions{now: clock}
	h.notifications = &memNotifications{reads: map[uint][]string{}, now: clock}

	resolver := appeal.NewResolver(h.submissions, h.notifications, h.orgs).WithClock(clock)
	auditSvc := NewAuditService(h.audit)

	h.deadlineSvc = NewDeadlineService(h.events, h.orgs, deadline.NewProjector(deadline.DefaultPolicy()), resolver, "OSLD")
	h.notifierSvc = NewNotifierService(h.deadlineSvc, h.submissions, h.notifications, h.orgs, h.documents, h.mailer)
	h.overrideSvc = NewOverrideService(h.events, h.submissions, h.notifications, h.orgs, auditSvc, h.mailer)
	h.eventSvc = NewEventService(h.events, h.orgs, auditSvc)
	h.submissionSvc = NewSubmissionService(h.deadlineSvc, h.submissions, h.notifications, h.documents, auditSvc)
	h.notificationSvc = NewNotificationService(h.notifications)
	return h
}

func (h *harness) viewer(t *testing.T, code string) deadline.Viewer {
	t.Helper()
	v, err := h.deadlineSvc.Viewer(context.Background(), code)
	if err != nil {
		t.Fatalf("Viewer(%s) failed: %v", code, err)
	}
	return v
}

func (h *harness) addEvent(t *testing.T, title, target string, end time.Time, accomplishment, liquidation bool) *models.Event {
	t.Helper()
	e := &models.Event{
		Title:                  title,
		StartDate:              end,
		EndDate:                &end,
		AllDay:                 true,
		TargetOrganization:     target,
		RequiresAccomplishment: accomplishment,
		RequiresLiquidation:    liquidation,
		CreatedBy:              "OSLD",
	}
	if err := h.events.Create(context.Background(), e); err != nil {
		t.Fatalf("failed to create event: %v", err)
	}
	return e
}

func (h *harness) state(t *testing.T, viewer string, eventID uint, kind models.ReportKind) *appeal.Resolution {
	t.Helper()
	res, err := h.deadlineSvc.State(context.Background(), h.viewer(t, viewer), eventID, kind)
	if err != nil {
		t.Fatalf("State failed: %v", err)
	}
	return res
}

func letter() io.Reader {
	return bytes.NewReader([]byte("%PDF-1.4 appeal"))
}

func isValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
