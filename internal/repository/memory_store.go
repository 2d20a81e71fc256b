package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/campusdesk/complaint-service/internal/domain"
)

// MemoryStore is an in-process Record Store used when no database is
// configured and in tests. It mirrors the Postgres repositories, including
// pgx.ErrNoRows for missing records and compare-and-set updates.
type MemoryStore struct {
	mu         sync.RWMutex
	complaints map[string]*domain.Complaint
	categories map[string]*domain.Category
	users      map[string]*domain.User
	order      []string
	now        func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		complaints: make(map[string]*domain.Complaint),
		categories: make(map[string]*domain.Category),
		users:      make(map[string]*domain.User),
		now:        time.Now,
	}
}

// Complaints returns the complaint repository view.
func (s *MemoryStore) Complaints() ComplaintRepository { return memoryComplaints{s} }

// Categories returns the category repository view.
func (s *MemoryStore) Categories() CategoryRepository { return memoryCategories{s} }

// Users returns the user repository view.
func (s *MemoryStore) Users() UserRepository { return memoryUsers{s} }

// Reports returns the report repository view.
func (s *MemoryStore) Reports() ReportRepository { return memoryReports{s} }

type memoryComplaints struct{ s *MemoryStore }

func (m memoryComplaints) Create(ctx context.Context, complaint *domain.Complaint) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if complaint.ID == "" {
		complaint.ID = uuid.NewString()
	}
	if complaint.CreatedAt.IsZero() {
		complaint.CreatedAt = m.s.now()
	}
	complaint.UpdatedAt = complaint.CreatedAt
	m.s.complaints[complaint.ID] = complaint.Clone()
	m.s.order = append(m.s.order, complaint.ID)
	return nil
}

func (m memoryComplaints) GetByID(ctx context.Context, id string) (*domain.Complaint, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	c, ok := m.s.complaints[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return c.Clone(), nil
}

func (m memoryComplaints) GetByTicketRef(ctx context.Context, ref string) (*domain.Complaint, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	for _, c := range m.s.complaints {
		if c.TicketRef == ref {
			return c.Clone(), nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m memoryComplaints) List(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, error) {
	matched := m.s.selectComplaints(func(c *domain.Complaint) bool {
		if filter.SubmitterID != nil && c.SubmitterID != *filter.SubmitterID {
			return false
		}
		if filter.CategoryID != nil && c.CategoryID != *filter.CategoryID {
			return false
		}
		if filter.AssigneeID != nil && (c.AssigneeID == nil || *c.AssigneeID != *filter.AssigneeID) {
			return false
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, c.Status) {
			return false
		}
		if len(filter.Priorities) > 0 && !containsPriority(filter.Priorities, c.Priority) {
			return false
		}
		if filter.CreatedFrom != nil && c.CreatedAt.Before(*filter.CreatedFrom) {
			return false
		}
		if filter.CreatedTo != nil && c.CreatedAt.After(*filter.CreatedTo) {
			return false
		}
		return true
	})
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return []domain.Complaint{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (m memoryComplaints) ApplyUpdate(ctx context.Context, update ComplaintUpdate) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	current, ok := m.s.complaints[update.Complaint.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if !update.matches(current) {
		return ErrStaleComplaint
	}
	next := update.Complaint.Clone()
	next.StatusHistory = append(append([]domain.StatusEntry(nil), current.StatusHistory...), update.Appended...)
	next.UpdatedAt = m.s.now()
	update.Complaint.UpdatedAt = next.UpdatedAt
	m.s.complaints[next.ID] = next
	return nil
}

func (m memoryComplaints) UpdatePriority(ctx context.Context, id string, priority domain.ComplaintPriority) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	c, ok := m.s.complaints[id]
	if !ok {
		return pgx.ErrNoRows
	}
	c.Priority = priority
	c.UpdatedAt = m.s.now()
	return nil
}

func (m memoryComplaints) FindOverdueOpenUnescalated(ctx context.Context, now time.Time) ([]domain.Complaint, error) {
	matched := m.s.selectComplaints(func(c *domain.Complaint) bool {
		return c.Deadline.Before(now) && containsStatus(openStatuses, c.Status) && !c.Escalation.IsEscalated
	})
	sortByDeadline(matched)
	return matched, nil
}

func (m memoryComplaints) FindAtRisk(ctx context.Context, now, windowEnd time.Time) ([]domain.Complaint, error) {
	matched := m.s.selectComplaints(func(c *domain.Complaint) bool {
		return !c.Deadline.Before(now) && c.Deadline.Before(windowEnd) &&
			containsStatus(openStatuses, c.Status) && !c.Escalation.IsEscalated
	})
	sortByDeadline(matched)
	return matched, nil
}

func (m memoryComplaints) CountActiveAssignments(ctx context.Context, staffID string) (int, error) {
	return len(m.s.selectComplaints(func(c *domain.Complaint) bool {
		return c.AssigneeID != nil && *c.AssigneeID == staffID && containsStatus(activeAssignmentStatuses, c.Status)
	})), nil
}

func (m memoryComplaints) CountHighPriorityAssignments(ctx context.Context, staffID string) (int, error) {
	return len(m.s.selectComplaints(func(c *domain.Complaint) bool {
		return c.AssigneeID != nil && *c.AssigneeID == staffID &&
			containsStatus(activeAssignmentStatuses, c.Status) && c.Priority.IsHigh()
	})), nil
}

func (m memoryComplaints) CountByCategory(ctx context.Context, categoryID string) (int, error) {
	return len(m.s.selectComplaints(func(c *domain.Complaint) bool {
		return c.CategoryID == categoryID
	})), nil
}

// selectComplaints returns clones of matching complaints in insertion order.
func (s *MemoryStore) selectComplaints(match func(*domain.Complaint) bool) []domain.Complaint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []domain.Complaint{}
	for _, id := range s.order {
		c := s.complaints[id]
		if match(c) {
			result = append(result, *c.Clone())
		}
	}
	return result
}

type memoryCategories struct{ s *MemoryStore }

func (m memoryCategories) Create(ctx context.Context, category *domain.Category) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	now := m.s.now()
	category.CreatedAt = now
	category.UpdatedAt = now
	stored := *category
	m.s.categories[category.ID] = &stored
	return nil
}

func (m memoryCategories) Update(ctx context.Context, category *domain.Category) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	existing, ok := m.s.categories[category.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	category.CreatedAt = existing.CreatedAt
	category.UpdatedAt = m.s.now()
	stored := *category
	m.s.categories[category.ID] = &stored
	return nil
}

func (m memoryCategories) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	c, ok := m.s.categories[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := *c
	return &out, nil
}

func (m memoryCategories) List(ctx context.Context, activeOnly bool) ([]domain.Category, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	result := []domain.Category{}
	for _, c := range m.s.categories {
		if activeOnly && !c.IsActive {
			continue
		}
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m memoryCategories) Delete(ctx context.Context, id string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, ok := m.s.categories[id]; !ok {
		return pgx.ErrNoRows
	}
	for _, c := range m.s.complaints {
		if c.CategoryID == id {
			return ErrCategoryInUse
		}
	}
	delete(m.s.categories, id)
	return nil
}

type memoryUsers struct{ s *MemoryStore }

func (m memoryUsers) Create(ctx context.Context, user *domain.User) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = m.s.now()
	}
	user.UpdatedAt = user.CreatedAt
	stored := *user
	m.s.users[user.ID] = &stored
	return nil
}

func (m memoryUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	u, ok := m.s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := *u
	return &out, nil
}

func (m memoryUsers) FindEligibleStaff(ctx context.Context, department, generalDepartment string) ([]domain.User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	result := []domain.User{}
	for _, u := range m.s.users {
		if !u.CanBeAssigned() {
			continue
		}
		if u.Department == department || u.Department == generalDepartment || u.Role == domain.RoleAdmin {
			result = append(result, *u)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

type memoryReports struct{ s *MemoryStore }

func (m memoryReports) inWindow(window ReportWindow) []domain.Complaint {
	return m.s.selectComplaints(func(c *domain.Complaint) bool {
		return window.Contains(c.CreatedAt)
	})
}

func (m memoryReports) CountByStatus(ctx context.Context, window ReportWindow) (map[domain.ComplaintStatus]int, error) {
	result := make(map[domain.ComplaintStatus]int)
	for _, c := range m.inWindow(window) {
		result[c.Status]++
	}
	return result, nil
}

func (m memoryReports) CountByPriority(ctx context.Context, window ReportWindow) (map[domain.ComplaintPriority]int, error) {
	result := make(map[domain.ComplaintPriority]int)
	for _, c := range m.inWindow(window) {
		result[c.Priority]++
	}
	return result, nil
}

func (m memoryReports) CategoryBreakdown(ctx context.Context, window ReportWindow) ([]CategoryCounts, error) {
	complaints := m.inWindow(window)

	m.s.mu.RLock()
	rows := make([]CategoryCounts, 0, len(m.s.categories))
	index := make(map[string]int, len(m.s.categories))
	for _, cat := range m.s.categories {
		index[cat.ID] = len(rows)
		rows = append(rows, CategoryCounts{CategoryID: cat.ID, Name: cat.Name, Department: cat.Department})
	}
	m.s.mu.RUnlock()

	for _, c := range complaints {
		i, ok := index[c.CategoryID]
		if !ok {
			continue
		}
		rows[i].Total++
		if c.Status == domain.StatusResolved {
			rows[i].Resolved++
		}
		if c.Escalation.IsEscalated {
			rows[i].Escalated++
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Total == rows[j].Total {
			return rows[i].Name < rows[j].Name
		}
		return rows[i].Total > rows[j].Total
	})
	return rows, nil
}

func (m memoryReports) StaffBreakdown(ctx context.Context, window ReportWindow) ([]StaffCounts, error) {
	complaints := m.inWindow(window)

	rows := []StaffCounts{}
	index := map[string]int{}
	resolutionHours := map[string]float64{}

	m.s.mu.RLock()
	for _, c := range complaints {
		if c.AssigneeID == nil {
			continue
		}
		staff, ok := m.s.users[*c.AssigneeID]
		if !ok {
			continue
		}
		i, seen := index[staff.ID]
		if !seen {
			i = len(rows)
			index[staff.ID] = i
			rows = append(rows, StaffCounts{StaffID: staff.ID, Name: staff.Name, Department: staff.Department})
		}
		rows[i].Total++
		if c.Status == domain.StatusResolved {
			rows[i].Resolved++
			if c.ResolvedAt != nil {
				resolutionHours[staff.ID] += c.ResolvedAt.Sub(c.CreatedAt).Hours()
			}
		}
		if c.Escalation.IsEscalated {
			rows[i].Escalated++
		}
	}
	m.s.mu.RUnlock()

	for i := range rows {
		if rows[i].Resolved > 0 {
			rows[i].AvgResolutionHours = resolutionHours[rows[i].StaffID] / float64(rows[i].Resolved)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Total == rows[j].Total {
			return rows[i].Name < rows[j].Name
		}
		return rows[i].Total > rows[j].Total
	})
	return rows, nil
}

func (m memoryReports) Trend(ctx context.Context, granularity TrendGranularity, window ReportWindow) ([]TrendCounts, error) {
	buckets := map[time.Time]*TrendCounts{}
	bucket := func(t time.Time) *TrendCounts {
		key := granularity.Truncate(t)
		row, ok := buckets[key]
		if !ok {
			row = &TrendCounts{Bucket: key}
			buckets[key] = row
		}
		return row
	}

	for _, c := range m.s.selectComplaints(func(*domain.Complaint) bool { return true }) {
		if window.Contains(c.CreatedAt) {
			bucket(c.CreatedAt).Submitted++
		}
		if c.ResolvedAt != nil && window.Contains(*c.ResolvedAt) {
			bucket(*c.ResolvedAt).Resolved++
		}
		if c.Escalation.IsEscalated && c.Escalation.EscalatedAt != nil && window.Contains(*c.Escalation.EscalatedAt) {
			bucket(*c.Escalation.EscalatedAt).Escalated++
		}
	}

	result := make([]TrendCounts, 0, len(buckets))
	for _, row := range buckets {
		result = append(result, *row)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Bucket.Before(result[j].Bucket) })
	return result, nil
}

func (m memoryReports) SLAByPriority(ctx context.Context, window ReportWindow) ([]PriorityCompliance, error) {
	rows := map[domain.ComplaintPriority]*PriorityCompliance{}
	for _, c := range m.inWindow(window) {
		row, ok := rows[c.Priority]
		if !ok {
			row = &PriorityCompliance{Priority: c.Priority}
			rows[c.Priority] = row
		}
		row.Total++
		if c.Status == domain.StatusResolved {
			row.Resolved++
			if c.ResolvedAt != nil && !c.ResolvedAt.After(c.Deadline) {
				row.ResolvedOnTime++
			}
		}
	}

	result := []PriorityCompliance{}
	for _, p := range domain.AllPriorities {
		if row, ok := rows[p]; ok {
			result = append(result, *row)
		}
	}
	return result, nil
}

func containsStatus(list []domain.ComplaintStatus, status domain.ComplaintStatus) bool {
	for _, s := range list {
		if s == status {
			return true
		}
	}
	return false
}

func containsPriority(list []domain.ComplaintPriority, priority domain.ComplaintPriority) bool {
	for _, p := range list {
		if p == priority {
			return true
		}
	}
	return false
}

func sortByDeadline(list []domain.Complaint) {
	sort.SliceStable(list, func(i, j int) bool { return list[i].Deadline.Before(list[j].Deadline) })
}
