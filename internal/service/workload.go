package service

import (
	"sort"

	"github.com/campusdesk/complaint-service/internal/config"
	"github.com/campusdesk/complaint-service/internal/domain"
)

// WorkloadPolicy scores staff availability. Lower scores mean more capacity.
type WorkloadPolicy struct {
	Threshold         float64
	AdminBonus        float64
	HighWeight        float64
	MismatchPenalty   float64
	GeneralDepartment string
}

// NewWorkloadPolicy builds the policy from configuration.
func NewWorkloadPolicy(cfg config.AssignmentConfig) WorkloadPolicy {
	return WorkloadPolicy{
		Threshold:         cfg.RecommendThreshold,
		AdminBonus:        cfg.AdminBonus,
		HighWeight:        2,
		MismatchPenalty:   1,
		GeneralDepartment: cfg.GeneralDepartment,
	}
}

// StaffLoad is a candidate with its current assignment counts.
type StaffLoad struct {
	Staff                   domain.User
	OpenAssignments         int
	HighPriorityAssignments int
}

// Recommendation is a scored candidate.
type Recommendation struct {
	StaffLoad
	DepartmentMatch bool
	Score           float64
	Recommended     bool
}

// Eligible reports whether staff may take complaints for department.
func (p WorkloadPolicy) Eligible(staff domain.User, department string) bool {
	if !staff.CanBeAssigned() {
		return false
	}
	return staff.Role == domain.RoleAdmin ||
		staff.Department == department ||
		(p.GeneralDepartment != "" && staff.Department == p.GeneralDepartment)
}

// Score computes open + HighWeight×high + mismatch penalty − admin bonus.
func (p WorkloadPolicy) Score(load StaffLoad, department string) float64 {
	score := float64(load.OpenAssignments) + p.HighWeight*float64(load.HighPriorityAssignments)
	if !p.departmentMatch(load.Staff, department) {
		score += p.MismatchPenalty
	}
	if load.Staff.Role == domain.RoleAdmin {
		score -= p.AdminBonus
	}
	return score
}

// Rank filters eligible candidates and orders them by ascending score.
// Candidates with equal scores keep their input order.
func (p WorkloadPolicy) Rank(department string, loads []StaffLoad) []Recommendation {
	ranked := make([]Recommendation, 0, len(loads))
	for _, load := range loads {
		if !p.Eligible(load.Staff, department) {
			continue
		}
		score := p.Score(load, department)
		ranked = append(ranked, Recommendation{
			StaffLoad:       load,
			DepartmentMatch: load.Staff.Department == department,
			Score:           score,
			Recommended:     score <= p.Threshold,
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score < ranked[j].Score
	})
	return ranked
}

func (p WorkloadPolicy) departmentMatch(staff domain.User, department string) bool {
	return staff.Role == domain.RoleAdmin || staff.Department == department
}
