package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/internmanagementsystem2025/internshipmanagementsystem-sub005/core"
	"github.com/internmanagementsystem2025/internshipmanagementsystem-sub005/core/supervisor"
)

type supervisorRepository struct {
	db *supervisorTable
}

var _ supervisor.Repository = (*supervisorRepository)(nil) // interface compliance check

func NewSupervisorRepository(db *DB) *supervisorRepository {
	return &supervisorRepository{db: db.supervisor}
}

func (repo *supervisorRepository) query() []supervisor.Supervisor {
	sups := make([]supervisor.Supervisor, 0, len(repo.db.table))
	for _, s := range repo.db.table {
		sups = append(sups, *s)
	}
	return sups
}

// checkUniqueness must be called with the lock held.
func (repo *supervisorRepository) checkUniqueness(number, email string, excludedIDs []string) error {
	excluded := make(map[string]bool, len(excludedIDs))
	for _, id := range excludedIDs {
		excluded[id] = true
	}
	for _, s := range repo.db.table {
		if excluded[s.ID] {
			continue
		}
		if s.Number == number {
			return supervisor.ErrNumberExists
		}
		if email != "" && s.Email == email {
			return supervisor.ErrEmailExists
		}
	}
	return nil
}

func (repo *supervisorRepository) CheckUniqueness(_ context.Context, number, email string, excludedIDs ...string) error {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.checkUniqueness(number, email, excludedIDs)
}

func (repo *supervisorRepository) CreateSupervisor(_ context.Context, sup supervisor.Supervisor) (supervisor.Supervisor, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	// unique indexes
	if err := repo.checkUniqueness(sup.Number, sup.Email, nil); err != nil {
		return supervisor.Supervisor{}, err
	}
	sup.ID = uuid.New().String()
	repo.db.table[sup.ID] = &sup
	return sup, nil
}

func (repo *supervisorRepository) QuerySupervisors(_ context.Context, filter *supervisor.QueryFilter, ordering []core.DBOrdering) ([]supervisor.Supervisor, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	sups := make([]supervisor.Supervisor, 0, len(repo.db.table))
	for _, s := range repo.query() {
		if filter != nil && !matches(s, filter) {
			continue
		}
		sups = append(sups, s)
	}

	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "supervisor_number", Ascending: true}}
	}
	sort.SliceStable(sups, func(i, j int) bool {
		for _, ord := range ordering {
			c := compareField(sups[i], sups[j], ord.Field)
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
	return sups, nil
}

func (repo *supervisorRepository) GetSupervisor(_ context.Context, filter supervisor.GetFilter) (supervisor.Supervisor, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if filter == (supervisor.GetFilter{}) {
		return supervisor.Supervisor{}, supervisor.ErrNotFound
	}
	if filter.ID != "" {
		s, ok := repo.db.table[filter.ID]
		if !ok || !matchesGet(*s, filter) {
			return supervisor.Supervisor{}, supervisor.ErrNotFound
		}
		return *s, nil
	}

	for _, s := range repo.query() {
		if matchesGet(s, filter) {
			return s, nil
		}
	}
	return supervisor.Supervisor{}, supervisor.ErrNotFound
}

func (repo *supervisorRepository) UpdateSupervisor(_ context.Context, sup supervisor.Supervisor) (supervisor.Supervisor, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[sup.ID]
	if !ok {
		return supervisor.Supervisor{}, supervisor.ErrNotFound
	}
	if err := repo.checkUniqueness(sup.Number, sup.Email, []string{sup.ID}); err != nil {
		return supervisor.Supervisor{}, err
	}
	updated := *orig
	updated.Profile = sup.Profile
	updated.UpdatedAt = sup.UpdatedAt
	repo.db.table[sup.ID] = &updated
	return updated, nil
}

func (repo *supervisorRepository) DeleteSupervisorsByID(_ context.Context, ids ...string) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.table[id]; ok {
			delete(repo.db.table, id)
			cnt++
		}
	}
	return cnt, nil
}

func matches(s supervisor.Supervisor, filter *supervisor.QueryFilter) bool {
	if filter.Search != "" {
		kw := strings.ToLower(filter.Search)
		found := false
		for _, val := range []string{s.Number, s.FirstName, s.Surname, s.Email} {
			if strings.Contains(strings.ToLower(val), kw) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.Section != "" && !strings.EqualFold(s.Section, filter.Section) {
		return false
	}
	if filter.Division != "" && !strings.EqualFold(s.Division, filter.Division) {
		return false
	}
	return true
}

func matchesGet(s supervisor.Supervisor, filter supervisor.GetFilter) bool {
	if filter.ID != "" && s.ID != filter.ID {
		return false
	}
	if filter.Number != "" && s.Number != filter.Number {
		return false
	}
	if filter.Email != "" && s.Email != filter.Email {
		return false
	}
	if filter.NotNumber != "" && s.Number == filter.NotNumber {
		return false
	}
	return true
}

func compareField(a, b supervisor.Supervisor, field string) int {
	switch field {
	case "created_at":
		return a.CreatedAt.Compare(b.CreatedAt)
	case "updated_at":
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case "supervisor_number":
		return strings.Compare(a.Number, b.Number)
	case "first_name":
		return strings.Compare(a.FirstName, b.FirstName)
	case "surname":
		return strings.Compare(a.Surname, b.Surname)
	case "email":
		return strings.Compare(a.Email, b.Email)
	case "section":
		return strings.Compare(a.Section, b.Section)
	case "division":
		return strings.Compare(a.Division, b.Division)
	}
	return 0
}
