package costcodes

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitebridge/sitebridge/internal/platform/httpx"
	"github.com/sitebridge/sitebridge/internal/shared"
)

type stubRepo struct {
	codes  map[int64]*CostCode
	nextID int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{codes: map[int64]*CostCode{}, nextID: 1}
}

func (s *stubRepo) Create(_ context.Context, c *CostCode) (*CostCode, error) {
	for _, existing := range s.codes {
		if existing.ProjectID == c.ProjectID && existing.Code == c.Code {
			return nil, httpx.ErrDuplicate
		}
	}
	copied := *c
	copied.ID = s.nextID
	copied.IsActive = true
	copied.CreatedAt = time.Now().UTC()
	s.nextID++
	s.codes[copied.ID] = &copied
	out := copied
	return &out, nil
}

func (s *stubRepo) FindByID(_ context.Context, id int64) (*CostCode, error) {
	c, ok := s.codes[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (s *stubRepo) ListByProject(_ context.Context, projectID int64, includeInactive bool, _ shared.ListParams) ([]CostCode, error) {
	var out []CostCode
	for _, c := range s.codes {
		if c.ProjectID != projectID {
			continue
		}
		if !includeInactive && !c.IsActive {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (s *stubRepo) Update(_ context.Context, c *CostCode) (*CostCode, error) {
	stored, ok := s.codes[c.ID]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	stored.Code = c.Code
	stored.Description = c.Description
	stored.BudgetedHours = c.BudgetedHours
	stored.BudgetedAmount = c.BudgetedAmount
	copied := *stored
	return &copied, nil
}

func (s *stubRepo) SetActive(_ context.Context, id int64, active bool) error {
	c, ok := s.codes[id]
	if !ok {
		return httpx.ErrNotFound
	}
	c.IsActive = active
	return nil
}

func TestCreateRequiresCodeAndDescription(t *testing.T) {
	svc := NewService(newStubRepo())

	created, err := svc.Create(context.Background(), &CostCode{
		ProjectID: 1, Code: "03-100", Description: "Concrete forming", BudgetedHours: 120,
	})
	require.NoError(t, err)
	assert.True(t, created.IsActive)

	_, err = svc.Create(context.Background(), &CostCode{ProjectID: 1, Code: " ", Description: "x"})
	assert.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Create(context.Background(), &CostCode{ProjectID: 1, Code: "03-200", Description: "Rebar", BudgetedAmount: -5})
	assert.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Create(context.Background(), &CostCode{ProjectID: 1, Code: "03-100", Description: "dup"})
	assert.ErrorIs(t, err, httpx.ErrDuplicate)
}

func TestDeactivateHidesFromDefaultListing(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), &CostCode{
		ProjectID: 1, Code: "09-900", Description: "Painting",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(context.Background(), created.ID))

	active, err := svc.ListByProject(context.Background(), 1, false, shared.ListParams{Limit: 50})
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := svc.ListByProject(context.Background(), 1, true, shared.ListParams{Limit: 50})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].IsActive)

	// The row survives deactivation for historical reporting.
	stored, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "09-900", stored.Code)
}
