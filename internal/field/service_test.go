package field

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitebridge/sitebridge/internal/authz"
	"github.com/sitebridge/sitebridge/internal/platform/httpx"
	"github.com/sitebridge/sitebridge/internal/shared"
)

type stubRepo struct {
	punch       map[int64]*PunchItem
	deliveries  map[int64]*Delivery
	constraints map[int64]*Constraint
	decisions   []Decision
	nextID      int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		punch:       map[int64]*PunchItem{},
		deliveries:  map[int64]*Delivery{},
		constraints: map[int64]*Constraint{},
		nextID:      1,
	}
}

func (s *stubRepo) id() int64 {
	id := s.nextID
	s.nextID++
	return id
}

func (s *stubRepo) CreatePunch(_ context.Context, p *PunchItem) (*PunchItem, error) {
	copied := *p
	copied.ID = s.id()
	s.punch[copied.ID] = &copied
	out := copied
	return &out, nil
}

func (s *stubRepo) FindPunch(_ context.Context, id int64) (*PunchItem, error) {
	p, ok := s.punch[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (s *stubRepo) ListPunch(_ context.Context, projectID int64, _ shared.ListParams) ([]PunchItem, error) {
	var out []PunchItem
	for _, p := range s.punch {
		if p.ProjectID == projectID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *stubRepo) UpdatePunch(_ context.Context, p *PunchItem) (*PunchItem, error) {
	stored, ok := s.punch[p.ID]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	stored.Description = p.Description
	stored.Status = p.Status
	copied := *stored
	return &copied, nil
}

func (s *stubRepo) VerifyPunch(_ context.Context, id, verifiedByID int64, at time.Time) (*PunchItem, error) {
	stored, ok := s.punch[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	stored.Status = PunchVerified
	stored.VerifiedAt = &at
	stored.VerifiedByID = verifiedByID
	copied := *stored
	return &copied, nil
}

func (s *stubRepo) CreateDelivery(_ context.Context, d *Delivery) (*Delivery, error) {
	copied := *d
	copied.ID = s.id()
	s.deliveries[copied.ID] = &copied
	out := copied
	return &out, nil
}

func (s *stubRepo) FindDelivery(_ context.Context, id int64) (*Delivery, error) {
	d, ok := s.deliveries[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	copied := *d
	return &copied, nil
}

func (s *stubRepo) ListDeliveries(_ context.Context, projectID int64, _ shared.ListParams) ([]Delivery, error) {
	var out []Delivery
	for _, d := range s.deliveries {
		if d.ProjectID == projectID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (s *stubRepo) UpdateDelivery(_ context.Context, d *Delivery) (*Delivery, error) {
	stored, ok := s.deliveries[d.ID]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	stored.Vendor = d.Vendor
	stored.Description = d.Description
	copied := *stored
	return &copied, nil
}

func (s *stubRepo) ConfirmDelivery(_ context.Context, id, receivedByID int64, at time.Time, hasDamage, hasShortage bool, issueNotes string) (*Delivery, error) {
	stored, ok := s.deliveries[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	stored.ActualDate = &at
	stored.ReceivedByID = receivedByID
	stored.HasDamage = hasDamage
	stored.HasShortage = hasShortage
	stored.IssueNotes = issueNotes
	copied := *stored
	return &copied, nil
}

func (s *stubRepo) CreateConstraint(_ context.Context, c *Constraint) (*Constraint, error) {
	copied := *c
	copied.ID = s.id()
	s.constraints[copied.ID] = &copied
	out := copied
	return &out, nil
}

func (s *stubRepo) FindConstraint(_ context.Context, id int64) (*Constraint, error) {
	c, ok := s.constraints[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (s *stubRepo) ListConstraints(_ context.Context, projectID int64, _ shared.ListParams) ([]Constraint, error) {
	var out []Constraint
	for _, c := range s.constraints {
		if c.ProjectID == projectID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *stubRepo) UpdateConstraint(_ context.Context, c *Constraint) (*Constraint, error) {
	stored, ok := s.constraints[c.ID]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	stored.Description = c.Description
	copied := *stored
	return &copied, nil
}

func (s *stubRepo) ResolveConstraint(_ context.Context, id int64, notes string, at time.Time) (*Constraint, error) {
	stored, ok := s.constraints[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	stored.IsResolved = true
	stored.ResolvedAt = &at
	stored.ResolutionNotes = notes
	copied := *stored
	return &copied, nil
}

func (s *stubRepo) CreateDecision(_ context.Context, d *Decision) (*Decision, error) {
	copied := *d
	copied.ID = s.id()
	s.decisions = append(s.decisions, copied)
	out := copied
	return &out, nil
}

func (s *stubRepo) ListDecisions(_ context.Context, projectID int64, _ shared.ListParams) ([]Decision, error) {
	var out []Decision
	for _, d := range s.decisions {
		if d.ProjectID == projectID {
			out = append(out, d)
		}
	}
	return out, nil
}

var super = authz.Identity{UserID: 2, Role: authz.RoleSuperintendent}

func TestPunchVerifyRequiresCompletion(t *testing.T) {
	svc := NewService(newStubRepo())

	item, err := svc.CreatePunch(context.Background(), &PunchItem{ProjectID: 3, Description: "Seal penetration at B2"})
	require.NoError(t, err)
	assert.Equal(t, PunchOpen, item.Status)

	_, err = svc.VerifyPunch(context.Background(), super, item.ID)
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.UpdatePunch(context.Background(), &PunchItem{ID: item.ID, Description: item.Description, Status: PunchCompleted})
	require.NoError(t, err)

	verified, err := svc.VerifyPunch(context.Background(), super, item.ID)
	require.NoError(t, err)
	assert.Equal(t, PunchVerified, verified.Status)
	assert.Equal(t, super.UserID, verified.VerifiedByID)
	require.NotNil(t, verified.VerifiedAt)

	// Verified items are frozen.
	_, err = svc.UpdatePunch(context.Background(), &PunchItem{ID: item.ID, Description: "edit", Status: PunchOpen})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestDeliveryConfirmIsIdempotent(t *testing.T) {
	svc := NewService(newStubRepo())

	d, err := svc.CreateDelivery(context.Background(), &Delivery{ProjectID: 3, Vendor: "Ferguson"})
	require.NoError(t, err)

	confirmed, err := svc.ConfirmDelivery(context.Background(), super, d.ID, true, false, "two dented elbows")
	require.NoError(t, err)
	require.NotNil(t, confirmed.ActualDate)
	assert.True(t, confirmed.HasDamage)

	again, err := svc.ConfirmDelivery(context.Background(), super, d.ID, false, false, "")
	require.NoError(t, err)
	assert.Equal(t, confirmed.ActualDate.Unix(), again.ActualDate.Unix())
	assert.True(t, again.HasDamage)

	_, err = svc.UpdateDelivery(context.Background(), &Delivery{ID: d.ID, Vendor: "edit"})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestConstraintResolution(t *testing.T) {
	svc := NewService(newStubRepo())

	c, err := svc.CreateConstraint(context.Background(), &Constraint{ProjectID: 3, Description: "Need inspection before cover"})
	require.NoError(t, err)
	assert.False(t, c.IsResolved)

	resolved, err := svc.ResolveConstraint(context.Background(), c.ID, "passed 3/9")
	require.NoError(t, err)
	assert.True(t, resolved.IsResolved)
	require.NotNil(t, resolved.ResolvedAt)

	_, err = svc.UpdateConstraint(context.Background(), &Constraint{ID: c.ID, Description: "edit"})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestDecisionLogAppend(t *testing.T) {
	svc := NewService(newStubRepo())

	_, err := svc.CreateDecision(context.Background(), super, &Decision{ProjectID: 3, Decision: "Route duct below beam"})
	require.ErrorIs(t, err, httpx.ErrValidation)

	d, err := svc.CreateDecision(context.Background(), super, &Decision{
		ProjectID:  3,
		Decision:   "Route duct below beam",
		ApprovedBy: "GC site super",
	})
	require.NoError(t, err)
	assert.Equal(t, super.UserID, d.ApprovedByID)
	assert.False(t, d.DecisionDate.IsZero())

	list, err := svc.ListDecisions(context.Background(), 3, shared.ListParams{Limit: 50})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
