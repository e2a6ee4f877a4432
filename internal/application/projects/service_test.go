package projects

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/risklens/internal/domain/analysis"
)

type memRecords struct {
	records map[domain.RecordID]*domain.Record

	historyOwner *string
}

func newMemRecords(recs ...*domain.Record) *memRecords {
	m := &memRecords{records: map[domain.RecordID]*domain.Record{}}
	for _, r := range recs {
		m.records[r.ID] = r
	}
	return m
}

func (m *memRecords) Save(ctx context.Context, r *domain.Record) error {
	m.records[r.ID] = r
	return nil
}

func (m *memRecords) Complete(ctx context.Context, r *domain.Record, userID string) error {
	m.records[r.ID] = r
	return nil
}

func (m *memRecords) Get(ctx context.Context, id domain.RecordID) (*domain.Record, error) {
	return m.records[id], nil
}

func (m *memRecords) History(ctx context.Context, userID string) ([]*domain.Record, error) {
	var out []*domain.Record
	for _, r := range m.records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRecords) Public(ctx context.Context) ([]*domain.Record, error) {
	var out []*domain.Record
	for _, r := range m.records {
		if r.IsPublic && r.Status == domain.StatusCompleted {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRecords) SetVisibility(ctx context.Context, id domain.RecordID, public bool) error {
	m.records[id].IsPublic = public
	return nil
}

func (m *memRecords) ReplaceMilestones(ctx context.Context, id domain.RecordID, ms []domain.Milestone) error {
	m.records[id].Milestones = ms
	return nil
}

func (m *memRecords) ClientHistory(ctx context.Context, nameFragment string, ownerID string) ([]*domain.Record, error) {
	m.historyOwner = &ownerID
	var out []*domain.Record
	for _, r := range m.records {
		if !strings.Contains(strings.ToLower(r.ClientName), strings.ToLower(nameFragment)) {
			continue
		}
		if ownerID != "" && r.UserID != ownerID {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func record(id, userID string, status domain.Status, public bool) *domain.Record {
	return &domain.Record{
		ID:           domain.RecordID(id),
		UserID:       userID,
		ProjectTitle: "Project " + id,
		Status:       status,
		IsPublic:     public,
		CreatedAt:    time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestGetVisibility(t *testing.T) {
	tests := []struct {
		name    string
		rec     *domain.Record
		caller  string
		wantErr error
	}{
		{name: "owner sees own draft", rec: record("r1", "u1", domain.StatusDraft, false), caller: "u1"},
		{name: "owner sees own failed", rec: record("r1", "u1", domain.StatusFailed, false), caller: "u1"},
		{name: "stranger sees public completed", rec: record("r1", "u1", domain.StatusCompleted, true), caller: "u2"},
		{name: "stranger blocked from private", rec: record("r1", "u1", domain.StatusCompleted, false), caller: "u2", wantErr: domain.ErrNotOwner},
		{name: "stranger blocked from public draft", rec: record("r1", "u1", domain.StatusDraft, true), caller: "u2", wantErr: domain.ErrNotOwner},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &Service{Records: newMemRecords(tt.rec)}
			got, err := svc.Get(context.Background(), tt.rec.ID, tt.caller)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.rec.ID, got.ID)
		})
	}
}

func TestGetUnknownRecord(t *testing.T) {
	svc := &Service{Records: newMemRecords()}

	_, err := svc.Get(context.Background(), "missing", "u1")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSetVisibilityOwnerOnly(t *testing.T) {
	repo := newMemRecords(record("r1", "u1", domain.StatusCompleted, false))
	svc := &Service{Records: repo}

	err := svc.SetVisibility(context.Background(), "r1", "u2", true)
	require.ErrorIs(t, err, domain.ErrNotOwner)
	require.False(t, repo.records["r1"].IsPublic)

	require.NoError(t, svc.SetVisibility(context.Background(), "r1", "u1", true))
	require.True(t, repo.records["r1"].IsPublic)
}

func TestReplaceMilestonesIsFullReplace(t *testing.T) {
	rec := record("r1", "u1", domain.StatusCompleted, false)
	rec.Milestones = []domain.Milestone{
		{ID: "m1", Title: "Kickoff", Amount: 100, Status: domain.MilestonePaid},
		{ID: "m2", Title: "Delivery", Amount: 400, Status: domain.MilestonePending},
	}
	repo := newMemRecords(rec)
	svc := &Service{Records: repo}

	next := []domain.Milestone{{ID: "m3", Title: "Everything", Amount: 500, Status: domain.MilestonePending}}
	require.NoError(t, svc.ReplaceMilestones(context.Background(), "r1", "u1", next))
	require.Equal(t, next, repo.records["r1"].Milestones)

	err := svc.ReplaceMilestones(context.Background(), "r1", "u2", nil)
	require.ErrorIs(t, err, domain.ErrNotOwner)
}

func TestCommunityOnlyPublicCompleted(t *testing.T) {
	repo := newMemRecords(
		record("r1", "u1", domain.StatusCompleted, true),
		record("r2", "u1", domain.StatusCompleted, false),
		record("r3", "u2", domain.StatusDraft, true),
		record("r4", "u2", domain.StatusFailed, true),
	)
	svc := &Service{Records: repo}

	out, err := svc.Community(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, domain.RecordID("r1"), out[0].ID)
}

func TestClientIntelScope(t *testing.T) {
	score := 75
	mine := record("r1", "u1", domain.StatusCompleted, false)
	mine.ClientName = "Acme Corp"
	mine.RiskLevel = domain.RiskHigh
	mine.RiskScore = &score
	theirs := record("r2", "u2", domain.StatusCompleted, false)
	theirs.ClientName = "Acme Corp"
	theirs.RiskLevel = domain.RiskLow
	theirs.RiskScore = &score

	t.Run("scoped", func(t *testing.T) {
		svc := &Service{Records: newMemRecords(mine, theirs)}
		intel, err := svc.ClientIntel(context.Background(), "acme", "u1")
		require.NoError(t, err)
		require.NotNil(t, intel)
		require.Equal(t, 1, intel.TotalProjects)
		require.Equal(t, 1, intel.HighRiskCount)
	})

	t.Run("shared", func(t *testing.T) {
		svc := &Service{Records: newMemRecords(mine, theirs), SharedClientIntel: true}
		intel, err := svc.ClientIntel(context.Background(), "acme", "u1")
		require.NoError(t, err)
		require.NotNil(t, intel)
		require.Equal(t, 2, intel.TotalProjects)
	})

	t.Run("no history", func(t *testing.T) {
		svc := &Service{Records: newMemRecords(mine)}
		intel, err := svc.ClientIntel(context.Background(), "globex", "u1")
		require.NoError(t, err)
		require.Nil(t, intel)
	})
}
