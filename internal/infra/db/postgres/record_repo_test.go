package postgres

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Same query pins as the mysql variant, with $n placeholders.

func TestHistoryQueryScopedToOwner(t *testing.T) {
	assert.Contains(t, historyQuery, "WHERE user_id=$1")
}

func TestPublicQueryFiltersSharedCompleted(t *testing.T) {
	assert.Contains(t, publicQuery, "is_public")
	assert.Contains(t, publicQuery, "status=$1")
}

func TestClientHistoryQueryFiltersCompleted(t *testing.T) {
	assert.Contains(t, clientHistoryQuery, "status=$1")
	assert.Contains(t, clientHistoryQuery, "risk_level<>''")
	assert.Contains(t, clientHistoryQuery, "client_name ILIKE $2")
}

func TestDeductOwnerCreditIsConditional(t *testing.T) {
	assert.Contains(t, deductOwnerCredit, "credits >= 1")
	assert.Contains(t, deductOwnerCredit, "credits = credits - 1")
}

func TestUpsertPreservesOwnershipAndCuration(t *testing.T) {
	_, update, found := strings.Cut(upsertRecord, "ON CONFLICT (id) DO UPDATE SET")
	require.True(t, found)

	assert.NotContains(t, update, "user_id=EXCLUDED")
	assert.NotContains(t, update, "created_at=EXCLUDED")
	assert.NotContains(t, update, "is_public=EXCLUDED")
	assert.NotContains(t, update, "milestones_json=EXCLUDED")

	assert.Contains(t, update, "status=EXCLUDED.status")
	assert.Contains(t, update, "result_json=EXCLUDED.result_json")
}
