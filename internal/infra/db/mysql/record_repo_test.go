package mysql

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The visibility rules live in the SQL itself, so the queries are pinned here:
// a scoping clause dropped in a refactor fails these before it reaches a DB.

func TestHistoryQueryScopedToOwner(t *testing.T) {
	assert.Contains(t, historyQuery, "WHERE user_id=?")
}

func TestPublicQueryFiltersSharedCompleted(t *testing.T) {
	assert.Contains(t, publicQuery, "is_public=1")
	assert.Contains(t, publicQuery, "status=?")
}

func TestClientHistoryQueryFiltersCompleted(t *testing.T) {
	assert.Contains(t, clientHistoryQuery, "status=?")
	assert.Contains(t, clientHistoryQuery, "risk_level<>''")
	assert.Contains(t, clientHistoryQuery, "LOWER(client_name) LIKE ?")
}

func TestDeductOwnerCreditIsConditional(t *testing.T) {
	assert.Contains(t, deductOwnerCredit, "credits >= 1")
	assert.Contains(t, deductOwnerCredit, "credits = credits - 1")
}

func TestUpsertPreservesOwnershipAndCuration(t *testing.T) {
	_, update, found := strings.Cut(upsertRecord, "ON DUPLICATE KEY UPDATE")
	require.True(t, found)

	// The update arm must never reassign the owner or the fields the user
	// curates between retries.
	assert.NotContains(t, update, "user_id=VALUES")
	assert.NotContains(t, update, "created_at=VALUES")
	assert.NotContains(t, update, "is_public=VALUES")
	assert.NotContains(t, update, "milestones_json=VALUES")

	assert.Contains(t, update, "status=VALUES(status)")
	assert.Contains(t, update, "result_json=VALUES(result_json)")
}

func TestEscapeLikePattern(t *testing.T) {
	assert.Equal(t, `100\%`, escapeLikePattern("100%"))
	assert.Equal(t, `a\_b`, escapeLikePattern("a_b"))
	assert.Equal(t, `c\\d`, escapeLikePattern(`c\d`))
}
