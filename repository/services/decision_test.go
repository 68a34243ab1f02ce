package services

import (
	"testing"
	"thesis_repo/repository/schema"

	"github.com/stretchr/testify/assert"
)

func TestDecisionTokenMapping(t *testing.T) {
	cases := []struct {
		token          string
		thesisStatus   string
		approvalStatus string
	}{
		{"APPROVE", schema.StatusApproved, schema.ApprovalApproved},
		{"NOT_APPROVED", schema.StatusLibraryChanges, schema.ApprovalChangesRequested},
		{"REVISIONS_REQUIRED", schema.StatusLibraryChanges, schema.ApprovalChangesRequested},
	}

	for _, tc := range cases {
		outcome, err := parseDecisionToken(tc.token)
		assert.NoError(t, err, tc.token)
		assert.Equal(t, tc.thesisStatus, outcome.thesisStatus)
		assert.Equal(t, tc.approvalStatus, outcome.approvalStatus)
	}
}

func TestDecisionTokenNormalization(t *testing.T) {
	outcome, err := parseDecisionToken("  approve ")
	assert.NoError(t, err)
	assert.Equal(t, schema.StatusApproved, outcome.thesisStatus)

	outcome, err = parseDecisionToken("revisions_required")
	assert.NoError(t, err)
	assert.Equal(t, schema.StatusLibraryChanges, outcome.thesisStatus)
}

func TestUnknownDecisionTokensRejected(t *testing.T) {
	for _, token := range []string{"", "MAYBE", "APPROVED", "REJECT", "approve now"} {
		_, err := parseDecisionToken(token)
		assert.Error(t, err, token)
	}
}

func TestReviewableStatuses(t *testing.T) {
	assert.Contains(t, reviewableStatuses, schema.StatusLibraryReview)
	assert.Contains(t, reviewableStatuses, schema.StatusLibraryChanges)

	assert.NotContains(t, reviewableStatuses, schema.StatusApproved)
	assert.NotContains(t, reviewableStatuses, schema.StatusPublished)
	assert.NotContains(t, reviewableStatuses, schema.StatusSupervisorReview)
	assert.NotContains(t, reviewableStatuses, schema.StatusSupervisorChanges)
	assert.NotContains(t, reviewableStatuses, schema.StatusSupervisorApproved)
}
