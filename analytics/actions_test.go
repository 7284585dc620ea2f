package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseActionClick(t *testing.T) {
	action := ParseAction("result_opened_of_current_index_0_result_index_5_public_id_ABC123")
	assert.Equal(t, ActionClick, action.Kind)
	assert.Equal(t, 0, action.Rank)
	assert.Equal(t, "ABC123", action.ProductID)
	assert.Equal(t, "Rank 1", RankBucket(action.Rank))
}

func TestParseActionClickWithoutProductID(t *testing.T) {
	action := ParseAction("result_opened_of_current_index_7")
	assert.Equal(t, ActionClick, action.Kind)
	assert.Equal(t, 7, action.Rank)
	assert.Empty(t, action.ProductID)
}

func TestParseActionShareDownload(t *testing.T) {
	assert.Equal(t, ActionShare, ParseAction("link_copied").Kind)
	assert.Equal(t, ActionShare, ParseAction("result_shared_on_mail").Kind)
	assert.Equal(t, ActionDownload, ParseAction("summary_downloaded").Kind)
}

func TestParseActionIgnored(t *testing.T) {
	tokens := []string{
		"",
		"something_else_entirely",
		"result_opened",                    // no rank capture
		"result_opened_of_current_index_",  // empty rank
		"result_opened_of_current_index_x", // non-numeric rank
		"link_copied_extra",                // share tokens match exactly
		"summary_downloaded_twice",
	}
	for _, token := range tokens {
		assert.Equal(t, ActionIgnored, ParseAction(token).Kind, "token %q", token)
	}
}

func TestRankBuckets(t *testing.T) {
	tests := []struct {
		rank int
		want string
	}{
		{0, "Rank 1"},
		{1, "Rank 2"},
		{2, "Rank 3"},
		{3, "Rank 4+"},
		{17, "Rank 4+"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RankBucket(tt.rank))
	}
}
