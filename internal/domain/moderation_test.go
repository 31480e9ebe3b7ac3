package domain_test

import (
	"testing"
	"time"

	"github.com/jcaisse/curated-content-portal-sub001/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDecision(t *testing.T) {
	tests := []struct {
		in      string
		want    domain.ModerationStatus
		wantErr bool
	}{
		{in: "APPROVED", want: domain.ModerationStatusApproved},
		{in: "rejected", want: domain.ModerationStatusRejected},
		{in: " Archived ", want: domain.ModerationStatusArchived},
		{in: "PENDING", wantErr: true},
		{in: "DELETED", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := domain.ParseDecision(tt.in)
			if tt.wantErr {
				ve, ok := domain.AsValidationError(err)
				require.True(t, ok)
				assert.Equal(t, "status", ve.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestItemMetadata_ScanValue(t *testing.T) {
	published := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	in := domain.ItemMetadata{PostID: "post-1", FeedGUID: "guid-1", SourcePublishedAt: &published}

	raw, err := in.Value()
	require.NoError(t, err)

	var out domain.ItemMetadata
	require.NoError(t, out.Scan(raw))
	assert.Equal(t, "post-1", out.PostID)
	assert.Equal(t, "guid-1", out.FeedGUID)
	require.NotNil(t, out.SourcePublishedAt)
	assert.True(t, published.Equal(*out.SourcePublishedAt))

	require.NoError(t, out.Scan(nil))
	assert.Empty(t, out.PostID)

	require.NoError(t, out.Scan(`{"postId":"p2"}`))
	assert.Equal(t, "p2", out.PostID)

	require.Error(t, out.Scan(42))
}

func TestModerationItem_ValidateForQueue(t *testing.T) {
	valid := func() domain.ModerationItem {
		return domain.ModerationItem{
			CrawlerID: "c1", URL: "https://example.com/a", URLHash: "abc", Title: "T", Score: 0.8,
		}
	}

	item := valid()
	require.NoError(t, item.ValidateForQueue())

	tests := []struct {
		name  string
		mut   func(*domain.ModerationItem)
		field string
	}{
		{name: "crawler", mut: func(m *domain.ModerationItem) { m.CrawlerID = "" }, field: "crawlerId"},
		{name: "hash", mut: func(m *domain.ModerationItem) { m.URLHash = "" }, field: "urlHash"},
		{name: "title", mut: func(m *domain.ModerationItem) { m.Title = "  " }, field: "title"},
		{name: "score", mut: func(m *domain.ModerationItem) { m.Score = 1.5 }, field: "score"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := valid()
			tt.mut(&item)
			ve, ok := domain.AsValidationError(item.ValidateForQueue())
			require.True(t, ok)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestNewPublishedPost(t *testing.T) {
	now := time.Now()
	item := &domain.ModerationItem{
		CrawlerID: "c1", URL: "https://example.com/a", URLHash: "h", Title: "T",
		Summary: "S", Content: "C", MatchedKeywords: []string{"go"},
	}

	post := domain.NewPublishedPost("p1", item, now)
	assert.Equal(t, domain.PostStatusPublished, post.Status)
	require.NotNil(t, post.PublishedAt)
	assert.Equal(t, now, *post.PublishedAt)
	assert.Equal(t, "h", post.URLHash)
	assert.Equal(t, []string{"go"}, post.Tags)
}
