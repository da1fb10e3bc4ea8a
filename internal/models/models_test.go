package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestArticleIDIsStable(t *testing.T) {
	a := ArticleID("https://example.com/world/story-1")
	b := ArticleID("  https://example.com/world/story-1 ")
	require.Equal(t, a, b)
	require.Len(t, a, 32)

	other := ArticleID("https://example.com/world/story-2")
	require.NotEqual(t, a, other)
}

func TestArticleCategoryRoundTrip(t *testing.T) {
	var a Article
	a.SetCategories([]string{"world", "politics"})

	require.Equal(t, []string{"world", "politics"}, a.CategoryList())
	require.True(t, a.HasCategory("World"))
	require.False(t, a.HasCategory("sports"))
	require.False(t, a.HasCategory(""))
}

func TestPageEntryIDListPreservesOrder(t *testing.T) {
	var p PageEntry
	ids := []string{"c", "a", "b"}
	require.NoError(t, p.SetIDList(ids))
	require.Equal(t, ids, p.IDList())
}

func TestSearchEntryExpiryBoundary(t *testing.T) {
	cachedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entry := SearchEntry{CachedAt: cachedAt, TTLSeconds: 60}

	require.False(t, entry.Expired(cachedAt.Add(59*time.Second)))
	require.True(t, entry.Expired(cachedAt.Add(60*time.Second)))
	require.True(t, entry.Expired(cachedAt.Add(61*time.Second)))
}
