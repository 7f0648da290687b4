package main

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikequentel/dobby/internal/model"
	"github.com/mikequentel/dobby/internal/source"
)

func TestCleanText(t *testing.T) {
	assert.Equal(t, "a b\nc", cleanText("  a \t  b \n   c  "))
	assert.Equal(t, "", cleanText(" \n\t "))
}

func TestCollect(t *testing.T) {
	d1 := time.Date(2022, 10, 26, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2022, 10, 28, 0, 0, 0, 0, time.UTC)
	in := []model.SourcePost{
		{ID: "1", Author: "elonmusk", Text: "old", CreatedAt: d1},
		{ID: "", Text: "no id"},
		{ID: "2", Author: "elonmusk", Text: "new", CreatedAt: d2},
		{ID: "1", Author: "elonmusk", Text: "old  edited", CreatedAt: d1},
		{ID: "3", Text: "   "},
	}

	got := collect(in, "fallback")
	require.Len(t, got, 3)
	assert.Equal(t, "2", got[0].ID)
	assert.Equal(t, "old edited", got[1].Text)
	assert.Equal(t, "embed-2", got[2].ID)
	assert.Equal(t, "fallback", got[2].Author)
}

func TestWritePostsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posts.csv")
	posts := []model.SourcePost{
		{ID: "1", Author: "elonmusk", Text: `He said "no", twice`, CreatedAt: time.Date(2022, 10, 26, 0, 0, 0, 0, time.UTC)},
		{ID: "2", Author: "jack", Text: "line one\nline two"},
	}
	require.NoError(t, writePostsCSV(path, posts))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"id", "author", "created_at", "text_body"}, rows[0])
	assert.Equal(t, []string{"1", "elonmusk", "2022-10-26T00:00:00Z", `He said "no", twice`}, rows[1])
	assert.Equal(t, "line one\nline two", rows[2][3])
}

// Embeds parsed from disk end up readable by the fixture source.
func TestEmbedsToFixture(t *testing.T) {
	dir := t.TempDir()
	html := `<blockquote class="twitter-tweet"><p lang="en" dir="ltr">You don&#39;t have the   money</p>&mdash; Elon Musk (@elonmusk) <a href="https://twitter.com/elonmusk/status/1585341984679469056">October 26, 2022</a></blockquote>`
	in := filepath.Join(dir, "a.html")
	require.NoError(t, os.WriteFile(in, []byte(html), 0o644))

	posts, err := source.ParseEmbeds(mustOpen(in))
	require.NoError(t, err)
	posts = collect(posts, "")

	db := filepath.Join(dir, "fixture.db")
	require.NoError(t, source.SavePosts(t.Context(), db, posts))

	res, err := source.NewFixture(db).Posts(t.Context())
	require.NoError(t, err)
	require.Len(t, res.Value, 1)
	assert.Equal(t, "You don't have the money", res.Value[0].Text)
	assert.True(t, strings.HasPrefix(res.Value[0].ID, "1585"))
}
