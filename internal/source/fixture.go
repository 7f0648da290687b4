package source

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/mikequentel/dobby/internal/model"
)

//go:embed fixtures/posts.json
var samplePosts []byte

// FixtureSchema is the table layout of an offline fixture database.
const FixtureSchema = `
CREATE TABLE IF NOT EXISTS posts (
	id         TEXT PRIMARY KEY,
	author     TEXT NOT NULL,
	text_body  TEXT NOT NULL,
	created_at TEXT NULL,
	likes      INTEGER NOT NULL DEFAULT 0,
	retweets   INTEGER NOT NULL DEFAULT 0,
	replies    INTEGER NOT NULL DEFAULT 0
)`

type fixturePost struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
	Likes     int       `json:"likes"`
	Retweets  int       `json:"retweets"`
	Replies   int       `json:"replies"`
}

// Fixture serves posts captured earlier, for runs that skip the live fetch.
// With an empty dbPath it serves the sample posts built into the binary;
// otherwise it reads the posts table of a SQLite file, which it never writes.
type Fixture struct {
	dbPath string
}

func NewFixture(dbPath string) *Fixture {
	return &Fixture{dbPath: dbPath}
}

func (f *Fixture) Name() string {
	if f.dbPath == "" {
		return "fixture:builtin"
	}
	return "fixture:" + f.dbPath
}

func (f *Fixture) Posts(ctx context.Context) (model.Result[[]model.SourcePost], error) {
	var (
		posts []model.SourcePost
		err   error
	)
	if f.dbPath == "" {
		posts, err = builtinPosts()
	} else {
		posts, err = dbPosts(ctx, f.dbPath)
	}
	if err != nil {
		return model.Result[[]model.SourcePost]{}, err
	}
	return model.Ok(posts), nil
}

func builtinPosts() ([]model.SourcePost, error) {
	var raw []fixturePost
	if err := json.Unmarshal(samplePosts, &raw); err != nil {
		return nil, errors.Wrap(err, "decode built-in fixture")
	}
	posts := make([]model.SourcePost, 0, len(raw))
	for _, p := range raw {
		posts = append(posts, model.SourcePost(p))
	}
	return posts, nil
}

func dbPosts(ctx context.Context, path string) ([]model.SourcePost, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, errors.Wrapf(err, "open fixture db %s", path)
	}
	defer db.Close()

	const q = `
SELECT id, author, text_body, COALESCE(created_at, ''), likes, retweets, replies
FROM posts
ORDER BY created_at DESC, id DESC;
`
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, errors.Wrapf(err, "query fixture db %s", path)
	}
	defer rows.Close()

	var posts []model.SourcePost
	for rows.Next() {
		var (
			p       model.SourcePost
			created string
		)
		if err := rows.Scan(&p.ID, &p.Author, &p.Text, &created, &p.Likes, &p.Retweets, &p.Replies); err != nil {
			return nil, errors.Wrap(err, "scan fixture row")
		}
		if created != "" {
			if t, err := time.Parse(time.RFC3339, created); err == nil {
				p.CreatedAt = t
			}
		}
		posts = append(posts, p)
	}
	return posts, errors.Wrap(rows.Err(), "read fixture rows")
}

// SavePosts upserts posts into the fixture database at path, creating the
// table if needed. It is used by the extract tool, never by a bot run.
func SavePosts(ctx context.Context, path string, posts []model.SourcePost) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return errors.Wrapf(err, "open fixture db %s", path)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, FixtureSchema); err != nil {
		return errors.Wrap(err, "create posts table")
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO posts (id, author, text_body, created_at, likes, retweets, replies)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET author = excluded.author, text_body = excluded.text_body, created_at = excluded.created_at`)
	if err != nil {
		return errors.Wrap(err, "prepare insert")
	}
	defer stmt.Close()

	for _, p := range posts {
		var created any
		if !p.CreatedAt.IsZero() {
			created = p.CreatedAt.UTC().Format(time.RFC3339)
		}
		if _, err := stmt.ExecContext(ctx, p.ID, p.Author, p.Text, created, p.Likes, p.Retweets, p.Replies); err != nil {
			return errors.Wrapf(err, "insert post %s", p.ID)
		}
	}
	return errors.Wrap(tx.Commit(), "commit")
}
