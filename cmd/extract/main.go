// Command extract turns saved post embeds ("Embed post" HTML, or the html
// field of an oEmbed response) into fixture data for -source=fixture.
package main

import (
	"bufio"
	"context"
	"encoding/csv"
	"flag"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mikequentel/dobby/internal/model"
	"github.com/mikequentel/dobby/internal/source"
)

// Flags
var (
	inGlob    = flag.String("in", "embeds/*.html", "glob of saved embed HTML files")
	dbPath    = flag.String("db", "fixture.db", "fixture SQLite DB to create or refresh (empty = skip)")
	postsCSV  = flag.String("csv", "", "also write posts as CSV (id,author,created_at,text_body)")
	defAuthor = flag.String("author", "", "author to use when an embed has no @handle")
)

var reSpaces = regexp.MustCompile(`[ \t\x{00a0}]+`)

func main() {
	log.SetFlags(0)
	flag.Parse()

	files, err := filepath.Glob(*inGlob)
	if err != nil {
		log.Fatalf("bad -in glob: %v", err)
	}
	if len(files) == 0 {
		log.Fatalf("no files match %s", *inGlob)
	}

	// 1) Parse every file
	var posts []model.SourcePost
	for _, path := range files {
		ps, err := source.ParseEmbeds(mustOpen(path))
		if err != nil {
			log.Fatalf("parse %s: %v", path, err)
		}
		posts = append(posts, ps...)
	}

	// 2) Clean up, dedupe, newest first
	posts = collect(posts, *defAuthor)

	// 3) Write outputs
	if *dbPath != "" {
		if err := source.SavePosts(context.Background(), *dbPath, posts); err != nil {
			log.Fatalf("write fixture db: %v", err)
		}
	}
	if *postsCSV != "" {
		if err := writePostsCSV(*postsCSV, posts); err != nil {
			log.Fatalf("write posts csv: %v", err)
		}
	}

	log.Printf("Extracted %d posts from %d files", len(posts), len(files))
}

// collect normalizes text, fills in missing ids and authors, drops empty and
// duplicate posts (last one wins) and sorts newest first.
func collect(in []model.SourcePost, author string) []model.SourcePost {
	byID := make(map[string]int, len(in))
	var out []model.SourcePost
	for _, p := range in {
		p.Text = cleanText(p.Text)
		if p.Text == "" {
			continue
		}
		if p.Author == "" {
			p.Author = author
		}
		if p.ID == "" {
			p.ID = "embed-" + strconv.Itoa(len(out)+1)
		}
		if i, ok := byID[p.ID]; ok {
			out[i] = p
			continue
		}
		byID[p.ID] = len(out)
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func cleanText(s string) string {
	lines := strings.Split(s, "\n")
	for i, ln := range lines {
		lines[i] = strings.TrimSpace(reSpaces.ReplaceAllString(ln, " "))
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// ---- helpers

func mustOpen(path string) *os.File {
	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("open %s: %v", path, err)
	}
	return f
}

func writePostsCSV(path string, posts []model.SourcePost) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	bw := bufio.NewWriter(f)
	w := csv.NewWriter(bw)
	_ = w.Write([]string{"id", "author", "created_at", "text_body"})
	for _, p := range posts {
		created := ""
		if !p.CreatedAt.IsZero() {
			created = p.CreatedAt.UTC().Format(time.RFC3339)
		}
		if err := w.Write([]string{p.ID, p.Author, created, p.Text}); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return bw.Flush()
}
