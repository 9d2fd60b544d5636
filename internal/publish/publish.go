// Package publish saves rendered reports into the GitHub Pages directory and
// pushes them with git.
package publish

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/PauloMNogueira/adam-sandler-news-agent/internal/storage"
)

const (
	indexFile  = "reports.json"
	pageFile   = "index.html"
	fileLayout = "20060102_150405"

	botName  = "Adam Sandler News Bot"
	botEmail = "bot@adamsandlernews.com"
)

// reportsLine matches the data line of the index page, whether it still holds
// the empty placeholder or a previous list.
var reportsLine = regexp.MustCompile(`const reports = .*;`)

// runFunc runs one git command in dir and returns its stdout.
type runFunc func(ctx context.Context, dir string, args ...string) (string, error)

type Options struct {
	DocsDir string
	// Token and Repository ("owner/name") enable CommitAndPush.
	Token      string
	Repository string
	// RepoDir is where git runs; defaults to the working directory.
	RepoDir string
	Logger  *slog.Logger
	Now     func() time.Time
}

type Publisher struct {
	docsDir    string
	token      string
	repository string
	repoDir    string
	index      *storage.ReportIndex
	git        runFunc
	log        *slog.Logger
	now        func() time.Time
}

func New(opts Options) *Publisher {
	if opts.DocsDir == "" {
		opts.DocsDir = "docs"
	}
	if opts.RepoDir == "" {
		opts.RepoDir = "."
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Publisher{
		docsDir:    opts.DocsDir,
		token:      opts.Token,
		repository: opts.Repository,
		repoDir:    opts.RepoDir,
		index:      storage.NewReportIndex(filepath.Join(opts.DocsDir, indexFile)),
		git:        runGit,
		log:        opts.Logger.With("component", "publish"),
		now:        opts.Now,
	}
}

func (p *Publisher) Configured() bool {
	return p.token != "" && p.repository != ""
}

// PagesURL returns "<owner>.github.io/<repo>", or "" when the repository is
// not in owner/name form.
func (p *Publisher) PagesURL() string {
	parts := strings.Split(p.repository, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return ""
	}
	return fmt.Sprintf("%s.github.io/%s", parts[0], parts[1])
}

// SaveReport writes html as a timestamped page, records it in the index and
// refreshes the index page. It returns the written path.
func (p *Publisher) SaveReport(html, title string, newsCount int) (string, error) {
	if err := os.MkdirAll(p.docsDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create docs directory: %w", err)
	}

	now := p.now()
	stamp := now.Format(fileLayout)
	filename := "relatorio_" + stamp + ".html"
	path := filepath.Join(p.docsDir, filename)
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	if err := p.index.Load(); err != nil {
		return path, err
	}
	p.index.Add(storage.ReportEntry{
		Filename:    filename,
		Title:       title,
		NewsCount:   newsCount,
		Timestamp:   stamp,
		Date:        now.Format("02/01/2006 15:04"),
		GeneratedAt: now,
	})
	if err := p.index.Save(); err != nil {
		return path, err
	}
	if err := p.updatePage(); err != nil {
		return path, err
	}

	p.log.Info("report published", "path", path, "news", newsCount)
	return path, nil
}

// Reports lists the indexed reports, newest first.
func (p *Publisher) Reports() ([]storage.ReportEntry, error) {
	if err := p.index.Load(); err != nil {
		return nil, err
	}
	return p.index.Entries(), nil
}

// updatePage rewrites the reports line of index.html. A site without an
// index page is left alone.
func (p *Publisher) updatePage() error {
	path := filepath.Join(p.docsDir, pageFile)
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read index page: %w", err)
	}

	data, err := p.index.JSON()
	if err != nil {
		return err
	}
	line := []byte("const reports = " + string(data) + ";")
	updated := reportsLine.ReplaceAllLiteral(content, line)
	if bytes.Equal(updated, content) {
		return nil
	}
	if err := os.WriteFile(path, updated, 0o644); err != nil {
		return fmt.Errorf("failed to write index page: %w", err)
	}
	return nil
}

// CommitAndPush commits the docs directory and pushes the current branch.
// It is a no-op when the working tree has no changes.
func (p *Publisher) CommitAndPush(ctx context.Context, message string) error {
	if !p.Configured() {
		return fmt.Errorf("GitHub is not configured: set GITHUB_TOKEN and GITHUB_REPOSITORY")
	}

	changes, err := p.git(ctx, p.repoDir, "status", "--porcelain")
	if err != nil {
		return fmt.Errorf("not a git repository: %w", err)
	}
	if strings.TrimSpace(changes) == "" {
		p.log.Info("nothing to commit")
		return nil
	}
	branch, err := p.git(ctx, p.repoDir, "branch", "--show-current")
	if err != nil {
		return err
	}
	branch = strings.TrimSpace(branch)

	if message == "" {
		message = "📰 Novo relatório de notícias - " + p.now().Format("02/01/2006 às 15:04")
	}
	remote := fmt.Sprintf("https://%s@github.com/%s.git", p.token, p.repository)
	steps := [][]string{
		{"remote", "set-url", "origin", remote},
		{"config", "user.name", botName},
		{"config", "user.email", botEmail},
		{"add", p.docsDir},
		{"commit", "-m", message},
		{"push", "origin", branch},
	}
	for _, args := range steps {
		if _, err := p.git(ctx, p.repoDir, args...); err != nil {
			// the remote URL carries the token
			return fmt.Errorf("git %s failed: %w", args[0], err)
		}
	}

	p.log.Info("changes pushed", "repository", p.repository, "branch", branch, "pages", p.PagesURL())
	return nil
}

func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
