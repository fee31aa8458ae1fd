package publish

import (
	"bytes"
	"clanwatch/internal/providers"
	"clanwatch/internal/structures"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

type commandRunner func(ctx context.Context, dir string, args ...string) (string, error)

// GitPublisher commits the data directory and pushes it.
type GitPublisher struct {
	repoDir string
	dataDir string
	prefix  string
	run     commandRunner
	logger  providers.Logger
}

func NewGitPublisher(conf *structures.Config, logger providers.Logger) *GitPublisher {
	repoDir := conf.Publish.Git.RepoDir
	if repoDir == "" {
		repoDir = "."
	}
	return &GitPublisher{
		repoDir: repoDir,
		dataDir: conf.Persistence.DataDir,
		prefix:  conf.Publish.Git.CommitMessage,
		run:     runGit,
		logger:  logger,
	}
}

func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

// CommitMessage is "<prefix> <YYYY-MM-DD>" with the UTC date.
func CommitMessage(prefix string, date time.Time) string {
	if prefix == "" {
		prefix = "Update data"
	}
	return prefix + " " + date.UTC().Format(time.DateOnly)
}

// pathspec is the data directory relative to the repository.
func (g *GitPublisher) pathspec() string {
	repo, err := filepath.Abs(g.repoDir)
	if err != nil {
		return g.dataDir
	}
	data, err := filepath.Abs(g.dataDir)
	if err != nil {
		return g.dataDir
	}
	rel, err := filepath.Rel(repo, data)
	if err != nil {
		return g.dataDir
	}
	return filepath.ToSlash(rel)
}

func (g *GitPublisher) Name() string {
	return "git"
}

func (g *GitPublisher) Publish(ctx context.Context, date time.Time) error {
	if _, err := g.run(ctx, g.repoDir, "rev-parse", "--is-inside-work-tree"); err != nil {
		g.logger.Warnf(providers.TypeIngest, "Not inside a git repository. Skipping git commit/push.")
		return nil
	}

	if _, err := g.run(ctx, g.repoDir, "add", "--", g.pathspec()); err != nil {
		return err
	}
	status, err := g.run(ctx, g.repoDir, "status", "--porcelain")
	if err != nil {
		return err
	}
	if status == "" {
		g.logger.Infof(providers.TypeIngest, "No data changes to commit.")
		return nil
	}

	message := CommitMessage(g.prefix, date)
	if _, err := g.run(ctx, g.repoDir, "commit", "-m", message); err != nil {
		return err
	}
	if _, err := g.run(ctx, g.repoDir, "push"); err != nil {
		return err
	}
	g.logger.Infof(providers.TypeIngest, "Committed and pushed %q", message)
	return nil
}
