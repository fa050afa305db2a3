package git

import (
	"os"
	"path/filepath"
	"testing"
)

func mustMkdir(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
}

func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
}

func TestHasMarker(t *testing.T) {
	tmpDir := t.TempDir()

	gitRepo := filepath.Join(tmpDir, "git-repo")
	mustMkdir(t, filepath.Join(gitRepo, ".git"))

	jjRepo := filepath.Join(tmpDir, "jj-repo")
	mustMkdir(t, filepath.Join(jjRepo, ".jj"))

	plain := filepath.Join(tmpDir, "plain")
	mustMkdir(t, plain)

	worktree := filepath.Join(tmpDir, "worktree")
	mustMkdir(t, worktree)
	mustWriteFile(t, filepath.Join(worktree, ".git"), "gitdir: /somewhere/.git/worktrees/wt\n")

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"git directory", gitRepo, true},
		{"jj directory", jjRepo, true},
		{"git file", worktree, true},
		{"plain directory", plain, false},
		{"nonexistent", filepath.Join(tmpDir, "nope"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasMarker(tt.path); got != tt.want {
				t.Errorf("HasMarker(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestOpenGitRepo(t *testing.T) {
	tmpDir := t.TempDir()
	repoPath := filepath.Join(tmpDir, "repo")
	mustMkdir(t, filepath.Join(repoPath, ".git"))
	mustWriteFile(t, filepath.Join(repoPath, ".git", "HEAD"), "ref: refs/heads/main\n")

	repo, err := Open(repoPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if repo.Kind != KindGit || repo.Bare || repo.Worktree {
		t.Errorf("unexpected repo: %+v", repo)
	}
}

func TestOpenGitDirWithoutHead(t *testing.T) {
	tmpDir := t.TempDir()
	repoPath := filepath.Join(tmpDir, "repo")
	mustMkdir(t, filepath.Join(repoPath, ".git"))

	if _, err := Open(repoPath); err == nil {
		t.Error("expected error for .git directory without HEAD")
	}
}

func TestOpenWorktree(t *testing.T) {
	tmpDir := t.TempDir()
	repoPath := filepath.Join(tmpDir, "wt")
	mustMkdir(t, repoPath)
	mustWriteFile(t, filepath.Join(repoPath, ".git"), "gitdir: /main/.git/worktrees/wt\n")

	repo, err := Open(repoPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if !repo.Worktree {
		t.Error("expected Worktree to be true")
	}
}

func TestOpenJujutsuRepo(t *testing.T) {
	tmpDir := t.TempDir()
	repoPath := filepath.Join(tmpDir, "repo")
	mustMkdir(t, filepath.Join(repoPath, ".jj"))

	repo, err := Open(repoPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if repo.Kind != KindJujutsu {
		t.Errorf("Kind = %v, want %v", repo.Kind, KindJujutsu)
	}
}

func TestOpenBareRepo(t *testing.T) {
	tmpDir := t.TempDir()
	repoPath := filepath.Join(tmpDir, "bare.git")
	mustMkdir(t, filepath.Join(repoPath, "objects"))
	mustWriteFile(t, filepath.Join(repoPath, "HEAD"), "ref: refs/heads/main\n")
	mustWriteFile(t, filepath.Join(repoPath, "config"), "[core]\n\tbare = true\n")

	repo, err := Open(repoPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if !repo.Bare {
		t.Error("expected Bare to be true")
	}
}

func TestOpenPlainDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	if _, err := Open(tmpDir); err == nil {
		t.Error("expected error for plain directory")
	}
}
