package vertag

import (
	"fmt"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/filesystem"
	"github.com/go-git/go-git/v5/storage/memory"
)

var testSignature = &object.Signature{
	Name:  "test",
	Email: "test@example.com",
	When:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
}

// newTestRepo creates a new in-memory, on-disk-free Git repository for
// unit tests. Its GitView is built with NewGitViewFromRepository, never
// OpenGitView, since there is no directory on disk to open.
func newTestRepo() (*git.Repository, error) {
	return git.Init(memory.NewStorage(), memfs.New())
}

// newTestRepoOnDisk creates a filesystem-backed repository at path, for
// the handful of tests that exercise OpenGitView itself and therefore
// need a real .git directory to detect.
func newTestRepoOnDisk(path string) (*git.Repository, error) {
	fs := osfs.New(path)
	storage := filesystem.NewStorage(fs, nil)
	return git.Init(storage, fs)
}

// commitFile writes a single distinct file and commits it, returning
// the new commit's hash. Used for the straight-line history scenarios
// that make up most of the end-to-end tests.
func commitFile(repo *git.Repository, name, content string) (plumbing.Hash, error) {
	wt, err := repo.Worktree()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	if err := writeFile(wt, name, content); err != nil {
		return plumbing.ZeroHash, err
	}
	if _, err := wt.Add(name); err != nil {
		return plumbing.ZeroHash, err
	}
	return wt.Commit(fmt.Sprintf("commit %s", name), &git.CommitOptions{Author: testSignature})
}

// commitWithParents creates an empty commit with exactly the given
// parents, regardless of the worktree's actual HEAD. This is how the
// walker tests build branching and merge topologies without needing
// real branch refs or checkouts: each call simply advances HEAD to a
// new commit object wired to whatever graph shape the test wants.
func commitWithParents(repo *git.Repository, msg string, parents ...plumbing.Hash) (plumbing.Hash, error) {
	wt, err := repo.Worktree()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return wt.Commit(msg, &git.CommitOptions{
		Author:            testSignature,
		Parents:           parents,
		AllowEmptyCommits: true,
	})
}

func writeFile(wt *git.Worktree, name, content string) error {
	f, err := wt.Filesystem.Create(name)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write([]byte(content))
	return err
}

// lightweightTag creates a tag ref pointing directly at hash.
func lightweightTag(repo *git.Repository, name string, hash plumbing.Hash) error {
	_, err := repo.CreateTag(name, hash, nil)
	return err
}

// annotatedTag creates a tag object pointing at hash, so GitView.GetTags
// must dereference it to report hash as the target.
func annotatedTag(repo *git.Repository, name string, hash plumbing.Hash) error {
	_, err := repo.CreateTag(name, hash, &git.CreateTagOptions{
		Tagger:  testSignature,
		Message: name,
	})
	return err
}
