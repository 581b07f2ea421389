// This file contains code adapted from pulumictl (https://github.com/pulumi/pulumictl)
// which is licensed under the Apache License 2.0. See NOTICE file for full attribution.
package vertag

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// GitView is a read-only view of a Git working directory: whether it
// is one, its HEAD commit (if any), its tags, and commit parents. Each
// method reads from the repository when it is called; the view copies
// no repository state at construction, so changes made to the
// repository while the view is in use are seen by later calls.
type GitView struct {
	repo         *git.Repository
	isWorkingDir bool
}

// OpenGitView opens the Git working directory at workDir and returns a
// view of it. A missing .git directory is not an error: the
// returned view simply reports IsWorkingDirectory() == false. Any
// other failure to read the repository (corrupt object store,
// permission denied, malformed refs) is a GitUnavailableError.
func OpenGitView(workDir string) (*GitView, error) {
	repo, err := git.PlainOpenWithOptions(workDir, &git.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return &GitView{}, nil
		}
		return nil, &GitUnavailableError{Err: err}
	}
	return NewGitViewFromRepository(repo), nil
}

// NewGitViewFromRepository wraps an already-open repository as a
// GitView. Exposed for embedders that already hold a *git.Repository
// (and for tests, which build repositories in memory).
func NewGitViewFromRepository(repo *git.Repository) *GitView {
	return &GitView{repo: repo, isWorkingDir: true}
}

// IsWorkingDirectory reports whether a Git repository was found.
func (v *GitView) IsWorkingDirectory() bool {
	return v.isWorkingDir
}

// TryGetHead returns the commit HEAD points at. ok is false, with a nil
// error, when there is no working directory or the working directory
// has no commits yet (an unborn HEAD).
func (v *GitView) TryGetHead() (commit Commit, ok bool, err error) {
	if !v.isWorkingDir {
		return Commit{}, false, nil
	}
	ref, err := v.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return Commit{}, false, nil
		}
		return Commit{}, false, &GitUnavailableError{Err: err}
	}
	commit, err = v.GetCommit(ref.Hash().String())
	if err != nil {
		return Commit{}, false, err
	}
	return commit, true, nil
}

// GetCommit resolves sha to a Commit, with its parents ordered the way
// Git recorded them (first parent first).
func (v *GitView) GetCommit(sha string) (Commit, error) {
	obj, err := v.repo.CommitObject(plumbing.NewHash(sha))
	if err != nil {
		return Commit{}, &GitUnavailableError{Err: fmt.Errorf("resolving commit %s: %w", sha, err)}
	}
	parents := make([]string, 0, len(obj.ParentHashes))
	for _, p := range obj.ParentHashes {
		parents = append(parents, p.String())
	}
	return Commit{Sha: obj.Hash.String(), Parents: parents}, nil
}

// GetTags returns every tag in the repository, with annotated tags
// already dereferenced to their target commit sha rather than the tag
// object's own sha.
func (v *GitView) GetTags() ([]Tag, error) {
	if !v.isWorkingDir {
		return nil, nil
	}
	iter, err := v.repo.Tags()
	if err != nil {
		return nil, &GitUnavailableError{Err: err}
	}

	var tags []Tag
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference {
			return nil
		}
		name := strings.TrimPrefix(ref.Name().String(), "refs/tags/")
		target := ref.Hash()
		if obj, terr := v.repo.TagObject(ref.Hash()); terr == nil {
			target = obj.Target
		} else if !errors.Is(terr, plumbing.ErrObjectNotFound) {
			return terr
		}
		tags = append(tags, Tag{Name: name, TargetSha: target.String()})
		return nil
	})
	if err != nil {
		return nil, &GitUnavailableError{Err: err}
	}
	return tags, nil
}
