// Package deploy publishes a built output tree to a git branch, the way
// GitHub Pages expects a gh-pages branch of rendered files.
package deploy

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"git.home.luguber.info/inful/sitebuilder/internal/assemble"
	sberrors "git.home.luguber.info/inful/sitebuilder/internal/errors"
)

// ErrNoChanges indicates the tree matches the branch head; nothing to commit.
var ErrNoChanges = stderrors.New("no changes to deploy")

// Deployer commits output trees into a git checkout.
type Deployer struct {
	// TargetDir is the checkout the tree is written into. A repository is
	// initialized there if none exists.
	TargetDir string
	Branch    string
	// Remote to push to; empty disables pushing.
	Remote      string
	AuthorName  string
	AuthorEmail string
}

// New creates a deployer with gh-pages defaults.
func New(targetDir string) *Deployer {
	return &Deployer{
		TargetDir:   targetDir,
		Branch:      "gh-pages",
		AuthorName:  "sitebuilder",
		AuthorEmail: "sitebuilder@localhost",
	}
}

// Deploy writes tree into the target checkout on the configured branch and
// commits it. With a remote configured, the branch is pushed afterwards.
// Returns the commit hash, or ErrNoChanges when the tree is already live.
func (d *Deployer) Deploy(ctx context.Context, tree assemble.Tree, message string) (string, error) {
	repo, err := d.openOrInit()
	if err != nil {
		return "", sberrors.DeployFailed(d.Branch, err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return "", sberrors.DeployFailed(d.Branch, err)
	}

	if err := d.checkoutBranch(repo, wt); err != nil {
		return "", sberrors.DeployFailed(d.Branch, err)
	}

	if err := d.syncTree(tree); err != nil {
		return "", sberrors.DeployFailed(d.Branch, err)
	}

	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return "", sberrors.DeployFailed(d.Branch, err)
	}

	status, err := wt.Status()
	if err != nil {
		return "", sberrors.DeployFailed(d.Branch, err)
	}
	if status.IsClean() {
		return "", ErrNoChanges
	}

	hash, err := wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  d.AuthorName,
			Email: d.AuthorEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return "", sberrors.DeployFailed(d.Branch, err)
	}
	slog.Info("Deployed site", "branch", d.Branch, "commit", hash.String(), "files", len(tree))

	if d.Remote != "" {
		refspec := config.RefSpec("refs/heads/" + d.Branch + ":refs/heads/" + d.Branch)
		err := repo.PushContext(ctx, &git.PushOptions{
			RemoteName: d.Remote,
			RefSpecs:   []config.RefSpec{refspec},
		})
		if err != nil && !stderrors.Is(err, git.NoErrAlreadyUpToDate) {
			return hash.String(), sberrors.DeployFailed(d.Branch, err)
		}
		slog.Info("Pushed deploy branch", "remote", d.Remote, "branch", d.Branch)
	}

	return hash.String(), nil
}

func (d *Deployer) openOrInit() (*git.Repository, error) {
	repo, err := git.PlainOpen(d.TargetDir)
	if err == nil {
		return repo, nil
	}
	if !stderrors.Is(err, git.ErrRepositoryNotExists) {
		return nil, err
	}
	if err := os.MkdirAll(d.TargetDir, 0o750); err != nil {
		return nil, err
	}
	repo, err = git.PlainInit(d.TargetDir, false)
	if err != nil {
		return nil, err
	}
	// Point HEAD at the deploy branch so the first commit lands there.
	head := plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName(d.Branch))
	if err := repo.Storer.SetReference(head); err != nil {
		return nil, err
	}
	return repo, nil
}

func (d *Deployer) checkoutBranch(repo *git.Repository, wt *git.Worktree) error {
	branchRef := plumbing.NewBranchReferenceName(d.Branch)

	head, err := repo.Head()
	if err != nil {
		// Unborn HEAD (fresh init): nothing to check out yet.
		return nil
	}
	if head.Name() == branchRef {
		return nil
	}

	_, err = repo.Reference(branchRef, true)
	create := err != nil
	return wt.Checkout(&git.CheckoutOptions{
		Branch: branchRef,
		Create: create,
		Force:  true,
	})
}

// syncTree makes the checkout mirror the tree: stale files are removed,
// current ones written. The .git directory is left untouched.
func (d *Deployer) syncTree(tree assemble.Tree) error {
	entries, err := os.ReadDir(d.TargetDir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.Name() == ".git" {
			continue
		}
		if err := os.RemoveAll(filepath.Join(d.TargetDir, entry.Name())); err != nil {
			return err
		}
	}
	return tree.WriteTo(d.TargetDir)
}
