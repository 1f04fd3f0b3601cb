// Package cochange mines a repository's commit history into a file-pair
// co-change model (C13): files that tend to be edited together, scored
// by support and confidence the way an association-rule miner would.
package cochange

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	coreerrors "github.com/yepmem/core/internal/errors"
)

const (
	// maxCommits bounds the history walk so a deep repository doesn't
	// make co-change mining unbounded.
	maxCommits = 2000

	// DefaultMinSupport and DefaultMinConfidence are the thresholds Mine
	// applies when a caller passes zero values for either.
	DefaultMinSupport    = 0.01
	DefaultMinConfidence = 0.30
)

// Pair is one file-pair co-change statistic. FileA < FileB
// lexicographically, matching the "a < b in the same commit" rule.
type Pair struct {
	FileA       string
	FileB       string
	ChangeCount int
	Support     float64
	Confidence  float64
}

// Miner walks a repository's history via go-git (no `git` subprocess).
type Miner struct {
	repo *git.Repository
}

// Open opens the git repository rooted at path.
func Open(path string) (*Miner, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, coreerrors.GitError("open repository for co-change mining", err)
	}
	return &Miner{repo: repo}, nil
}

// Mine walks up to maxCommits commits since `since`, accumulates
// commit->files and per-file and per-pair change counts, and returns
// pairs clearing minSupport and minConfidence, sorted by confidence
// descending then by (FileA, FileB) ascending.
//
// A commit whose changed files cannot be read is skipped. Any other
// go-git failure while opening or walking the log, and a cancelled ctx,
// ends the run with a TransientGitError and no pairs.
func (m *Miner) Mine(ctx context.Context, since time.Time, minSupport, minConfidence float64) ([]Pair, error) {
	if minSupport <= 0 {
		minSupport = DefaultMinSupport
	}
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}

	commitIter, err := m.repo.Log(&git.LogOptions{Since: &since})
	if err != nil {
		return nil, coreerrors.GitError("open commit log for co-change mining", err)
	}

	fileChangeCount := make(map[string]int)
	pairChangeCount := make(map[[2]string]int)
	totalCommits := 0

	walkErr := commitIter.ForEach(func(c *object.Commit) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if totalCommits >= maxCommits {
			return errStop
		}
		files, err := changedFiles(c)
		if err != nil {
			// A single unreadable commit degrades the run; it is
			// skipped rather than aborting the whole walk.
			return nil
		}
		if len(files) == 0 {
			return nil
		}
		totalCommits++
		for _, f := range files {
			fileChangeCount[f]++
		}
		sort.Strings(files)
		for i := 0; i < len(files); i++ {
			for j := i + 1; j < len(files); j++ {
				pairChangeCount[[2]string{files[i], files[j]}]++
			}
		}
		return nil
	})
	if walkErr != nil && walkErr != errStop {
		return nil, coreerrors.GitError("walk commit log for co-change mining", walkErr)
	}
	if totalCommits == 0 {
		return nil, nil
	}

	var out []Pair
	for key, count := range pairChangeCount {
		support := float64(count) / float64(totalCommits)
		changesOfFirst := fileChangeCount[key[0]]
		if changesOfFirst == 0 {
			continue
		}
		confidence := float64(count) / float64(changesOfFirst)
		if support < minSupport || confidence < minConfidence {
			continue
		}
		out = append(out, Pair{
			FileA:       key[0],
			FileB:       key[1],
			ChangeCount: count,
			Support:     support,
			Confidence:  confidence,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		if out[i].FileA != out[j].FileA {
			return out[i].FileA < out[j].FileA
		}
		return out[i].FileB < out[j].FileB
	})
	return out, nil
}

// errStop is an internal sentinel used to halt commitIter.ForEach once
// maxCommits is reached; it is never surfaced to callers.
var errStop = fmt.Errorf("cochange: max commits reached")

// changedFiles returns the file paths touched by c: a diff against its
// first parent, or every file in the tree for a root commit.
func changedFiles(c *object.Commit) ([]string, error) {
	if c.NumParents() == 0 {
		tree, err := c.Tree()
		if err != nil {
			return nil, err
		}
		var files []string
		err = tree.Files().ForEach(func(f *object.File) error {
			files = append(files, f.Name)
			return nil
		})
		return files, err
	}
	parent, err := c.Parent(0)
	if err != nil {
		return nil, err
	}
	patch, err := c.Patch(parent)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, stat := range patch.Stats() {
		files = append(files, stat.Name)
	}
	return files, nil
}
