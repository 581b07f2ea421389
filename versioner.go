package vertag

import "sort"

// GetVersion computes the deterministic SemVer version for the Git
// working directory named by opts.WorkDir. It opens a fresh GitView,
// walks the commit graph reachable from HEAD, classifies the tags it
// finds into release and pre-release candidates, selects the winning
// one, lifts it to the configured minimum (major, minor), applies
// height, and appends build metadata. See getVersion for the part of
// this pipeline that is independent of how the GitView was obtained.
func GetVersion(opts Options) (Version, error) {
	if err := opts.normalize(); err != nil {
		return Version{}, err
	}

	view, err := OpenGitView(opts.WorkDir)
	if err != nil {
		return Version{}, err
	}
	return getVersion(view, opts)
}

// getVersion is the GitView-parameterized core of GetVersion, split out
// so tests can drive it against in-memory repositories without ever
// touching disk.
func getVersion(view *GitView, opts Options) (Version, error) {
	log := opts.Logger

	candidates, selected, preReleaseVersion, ok, err := candidatesAndSelection(view, opts)
	if err != nil {
		return Version{}, err
	}
	if !ok {
		return defaultVersion(opts)
	}

	if log.IsDebug() {
		log.Debug("candidates considered", "table", candidateTable(candidates, selected))
	}

	effective := effectiveMinMajorMinor(MajorMinor{Major: preReleaseVersion.Major, Minor: preReleaseVersion.Minor}, opts.MinMajorMinor)

	version, err := Satisfying(selected.Version, effective, opts.DefaultPreReleaseIdentifiers)
	if err != nil {
		return Version{}, err
	}
	if CompareVersions(version, selected.Version) != 0 && log.IsInfo() {
		log.Info("bumped version to satisfy configured minimum",
			"from", selected.Version.String(), "to", version.String(), "minimum", effective.String())
	}

	if !opts.IgnoreHeight {
		version, err = WithHeight(version, selected.Height, opts.AutoIncrement, opts.DefaultPreReleaseIdentifiers)
		if err != nil {
			return Version{}, err
		}
	}

	version, err = AddBuildMetadata(version, opts.BuildMetadata)
	if err != nil {
		return Version{}, err
	}

	if log.IsInfo() {
		log.Info("computed version", "version", version.String(), "tag", selected.Tag, "height", selected.Height)
	}
	return version, nil
}

// Explain runs the walk and selection steps without computing the
// final Version, for the CLI's --explain flag: it needs the full
// candidate table regardless of the configured log level, since
// raising the log level to debug would also emit the walk's other
// debug and info events into the log stream.
func Explain(opts Options) (candidates []Candidate, selected Candidate, err error) {
	if err := opts.normalize(); err != nil {
		return nil, Candidate{}, err
	}
	view, err := OpenGitView(opts.WorkDir)
	if err != nil {
		return nil, Candidate{}, err
	}
	candidates, selected, _, _, err = candidatesAndSelection(view, opts)
	return candidates, selected, err
}

// candidatesAndSelection performs Steps 2 through 5 of the algorithm:
// tag intake, the walk, and selection. ok is false when there is no
// working directory or no commits yet, in which case candidates and
// selected are meaningless and the caller must fall back to the
// default version.
func candidatesAndSelection(view *GitView, opts Options) (candidates []Candidate, selected Candidate, preReleaseVersion Version, ok bool, err error) {
	log := opts.Logger

	if !view.IsWorkingDirectory() {
		if log.IsWarn() {
			log.Warn(1001, "not a git working directory", "work_dir", opts.WorkDir)
		}
		return nil, Candidate{}, Version{}, false, nil
	}

	head, hasHead, err := view.TryGetHead()
	if err != nil {
		return nil, Candidate{}, Version{}, false, err
	}
	if !hasHead {
		if log.IsInfo() {
			log.Info("repository has no commits yet")
		}
		return nil, Candidate{}, Version{}, false, nil
	}

	tags, err := view.GetTags()
	if err != nil {
		return nil, Candidate{}, Version{}, false, err
	}

	tagged, ignored := classifyTags(tags, opts.TagPrefix)
	if log.IsDebug() {
		for _, name := range ignored {
			log.Debug("ignoring tag that does not parse as a version", "tag", name)
		}
	}
	sortTaggedVersions(tagged)

	tagsBySha := make(map[string][]taggedVersion)
	for _, t := range tagged {
		tagsBySha[t.tag.TargetSha] = append(tagsBySha[t.tag.TargetSha], t)
	}

	candidates, err = walk(view, head, tagsBySha, opts, log)
	if err != nil {
		return nil, Candidate{}, Version{}, false, err
	}
	sortCandidates(candidates)

	selected, preReleaseVersion = selectCandidates(candidates)
	return candidates, selected, preReleaseVersion, true, nil
}

func defaultVersion(opts Options) (Version, error) {
	pre, err := preReleaseIdentifiers(opts.DefaultPreReleaseIdentifiers)
	if err != nil {
		return Version{}, err
	}
	return AddBuildMetadata(Version{Pre: pre}, opts.BuildMetadata)
}

func classifyTags(tags []Tag, tagPrefix string) (tagged []taggedVersion, ignored []string) {
	for _, t := range tags {
		if v, ok := ParseVersion(t.Name, tagPrefix); ok {
			tagged = append(tagged, taggedVersion{tag: t, version: v})
		} else {
			ignored = append(ignored, t.Name)
		}
	}
	return tagged, ignored
}

// sortTaggedVersions orders tags ascending by (version, name), the
// deterministic order used for logging and for the per-commit order in
// which candidates are appended during the walk.
func sortTaggedVersions(tagged []taggedVersion) {
	sort.SliceStable(tagged, func(i, j int) bool {
		if c := CompareVersions(tagged[i].version, tagged[j].version); c != 0 {
			return c < 0
		}
		return tagged[i].tag.Name < tagged[j].tag.Name
	})
}

// sortCandidates orders candidates ascending by Version, with ties
// broken by index descending — later-discovered candidates sort ahead
// of earlier ones within an equal-version block. This is the only
// source of non-obvious ordering in the algorithm and must not change.
func sortCandidates(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if c := CompareVersions(candidates[i].Version, candidates[j].Version); c != 0 {
			return c < 0
		}
		return candidates[i].Index > candidates[j].Index
	})
}

// workItem is one entry on the walk's explicit LIFO worklist. An
// explicit stack, not native recursion, is required: real repositories
// can be tens of thousands of commits deep.
type workItem struct {
	commit Commit
	height uint64
}

// walk performs the reverse depth-first traversal from head described
// in the Versioner's selection algorithm, returning every Candidate it
// discovers in the order discovered.
func walk(view *GitView, head Commit, tagsBySha map[string][]taggedVersion, opts Options, log Logger) ([]Candidate, error) {
	visited := make(map[string]bool)
	stack := []workItem{{commit: head, height: 0}}
	var candidates []Candidate

	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visited[item.commit.Sha] {
			continue
		}
		visited[item.commit.Sha] = true

		if log.IsTrace() {
			log.Trace("visiting commit", "sha", item.commit.ShortSha(), "height", item.height)
		}

		tagsHere := tagsBySha[item.commit.Sha]
		hasRelease := false
		for _, t := range tagsHere {
			candidates = append(candidates, Candidate{
				Commit:  item.commit,
				Height:  item.height,
				Tag:     t.tag.Name,
				Version: t.version,
				Index:   len(candidates),
			})
			if !IsPreRelease(t.version) {
				hasRelease = true
			}
		}
		if hasRelease {
			// A release tag on this commit truncates the path: its
			// ancestors can never outrank it.
			continue
		}

		if len(item.commit.Parents) == 0 {
			pre, err := preReleaseIdentifiers(opts.DefaultPreReleaseIdentifiers)
			if err != nil {
				return nil, err
			}
			// The synthetic candidate sits one edge further back than
			// the parentless commit itself: it stands in for the
			// non-existent commit "before" repository history began.
			candidates = append(candidates, Candidate{
				Commit:  item.commit,
				Height:  item.height + 1,
				Tag:     "",
				Version: Version{Pre: pre},
				Index:   len(candidates),
			})
			continue
		}

		for i := len(item.commit.Parents) - 1; i >= 0; i-- {
			parent, err := view.GetCommit(item.commit.Parents[i])
			if err != nil {
				return nil, err
			}
			stack = append(stack, workItem{commit: parent, height: item.height + 1})
		}
	}

	return candidates, nil
}

// selectCandidates implements Step 5: the last release candidate in
// the sorted order wins as selected; the last pre-release candidate
// (falling back to selected's own version when there is none) sets
// preReleaseVersion for the minimum reconciliation in Step 6. When no
// release tag was discovered at all, the last candidate overall — a
// pre-release or synthetic root — serves as selected.
func selectCandidates(candidates []Candidate) (selected Candidate, preReleaseVersion Version) {
	var hasSelected, hasPreRelease bool
	for _, c := range candidates {
		if !IsPreRelease(c.Version) {
			selected = c
			hasSelected = true
		} else {
			preReleaseVersion = c.Version
			hasPreRelease = true
		}
	}
	if !hasSelected {
		selected = candidates[len(candidates)-1]
	}
	if !hasPreRelease {
		preReleaseVersion = selected.Version
	}
	return selected, preReleaseVersion
}

func effectiveMinMajorMinor(preReleaseMajorMinor, minMajorMinor MajorMinor) MajorMinor {
	switch {
	case minMajorMinor.Major == preReleaseMajorMinor.Major:
		minor := preReleaseMajorMinor.Minor
		if minMajorMinor.Minor > minor {
			minor = minMajorMinor.Minor
		}
		return MajorMinor{Major: preReleaseMajorMinor.Major, Minor: minor}
	case minMajorMinor.Major > preReleaseMajorMinor.Major:
		return minMajorMinor
	default:
		return preReleaseMajorMinor
	}
}
