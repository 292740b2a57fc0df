package version

import (
	"runtime/debug"
	"strings"
	"sync"
)

var (
	identityOnce sync.Once
	identityVal  string
)

// Identity returns a best-effort build identity that changes across rebuilds.
//
// Format:
//   - <rev12>
//   - <rev12>-dirty
//   - unknown (vcs metadata missing)
func Identity() string {
	identityOnce.Do(func() {
		identityVal = computeIdentity()
	})
	return identityVal
}

func computeIdentity() string {
	rev, dirty := vcsInfo()
	if rev == "" {
		return "unknown"
	}
	if dirty {
		return rev + "-dirty"
	}
	return rev
}

func vcsInfo() (rev12 string, dirty bool) {
	info, ok := debug.ReadBuildInfo()
	if !ok || info == nil {
		return "", false
	}

	var revision string
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = strings.TrimSpace(s.Value)
		case "vcs.modified":
			v := strings.TrimSpace(strings.ToLower(s.Value))
			dirty = v == "true" || v == "1" || v == "yes"
		}
	}

	if revision == "" {
		return "", dirty
	}
	if len(revision) > 12 {
		revision = revision[:12]
	}
	return revision, dirty
}
