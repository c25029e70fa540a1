package reconcile

import "strings"

// DRMPolicy recognizes books stored under the folders where DRM-protected downloads end up. Those files can't
// be read, so the pass leaves them alone.
type DRMPolicy struct {
	Folders []string
}

// Protected is a pure path check; the file itself is never opened.
func (p DRMPolicy) Protected(path string) bool {
	for _, folder := range p.Folders {
		folder = strings.TrimSuffix(folder, "/")
		if folder == "" {
			continue
		}
		if path == folder || strings.HasPrefix(path, folder+"/") {
			return true
		}
	}
	return false
}
