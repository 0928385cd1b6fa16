package dissect

import "sync"

// Each protocol package registers its dissector tables and dissectors
// through init() functions, the same way database/sql drivers and
// image's format decoders register themselves: import the package for
// its side effect, and its protocols become available to every Session
// created afterward.
var (
	registryMu    sync.RWMutex
	tableSetups   []func(*Session)
	dissectSetups []func(*Session)
)

// RegisterTableSetup records f to run against every newly created
// Session, before any DissectSetup runs, so f can create and install the
// named dissector tables that RegisterDissectSetup callbacks will then
// populate. Intended to be called from a package init().
func RegisterTableSetup(f func(*Session)) {
	registryMu.Lock()
	defer registryMu.Unlock()
	tableSetups = append(tableSetups, f)
}

// RegisterDissectSetup records f to run against every newly created
// Session, after all TableSetup callbacks have run, so f can look up a
// table by name and register its dissector(s) into it. Intended to be
// called from a package init().
func RegisterDissectSetup(f func(*Session)) {
	registryMu.Lock()
	defer registryMu.Unlock()
	dissectSetups = append(dissectSetups, f)
}

func snapshotSetups() (tables, dissectors []func(*Session)) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	tables = append([]func(*Session){}, tableSetups...)
	dissectors = append([]func(*Session){}, dissectSetups...)
	return
}
