package dissect

import (
	"sort"
	"sync"

	"github.com/vociferix/sniffle/pdu"
)

// Dissector attempts to parse data as some protocol, given the PDU it sits
// inside of (for context such as addresses carried in the outer header)
// and the session it is running in (for shared state and further
// dissection via other tables). It returns the parsed PDU on success, a
// Recoverable error if this protocol isn't a match and the table should
// try the next dissector, or any other error to abort dissection.
type Dissector func(data []byte, parent pdu.PDU, session *Session) (pdu.PDU, error)

type tableEntry struct {
	priority  int
	seq       int
	dissector Dissector
}

func insertSorted(list []tableEntry, e tableEntry) []tableEntry {
	list = append(list, e)
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].priority > list[j].priority
	})
	return list
}

// KeyedTable dispatches to a Dissector based on an exact key, such as an
// Ethertype or IP protocol number. Multiple dissectors may register under
// the same key; they are tried in descending priority order, and in
// registration order among equal priorities.
type KeyedTable[K comparable] struct {
	mu      sync.RWMutex
	byKey   map[K][]tableEntry
	nextSeq int
}

// NewKeyedTable returns an empty KeyedTable.
func NewKeyedTable[K comparable]() *KeyedTable[K] {
	return &KeyedTable[K]{byKey: make(map[K][]tableEntry)}
}

// Register adds d under key at the given priority. Higher priority values
// run first.
func (t *KeyedTable[K]) Register(key K, priority int, d Dissector) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e := tableEntry{priority: priority, seq: t.nextSeq, dissector: d}
	t.nextSeq++
	t.byKey[key] = insertSorted(t.byKey[key], e)
}

// Dissect tries each dissector registered under key, in priority order,
// until one succeeds or returns a fatal error. It returns matched=false
// if every registered dissector for key declined (or none are
// registered).
func (t *KeyedTable[K]) Dissect(key K, data []byte, parent pdu.PDU, session *Session) (p pdu.PDU, matched bool, err error) {
	t.mu.RLock()
	list := append([]tableEntry(nil), t.byKey[key]...)
	t.mu.RUnlock()

	for _, e := range list {
		result, derr := e.dissector(data, parent, session)
		if derr == nil {
			return result, true, nil
		}
		if IsFatal(derr) {
			return nil, false, derr
		}
	}
	return nil, false, nil
}

// HeuristicTable dispatches to whichever registered Dissector first
// claims the data, trying dissectors in descending priority order. It is
// used for protocols that can't be selected by an exact key (e.g. sniffing
// an unknown stream for a recognizable magic number).
type HeuristicTable struct {
	mu      sync.RWMutex
	entries []tableEntry
	nextSeq int
}

// NewHeuristicTable returns an empty HeuristicTable.
func NewHeuristicTable() *HeuristicTable {
	return &HeuristicTable{}
}

// Register adds d at the given priority. Higher priority values run
// first.
func (t *HeuristicTable) Register(priority int, d Dissector) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e := tableEntry{priority: priority, seq: t.nextSeq, dissector: d}
	t.nextSeq++
	t.entries = insertSorted(t.entries, e)
}

// Dissect tries each registered dissector in priority order until one
// succeeds or returns a fatal error.
func (t *HeuristicTable) Dissect(data []byte, parent pdu.PDU, session *Session) (p pdu.PDU, matched bool, err error) {
	t.mu.RLock()
	list := append([]tableEntry(nil), t.entries...)
	t.mu.RUnlock()

	for _, e := range list {
		result, derr := e.dissector(data, parent, session)
		if derr == nil {
			return result, true, nil
		}
		if IsFatal(derr) {
			return nil, false, derr
		}
	}
	return nil, false, nil
}
