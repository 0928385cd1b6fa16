// Package dissect implements the dissection framework: a Session carries
// shared state and named dissector tables through the parse of a single
// packet, and protocol packages register their tables and dissectors into
// every Session via package-level init() functions.
package dissect

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/vociferix/sniffle/pdu"
)

// Session is created once per packet (or once per capture, for protocols
// that track cross-packet state) and threaded through every Dissector
// call. It gives dissectors two kinds of shared storage: named tables,
// populated up front from the global TableSetup/DissectSetup registry, and
// typed state, lazily created on first use for protocols that need to
// remember something between packets (e.g. stream reassembly).
type Session struct {
	mu     sync.Mutex
	tables map[string]any
	state  map[reflect.Type]any
}

// NewSession returns a Session with every registered dissector table
// installed and populated: each TableSetup callback runs first (creating
// tables), then each DissectSetup callback runs (registering dissectors
// into those tables).
func NewSession() *Session {
	s := &Session{
		tables: make(map[string]any),
		state:  make(map[reflect.Type]any),
	}
	tableSetups, dissectSetups := snapshotSetups()
	for _, f := range tableSetups {
		f(s)
	}
	for _, f := range dissectSetups {
		f(s)
	}
	return s
}

// RegisterTable installs table under name, panicking if name is already
// in use. Called from a TableSetup callback.
func RegisterTable[T any](s *Session, name string, table T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tables[name]; exists {
		panic(fmt.Sprintf("dissect: table %q already registered", name))
	}
	s.tables[name] = table
}

// GetTable looks up the table installed under name and asserts it has
// type T. It returns ok=false if no table is installed under that name,
// or if it was installed with a different type.
func GetTable[T any](s *Session, name string) (t T, ok bool) {
	s.mu.Lock()
	v, exists := s.tables[name]
	s.mu.Unlock()
	if !exists {
		return t, false
	}
	t, ok = v.(T)
	return t, ok
}

// State returns the session's instance of T, creating a zero-valued one
// on first access. Each distinct T gets its own slot, so unrelated
// dissectors can't collide on state even if they'd otherwise pick the same
// key.
func State[T any](s *Session) *T {
	key := reflect.TypeOf((*T)(nil))
	s.mu.Lock()
	defer s.mu.Unlock()
	v, exists := s.state[key]
	if !exists {
		v = new(T)
		s.state[key] = v
	}
	return v.(*T)
}

// DissectTable dissects data against the named KeyedTable's entries for
// key, returning ErrNoMatch if nothing claimed it and no table error
// exists under that name.
func DissectTable[K comparable](s *Session, tableName string, key K, data []byte, parent pdu.PDU) (pdu.PDU, error) {
	table, ok := GetTable[*KeyedTable[K]](s, tableName)
	if !ok {
		return nil, fmt.Errorf("dissect: no such table %q", tableName)
	}
	result, matched, err := table.Dissect(key, data, parent, s)
	if err != nil {
		return nil, err
	}
	if !matched {
		return nil, ErrNoMatch
	}
	return result, nil
}

// DissectOrRawTable behaves like DissectTable, but falls back to a raw
// PDU wrapping data instead of returning an error when no dissector
// claims it or the lookup itself fails. This is the common case at a
// dissector's payload boundary: dissection should produce the best PDU
// tree it can rather than fail the whole packet because one layer
// couldn't be identified.
func DissectOrRawTable[K comparable](s *Session, tableName string, key K, data []byte, parent pdu.PDU) pdu.PDU {
	result, err := DissectTable[K](s, tableName, key, data, parent)
	if err != nil {
		return pdu.NewRaw(data)
	}
	return result
}

// DissectHeuristic tries the named HeuristicTable against data.
func DissectHeuristic(s *Session, tableName string, data []byte, parent pdu.PDU) (pdu.PDU, error) {
	table, ok := GetTable[*HeuristicTable](s, tableName)
	if !ok {
		return nil, fmt.Errorf("dissect: no such table %q", tableName)
	}
	result, matched, err := table.Dissect(data, parent, s)
	if err != nil {
		return nil, err
	}
	if !matched {
		return nil, ErrNoMatch
	}
	return result, nil
}

// DissectOrRawHeuristic behaves like DissectHeuristic but falls back to a
// raw PDU, mirroring DissectOrRawTable.
func DissectOrRawHeuristic(s *Session, tableName string, data []byte, parent pdu.PDU) pdu.PDU {
	result, err := DissectHeuristic(s, tableName, data, parent)
	if err != nil {
		return pdu.NewRaw(data)
	}
	return result
}
