// Copyright (c) 2026 h2wire authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package hpack

// dynamicTable is the per-direction FIFO of recently-seen header entries
// used to extend the static table, RFC 7541 section 2.3.2.
//
// Grounded on the teacher's http2DynamicTable (hexinfra-gorox
// hemi/web_proto_http2.go): a ring of entries over one contiguous byte
// arena, evicting from the oldest end, sized by name+value+32 per entry.
// The teacher hardcodes the arena at a fixed 4096 octets (http2MaxTableSize)
// with a fixed 124-entry index array; this version instead keeps entries as
// a slice of HeaderField (accepting the extra per-entry allocation of two
// Go strings in exchange for not having to hand-manage a byte arena sized
// to a ceiling that, per spec.md, differs between the encoder's and
// decoder's tables and can change at runtime via SETTINGS).
type dynamicTable struct {
	entries []HeaderField // entries[head] is newest; ring buffer via head/count
	head    int
	count   int
	size    uint32 // sum of entries' Size()
	maxSize uint32 // current negotiated maximum (<= ceiling)
	ceiling uint32 // hard ceiling: the HEADER_TABLE_SIZE setting bound
}

func newDynamicTable(ceiling uint32) *dynamicTable {
	return &dynamicTable{
		entries: make([]HeaderField, 16),
		maxSize: ceiling,
		ceiling: ceiling,
	}
}

// setCeiling updates the hard ceiling imposed by a HEADER_TABLE_SIZE
// setting. If the current negotiated maxSize exceeds the new ceiling, it is
// clamped down and entries are evicted to fit.
func (t *dynamicTable) setCeiling(ceiling uint32) {
	t.ceiling = ceiling
	if t.maxSize > ceiling {
		t.setMaxSize(ceiling)
	}
}

// setMaxSize applies a dynamic-table-size-update (from the wire, for a
// decoder table) or a local policy choice (for an encoder table). Callers
// must ensure size <= ceiling before calling; the decoder enforces this as
// a COMPRESSION_ERROR at the call site instead of silently clamping, since
// silently clamping would desynchronize the two endpoints' views of the
// table.
func (t *dynamicTable) setMaxSize(size uint32) {
	t.maxSize = size
	for t.size > t.maxSize && t.count > 0 {
		t.evictOldest()
	}
}

func (t *dynamicTable) evictOldest() {
	oldest := (t.head + t.count - 1 + len(t.entries)) % len(t.entries)
	t.size -= t.entries[oldest].Size()
	t.entries[oldest] = HeaderField{}
	t.count--
}

// add inserts a newly-decoded or newly-encoded field at the front of the
// table, evicting from the back as needed to respect maxSize. A field
// larger than maxSize by itself empties the table entirely, per RFC 7541
// section 4.4.
func (t *dynamicTable) add(f HeaderField) {
	f.Sensitive = false // never-indexed fields are never added to the table
	size := f.Size()
	if size > t.maxSize {
		t.clear()
		return
	}
	for t.size+size > t.maxSize && t.count > 0 {
		t.evictOldest()
	}
	if t.count == len(t.entries) {
		t.grow()
	}
	t.head = (t.head - 1 + len(t.entries)) % len(t.entries)
	t.entries[t.head] = f
	t.count++
	t.size += size
}

func (t *dynamicTable) grow() {
	next := make([]HeaderField, len(t.entries)*2)
	for i := 0; i < t.count; i++ {
		next[i] = t.entries[(t.head+i)%len(t.entries)]
	}
	t.entries = next
	t.head = 0
}

func (t *dynamicTable) clear() {
	for i := range t.entries {
		t.entries[i] = HeaderField{}
	}
	t.head = 0
	t.count = 0
	t.size = 0
}

// get retrieves entry by 1-based dynamic index (1 = newest), the same
// numbering RFC 7541 section 2.3.3 uses before adding the static table's
// offset of 61.
func (t *dynamicTable) get(index uint64) (HeaderField, bool) {
	if index < 1 || index > uint64(t.count) {
		return HeaderField{}, false
	}
	pos := (t.head + int(index) - 1) % len(t.entries)
	return t.entries[pos], true
}

// find looks for an exact or name-only match, for the encoder's indexing
// policy. Returns a 1-based dynamic index.
func (t *dynamicTable) find(name, value string) (index int, exact bool) {
	for i := 0; i < t.count; i++ {
		pos := (t.head + i) % len(t.entries)
		e := t.entries[pos]
		if e.Name != name {
			continue
		}
		if e.Value == value {
			return i + 1, true
		}
		if index == 0 {
			index = i + 1
		}
	}
	return index, false
}
