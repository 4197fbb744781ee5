// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package classifier

// subtable groups every rule sharing an identical mask, indexed by
// key & mask -> candidate rules (spec §4.2).
type subtable struct {
	mask  MatchFields
	rules map[MatchFields][]*Rule
}

func newSubtable(mask MatchFields) *subtable {
	return &subtable{mask: mask, rules: make(map[MatchFields][]*Rule)}
}

func (st *subtable) insert(r *Rule) {
	masked := r.Value.And(st.mask)
	st.rules[masked] = append(st.rules[masked], r)
}

// remove deletes r from the bucket its masked value hashes to.
func (st *subtable) remove(r *Rule) {
	masked := r.Value.And(st.mask)
	bucket := st.rules[masked]
	for i, cand := range bucket {
		if cand == r {
			st.rules[masked] = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if len(st.rules[masked]) == 0 {
		delete(st.rules, masked)
	}
}

// lookup returns every rule whose masked value equals key & st.mask.
func (st *subtable) lookup(key MatchFields) []*Rule {
	return st.rules[key.And(st.mask)]
}
