// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package topology

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	nerr "ndtwin.dev/core/internal/errors"
)

// FilePersister implements graph.NamePersister by rewriting the on-disk
// topology file's device_name/nickname fields, using a temp-file-then-
// rename so a reader never observes a partially written file (spec §5
// configurationFileLock).
type FilePersister struct {
	path string
	mu   sync.Mutex
}

// NewFilePersister returns a persister writing to path.
func NewFilePersister(path string) *FilePersister {
	return &FilePersister{path: path}
}

// PersistDeviceName rewrites the device_name field of the node matching
// dpid.
func (p *FilePersister) PersistDeviceName(dpid uint64, name string) error {
	return p.mutateNode(dpid, func(n *nodeFile) { n.DeviceName = name })
}

// PersistNickName rewrites the nickname field of the node matching dpid.
func (p *FilePersister) PersistNickName(dpid uint64, nick string) error {
	return p.mutateNode(dpid, func(n *nodeFile) { n.NickName = nick })
}

func (p *FilePersister) mutateNode(dpid uint64, mutate func(*nodeFile)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := os.ReadFile(p.path)
	if err != nil {
		return nerr.Wrap(nerr.KindInternal, "read topology file", err)
	}
	var doc topologyFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nerr.Wrap(nerr.KindInternal, "parse topology file", err)
	}

	found := false
	for i := range doc.Nodes {
		if doc.Nodes[i].Dpid == dpid {
			mutate(&doc.Nodes[i])
			found = true
			break
		}
	}
	if !found {
		return nerr.NotFound("no topology node for dpid %d", dpid)
	}

	out, err := json.MarshalIndent(&doc, "", "  ")
	if err != nil {
		return nerr.Wrap(nerr.KindInternal, "marshal topology file", err)
	}
	return writeFileAtomic(p.path, out)
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
