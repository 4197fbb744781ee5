// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package topology

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilePersisterRewritesDeviceName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "topology.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleTopology), 0o644))

	p := NewFilePersister(path)
	require.NoError(t, p.PersistDeviceName(1, "renamed-s1"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc topologyFile
	require.NoError(t, json.Unmarshal(data, &doc))

	found := false
	for _, n := range doc.Nodes {
		if n.Dpid == 1 {
			require.Equal(t, "renamed-s1", n.DeviceName)
			found = true
		}
	}
	require.True(t, found)
}

func TestFilePersisterUnknownDpidIsNotFound(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "topology.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleTopology), 0o644))

	p := NewFilePersister(path)
	err := p.PersistDeviceName(999, "x")
	require.Error(t, err)
}
