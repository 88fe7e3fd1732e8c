// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package capability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChains struct {
	ids []string
	err error
}

func (f *fakeChains) ListEvidenceChainIDs(sessionID string) ([]string, error) {
	return f.ids, f.err
}

type fakeSpawner struct {
	payload []byte
	err     error
	lastReq SpawnRequest
}

func (f *fakeSpawner) Spawn(ctx context.Context, req SpawnRequest) ([]byte, error) {
	f.lastReq = req
	return f.payload, f.err
}

func TestDefault_MatchPattern(t *testing.T) {
	d := NewDefault(false, "", nil, nil, nil)
	assert.True(t, d.MatchPattern("src/foo.go", "src/*.go"))
	assert.False(t, d.MatchPattern("src/foo.go", "docs/*.md"))
}

func TestDefault_MatchAny(t *testing.T) {
	d := NewDefault(false, "", nil, nil, nil)
	assert.True(t, d.MatchAny("src/foo.go", []string{"docs/*.md", "src/*.go"}))
	assert.False(t, d.MatchAny("src/foo.go", []string{"docs/*.md"}))
}

func TestDefault_ChainIDs(t *testing.T) {
	d := NewDefault(false, "", nil, &fakeChains{ids: []string{"task-1", "task-2"}}, nil)
	ids, err := d.ChainIDs("20260730_10-00_abc")
	require.NoError(t, err)
	assert.Equal(t, []string{"task-1", "task-2"}, ids)
}

func TestDefault_ChainIDs_NoLister(t *testing.T) {
	d := NewDefault(false, "", nil, nil, nil)
	ids, err := d.ChainIDs("20260730_10-00_abc")
	require.NoError(t, err)
	assert.Nil(t, ids)
}

func TestDefault_Spawn(t *testing.T) {
	spawner := &fakeSpawner{payload: []byte(`{"id":"h1"}`)}
	d := NewDefault(false, "", nil, nil, spawner)
	req := SpawnRequest{AgentType: "developer", Command: "payload-ref"}

	payload, err := d.Spawn(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"id":"h1"}`), payload)
	assert.Equal(t, req, spawner.lastReq)
}

func TestDefault_Spawn_NoSpawner(t *testing.T) {
	d := NewDefault(false, "", nil, nil, nil)
	_, err := d.Spawn(context.Background(), SpawnRequest{AgentType: "developer"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "developer")
}

func TestDefault_Spawn_Error(t *testing.T) {
	spawner := &fakeSpawner{err: errors.New("spawn failed")}
	d := NewDefault(false, "", nil, nil, spawner)
	_, err := d.Spawn(context.Background(), SpawnRequest{AgentType: "browser"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "spawn failed")
}
