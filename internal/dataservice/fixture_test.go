package dataservice

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFixture = `{
  "server": "alpha",
  "galaxies": [
    {"index": 0, "name": "Andromeda", "presence": "home", "regions": [
      {"index": 0, "name": "Alpha-00", "systems": [
        {"index": 3, "name": "Vega", "star_type": "blue", "bodies": [
          {"index": 0, "name": "Vega I", "kind": "ice", "size": 2}
        ]},
        {"index": 7, "name": "Nyx", "star_type": "red", "bodies": []}
      ]}
    ]}
  ],
  "entities": [
    {"id": "f1", "owner_id": "p1", "color": "#ff0000",
     "route": [{"server": "alpha", "galaxy": 0, "region": 0, "system": 3, "body": -1}]},
    {"id": "f2", "owner_id": "p2", "color": "#00ff00", "leg": "30s",
     "route": [
       {"server": "alpha", "galaxy": 0, "region": 0, "system": 3, "body": -1},
       {"server": "alpha", "galaxy": 0, "region": 0, "system": 7, "body": -1}
     ]}
  ]
}`

func TestLoadFixture(t *testing.T) {
	f, err := LoadFixture([]byte(sampleFixture))
	require.NoError(t, err)

	require.Len(t, f.Galaxies, 1)
	assert.Equal(t, 1, f.Galaxies[0].RegionCount)
	assert.Equal(t, 2, f.Galaxies[0].Regions[0].SystemCount)
	assert.Equal(t, 1, f.Galaxies[0].Regions[0].Systems[0].BodyCount)
	assert.Equal(t, Duration(30*time.Second), f.Entities[1].Leg)

	assert.NotNil(t, f.system(0, 0, 7))
	assert.Nil(t, f.system(0, 0, 8))
	assert.Nil(t, f.region(1, 0))
}

func TestLoadFixtureRejects(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		wantErr string
	}{
		{
			name:    "not json",
			json:    `{`,
			wantErr: "parse fixture",
		},
		{
			name:    "no server",
			json:    `{"galaxies": []}`,
			wantErr: "no server name",
		},
		{
			name:    "duplicate galaxy",
			json:    `{"server": "a", "galaxies": [{"index": 1}, {"index": 1}]}`,
			wantErr: "duplicate galaxy index 1",
		},
		{
			name:    "duplicate region",
			json:    `{"server": "a", "galaxies": [{"index": 1, "regions": [{"index": 4}, {"index": 4}]}]}`,
			wantErr: "duplicate region index 4",
		},
		{
			name:    "route off server",
			json:    `{"server": "a", "entities": [{"id": "x", "route": [{"server": "b", "galaxy": 0, "region": 0, "system": 0, "body": -1}]}]}`,
			wantErr: "is not a system on a",
		},
		{
			name:    "route too coarse",
			json:    `{"server": "a", "entities": [{"id": "x", "route": [{"server": "a", "galaxy": 0, "region": -1, "system": -1, "body": -1}]}]}`,
			wantErr: "is not a system",
		},
		{
			name:    "moving without leg",
			json:    `{"server": "a", "entities": [{"id": "x", "route": [{"server": "a", "galaxy": 0, "region": 0, "system": 0, "body": -1}, {"server": "a", "galaxy": 0, "region": 0, "system": 1, "body": -1}]}]}`,
			wantErr: "no leg duration",
		},
		{
			name:    "bad duration",
			json:    `{"server": "a", "entities": [{"id": "x", "leg": 30}]}`,
			wantErr: "duration must be a string",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFixture([]byte(tt.json))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
