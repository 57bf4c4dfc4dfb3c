package analysis

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbanmorph/axialnet/pkg/dist"
)

func TestConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "betweenness.yaml")

	var r dist.Radii
	r.SetWalking(500)
	r.SetAngular(90)

	in := &Config{
		Analysis:       "betweenness",
		DistanceType:   "angular",
		Radii:          RadiiConfigFrom(r),
		WeighByLength:  true,
		AngleThreshold: 5,
		AnglePrecision: 1,
	}
	require.NoError(t, SaveConfig(path, in))

	out, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ConfigVersion, out.Version)
	assert.Equal(t, "betweenness", out.Analysis)
	assert.True(t, out.WeighByLength)

	dt, err := out.ParseDistanceType()
	require.NoError(t, err)
	assert.Equal(t, dist.Angular, dt)

	back := out.Radii.Radii()
	assert.Equal(t, r.Mask(), back.Mask())
	assert.Equal(t, 500.0, back.Walking())
	assert.Equal(t, 90.0, back.Angular())
}

func TestLoadConfigVersionMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 99\nanalysis: reach\n"), 0o644))

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "version mismatch")
}

func TestLoadConfigMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte(":\n\t- nope"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestParseDistanceTypeUnknown(t *testing.T) {
	c := &Config{DistanceType: "zigzag"}
	_, err := c.ParseDistanceType()
	assert.Error(t, err)
}
