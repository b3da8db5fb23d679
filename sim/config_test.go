package sim

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	c := Config{Horizon: 1000}
	c.Defaults()

	assert.Equal(t, 1.0, c.Step)
	assert.Equal(t, 1.0, c.Cadence, "cadence defaults to step")
	assert.Equal(t, DefaultMaxStep, c.MaxStep)
}

func TestConfigDefaults_CadenceFollowsStep(t *testing.T) {
	c := Config{Horizon: 1000, Step: 0.025}
	c.Defaults()
	assert.Equal(t, 0.025, c.Cadence)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Horizon: 1000, Step: 1, Cadence: 1, MaxStep: 1}, false},
		{"zero horizon", Config{Step: 1, Cadence: 1}, true},
		{"negative step", Config{Horizon: 10, Step: -1, Cadence: 1}, true},
		{"cadence exceeds horizon", Config{Horizon: 10, Step: 1, Cadence: 20}, true},
		{"negative maxstep", Config{Horizon: 10, Step: 1, Cadence: 1, MaxStep: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("horizon: 500\nstep: 0.5\n"), 0o644))

	c, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 500.0, c.Horizon)
	assert.Equal(t, 0.5, c.Step)
	assert.Equal(t, 0.5, c.Cadence)
}

func TestLoadConfig_UnknownFieldRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("horizon: 500\nbogus: 1\n"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("horizon: 10\ncadence: 50\n"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err, "cadence larger than horizon can never fire")
}
