package cmd_test

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"groupcall/cmd"
	"groupcall/media"
	"groupcall/signal"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    signal.Config
		wantErr bool
	}{
		{
			name: "given valid args when parsed then return config",
			args: []string{"-port=8080", "-key=/path/to/key.pem", "-cert=/path/to/cert.pem"},
			want: signal.Config{Port: 8080, KeyFile: "/path/to/key.pem", CertFile: "/path/to/cert.pem"},
		},
		{
			name: "given missing port when parsed then return config with default port",
			args: []string{"-key=/path/to/key.pem", "-cert=/path/to/cert.pem"},
			want: signal.Config{Port: signal.DefaultPort, KeyFile: "/path/to/key.pem", CertFile: "/path/to/cert.pem"},
		},
		{
			name: "given empty key file when parsed then return config with empty key file",
			args: []string{"-port=8080", "-cert=/path/to/cert.pem"},
			want: signal.Config{Port: 8080, KeyFile: "", CertFile: "/path/to/cert.pem"},
		},
		{
			name: "given no args when parsed then return config",
			args: []string{},
			want: signal.Config{Port: signal.DefaultPort, KeyFile: "", CertFile: ""},
		},
		{
			name:    "given extra args when parsed then return error",
			args:    []string{"-port=8080", "extra"},
			wantErr: true,
		},
		{
			name:    "given invalid flag format when parsed then return error",
			args:    []string{"-extra"},
			wantErr: true,
		},
		{
			name:    "given port flag without value when parsed then return error",
			args:    []string{"-port"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var output bytes.Buffer
			got, err := cmd.Parse(&output, tt.args)
			if tt.wantErr {
				assert.Errorf(t, err, "Parse() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Truef(t, got.Signal.IsSame(tt.want), "Parse() = %v, want %v", got, tt.want)
		})
	}
}

func TestParseMediaArgs(t *testing.T) {
	var output bytes.Buffer
	got, err := cmd.Parse(&output, []string{
		"-stun=stun:stun.example.com:3478",
		"-min-udp-port=50000",
		"-max-udp-port=50100",
	})
	assert.NoError(t, err)
	assert.Equal(t, media.Config{
		STUNServer: "stun:stun.example.com:3478",
		MinUDPPort: "50000",
		MaxUDPPort: "50100",
	}, got.Media)
}

// createTempFile creates a temporary file and returns its path.
func createTempFile(t *testing.T) string {
	t.Helper()
	tmpFile, err := os.CreateTemp("", "testfile")
	if err != nil {
		t.Fatalf("Failed to create temporary file: %v", err)
	}
	if err := tmpFile.Close(); err != nil {
		t.Fatalf("Failed to close temporary file: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Remove(tmpFile.Name())
	})
	return tmpFile.Name()
}

func TestSetupConfig(t *testing.T) {
	keyFile := createTempFile(t)
	certFile := createTempFile(t)

	tests := []struct {
		name    string
		args    []string
		want    signal.Config
		wantErr bool
	}{
		{
			name: "given existing cert and key files when set up then return config",
			args: []string{"-port=8080", "-key=" + keyFile, "-cert=" + certFile},
			want: signal.Config{Port: 8080, KeyFile: keyFile, CertFile: certFile},
		},
		{
			name: "given no cert and key files when set up then return config without TLS",
			args: []string{"-port=8080"},
			want: signal.Config{Port: 8080},
		},
		{
			name:    "given missing cert file when set up then return error",
			args:    []string{"-port=8080", "-key=" + keyFile, "-cert=/no/such/cert.pem"},
			wantErr: true,
		},
		{
			name:    "given missing key file when set up then return error",
			args:    []string{"-port=8080", "-key=/no/such/key.pem", "-cert=" + certFile},
			wantErr: true,
		},
		{
			name:    "given invalid port when set up then return error",
			args:    []string{"-port=70000"},
			wantErr: true,
		},
		{
			name:    "given invalid args when set up then return error",
			args:    []string{"-unknown"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var output bytes.Buffer
			got, err := cmd.SetupConfig(&output, tt.args)
			if tt.wantErr {
				assert.Errorf(t, err, "SetupConfig() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Truef(t, got.Signal.IsSame(tt.want), "SetupConfig() = %v, want %v", got, tt.want)
		})
	}
}
