package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o600))
	return dir
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "")
	t.Setenv("AUTH_ENABLED", "")
	t.Setenv("DATABASE_URL", "")

	tests := []struct {
		name    string
		body    string
		wantErr bool
		check   func(t *testing.T)
	}{
		{
			name: "正常系: 認証ありで鍵がある",
			body: "auth:\n  enabled: true\njwt:\n  secret_key: \"s3cret\"\n",
			check: func(t *testing.T) {
				assert.True(t, Cfg.Auth.Enabled)
				assert.Equal(t, "s3cret", Cfg.JWT.SecretKey)
			},
		},
		{
			name: "正常系: 認証なしなら鍵は不要",
			body: "auth:\n  enabled: false\n",
			check: func(t *testing.T) {
				assert.False(t, Cfg.Auth.Enabled)
			},
		},
		{
			name: "正常系: 不正な合格点はデフォルトに戻す",
			body: "auth:\n  enabled: false\nprogress:\n  pass_threshold: 150\n",
			check: func(t *testing.T) {
				assert.Equal(t, DefaultPassThreshold, Cfg.Progress.PassThreshold)
				assert.Equal(t, DefaultPassiveCap, Cfg.Progress.PassiveCap)
			},
		},
		{
			name:    "異常系: 認証ありで鍵が空",
			body:    "auth:\n  enabled: true\njwt:\n  secret_key: \"\"\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Cfg = Config{}
			err := LoadConfig(writeConfig(t, tt.body))
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "jwt.secret_key")
				assert.Equal(t, Config{}, Cfg, "不正な設定は反映しない")
				return
			}
			require.NoError(t, err)
			tt.check(t)
		})
	}
}
