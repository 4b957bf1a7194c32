package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validOpts(t *testing.T) Options {
	t.Helper()
	opts := Default()
	opts.Targets = []string{"https://example.com"}
	opts.DictPath = t.TempDir()
	opts.TemplatesPath = t.TempDir()
	return opts
}

func TestDefaults(t *testing.T) {
	opts := Default()
	assert.Equal(t, "OneListForAll/dict", opts.DictPath)
	assert.Equal(t, "nuclei-templates", opts.TemplatesPath)
	assert.Equal(t, ModeLong, opts.Mode)
	assert.Equal(t, 10, opts.Occurrence)
	assert.Equal(t, DefaultMatchCodes, opts.MatchCodes)
	assert.Equal(t, 50, opts.Threads)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(o *Options)
		wantErr error
	}{
		{name: "valid", mutate: func(o *Options) {}},
		{name: "short mode", mutate: func(o *Options) { o.Mode = ModeShort }},
		{name: "zero occurrence", mutate: func(o *Options) { o.Occurrence = 0 }},
		{name: "bad mode", mutate: func(o *Options) { o.Mode = "medium" }, wantErr: ErrInvalidConfig},
		{name: "negative occurrence", mutate: func(o *Options) { o.Occurrence = -1 }, wantErr: ErrInvalidConfig},
		{name: "no targets", mutate: func(o *Options) { o.Targets = nil }, wantErr: ErrMissingRequired},
		{name: "zero threads", mutate: func(o *Options) { o.Threads = 0 }, wantErr: ErrInvalidConfig},
		{name: "missing dict", mutate: func(o *Options) { o.DictPath = filepath.Join(o.DictPath, "nope") }, wantErr: ErrInvalidConfig},
		{name: "missing templates", mutate: func(o *Options) { o.TemplatesPath = filepath.Join(o.TemplatesPath, "nope") }, wantErr: ErrInvalidConfig},
		{
			name: "wappalyzer ignores templates",
			mutate: func(o *Options) {
				o.Detector = DetectorWappalyzer
				o.TemplatesPath = ""
			},
		},
		{name: "unknown detector", mutate: func(o *Options) { o.Detector = "whatweb" }, wantErr: ErrInvalidConfig},
		{name: "bad match code", mutate: func(o *Options) { o.MatchCodes = []int{200, 999} }, wantErr: ErrInvalidConfig},
		{name: "negative timeout", mutate: func(o *Options) { o.FuzzTimeout = -time.Second }, wantErr: ErrInvalidConfig},
		{name: "missing default wordlist", mutate: func(o *Options) { o.DefaultWordlist = filepath.Join(o.DictPath, "nope.txt") }, wantErr: ErrInvalidConfig},
		{name: "default wordlist is a dir", mutate: func(o *Options) { o.DefaultWordlist = o.DictPath }, wantErr: ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := validOpts(t)
			tt.mutate(&opts)
			err := opts.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateDictIsFile(t *testing.T) {
	opts := validOpts(t)
	file := filepath.Join(t.TempDir(), "dict.txt")
	require.NoError(t, os.WriteFile(file, []byte("admin\n"), 0644))
	opts.DictPath = file
	assert.ErrorIs(t, opts.Validate(), ErrInvalidConfig)
}

func TestValidateDefaultWordlist(t *testing.T) {
	opts := validOpts(t)
	opts.DefaultWordlist = filepath.Join(opts.DictPath, "common.txt")
	require.NoError(t, os.WriteFile(opts.DefaultWordlist, []byte("admin\n"), 0644))
	assert.NoError(t, opts.Validate())
}

func TestLoadFileApply(t *testing.T) {
	path := filepath.Join(t.TempDir(), "intervention.yaml")
	content := `
dict: /opt/dict
default_wordlist: /opt/lists/common.txt
mode: short
occurrence: 3
threads: 20
fuzz_timeout: 90s
match_codes: [200, 403]
wordlists:
  ghost: [ghost, nodejs]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	f, err := LoadFile(path)
	require.NoError(t, err)

	opts := Default()
	f.Apply(&opts, func(flag string) bool { return flag == "occurrence" })

	assert.Equal(t, "/opt/dict", opts.DictPath)
	assert.Equal(t, "/opt/lists/common.txt", opts.DefaultWordlist)
	assert.Equal(t, ModeShort, opts.Mode)
	assert.Equal(t, 10, opts.Occurrence, "explicit flag must win over file")
	assert.Equal(t, 20, opts.Threads)
	assert.Equal(t, 90*time.Second, opts.FuzzTimeout)
	assert.Equal(t, []int{200, 403}, opts.MatchCodes)
	assert.Equal(t, []string{"ghost", "nodejs"}, opts.Wordlists["ghost"])
	assert.Equal(t, "nuclei-templates", opts.TemplatesPath, "unset keys keep defaults")
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mode: [unterminated"), 0644))
	_, err = LoadFile(path)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
