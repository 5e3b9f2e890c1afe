package ghclient

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/dnaeon/go-vcr.v2/cassette"
	vcr "gopkg.in/dnaeon/go-vcr.v2/recorder"
)

// recorderMode determines whether a Recorder replays fixtures or
// records new ones against the live GitHub API.
type recorderMode int

const (
	modeReplay recorderMode = iota
	modeRecord
)

// vcrModeEnv switches recording mode, mirroring GitHub token resolution's
// env-var-first convention used elsewhere in this package.
const vcrModeEnv = "GITMUX_VCR_MODE"

func getRecorderMode() recorderMode {
	if os.Getenv(vcrModeEnv) == "record" {
		return modeRecord
	}
	return modeReplay
}

// Recorder wraps go-vcr so ghclient tests exercise real request/response
// shapes from a fixture file instead of a hand-rolled httptest.Server.
//
// Usage:
//
//	rec, err := NewRecorder(t, "create_pull_request")
//	if err != nil { t.Fatal(err) }
//	defer rec.Stop()
//	client := NewClient("test-token", WithHTTPClient(rec.HTTPClient()))
//
// Recording new fixtures requires a real token:
//
//	GITMUX_VCR_MODE=record GITHUB_TOKEN=... go test ./pkg/ghclient/...
type Recorder struct {
	recorder *vcr.Recorder
	mode     recorderMode
}

// NewRecorder opens (replay) or creates (record) testdata/fixtures/<name>.yaml.
func NewRecorder(t *testing.T, name string) (*Recorder, error) {
	t.Helper()

	mode := getRecorderMode()
	fixturePath := filepath.Join("testdata", "fixtures", name)

	vcrMode := vcr.ModeReplaying
	if mode == modeRecord {
		vcrMode = vcr.ModeRecording
	}

	r, err := vcr.NewAsMode(fixturePath, vcrMode, nil)
	if err != nil {
		if errors.Is(err, cassette.ErrCassetteNotFound) {
			return nil, fmt.Errorf("cassette %q not found: %w", fixturePath, os.ErrNotExist)
		}
		return nil, fmt.Errorf("failed to create recorder: %w", err)
	}

	r.AddSaveFilter(func(i *cassette.Interaction) error {
		delete(i.Request.Headers, "Authorization")
		return nil
	})

	return &Recorder{recorder: r, mode: mode}, nil
}

func (r *Recorder) Stop() error {
	if r.recorder != nil {
		if err := r.recorder.Stop(); err != nil {
			return fmt.Errorf("failed to stop recorder: %w", err)
		}
	}
	return nil
}

func (r *Recorder) IsRecording() bool {
	return r.mode == modeRecord
}

// HTTPClient returns an *http.Client whose transport is the recorder.
func (r *Recorder) HTTPClient() *http.Client {
	return &http.Client{Transport: r.recorder}
}
