package uploader

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"os"
	"testing"

	"github.com/vitalbridge/vitalbridge/internal/fetch"
	"github.com/vitalbridge/vitalbridge/internal/sample"
)

type fakeClient struct {
	err      error
	uploaded []byte
	source   string
	calls    int
}

func (f *fakeClient) UploadFile(ctx context.Context, path, dataSource string) error {
	f.calls++
	f.source = dataSource
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	f.uploaded = data
	return f.err
}

type fakeState struct {
	marked  int
	markErr error
}

func (f *fakeState) MarkSyncedNow() error {
	if f.markErr != nil {
		return f.markErr
	}
	f.marked++
	return nil
}

func testBatch() fetch.Batch {
	return fetch.Batch{
		"steps": {
			{UUID: "s1", Value: 100.0, DateFrom: 1, DateTo: 2, SourceID: "src", SourceName: "Src"},
		},
	}
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func scratchFileCount(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read scratch dir: %v", err)
	}
	return len(entries)
}

func TestUploadSuccessMarksSynced(t *testing.T) {
	client := &fakeClient{}
	state := &fakeState{}
	scratch := t.TempDir()

	u := New(client, state, "sdk_healthkit", scratch, quietLogger())
	if err := u.Upload(context.Background(), testBatch()); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	if state.marked != 1 {
		t.Errorf("MarkSyncedNow called %d times, want 1", state.marked)
	}
	if client.source != "sdk_healthkit" {
		t.Errorf("data source = %q, want sdk_healthkit", client.source)
	}

	var decoded map[string][]sample.Normalized
	if err := json.Unmarshal(client.uploaded, &decoded); err != nil {
		t.Fatalf("uploaded payload is not valid JSON: %v", err)
	}
	if len(decoded["steps"]) != 1 {
		t.Errorf("uploaded payload missing steps samples: %s", client.uploaded)
	}

	if n := scratchFileCount(t, scratch); n != 0 {
		t.Errorf("scratch dir has %d leftover files, want 0", n)
	}
}

// TestUploadFailureLeavesStateUntouched is the core retry guarantee:
// MarkSyncedNow is called iff the upload succeeded.
func TestUploadFailureLeavesStateUntouched(t *testing.T) {
	client := &fakeClient{err: errors.New("network down")}
	state := &fakeState{}
	scratch := t.TempDir()

	u := New(client, state, "sdk_healthkit", scratch, quietLogger())
	err := u.Upload(context.Background(), testBatch())
	if err == nil {
		t.Fatal("Upload should fail when the client fails")
	}

	if state.marked != 0 {
		t.Errorf("MarkSyncedNow called %d times after failed upload, want 0", state.marked)
	}
	if n := scratchFileCount(t, scratch); n != 0 {
		t.Errorf("scratch file must be removed on failure paths too, found %d", n)
	}
}

func TestUploadSurfacesPersistFailure(t *testing.T) {
	client := &fakeClient{}
	state := &fakeState{markErr: errors.New("disk full")}

	u := New(client, state, "sdk_healthkit", t.TempDir(), quietLogger())
	err := u.Upload(context.Background(), testBatch())
	if err == nil {
		t.Fatal("a failed state update after successful upload must surface")
	}
	if client.calls != 1 {
		t.Errorf("upload calls = %d, want 1", client.calls)
	}
}
