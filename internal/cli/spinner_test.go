package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
)

func TestSpinnerStop(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner(context.Background(), "fetching graph")
	s.w = &buf
	s.Start()
	time.Sleep(120 * time.Millisecond)
	s.Stop()
	s.Stop()

	if !bytes.Contains(buf.Bytes(), []byte("fetching graph")) {
		t.Errorf("spinner output = %q", buf.String())
	}
}

func TestSpinnerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := newSpinner(ctx, "waiting")
	s.w = &bytes.Buffer{}
	s.Start()
	cancel()

	select {
	case <-s.stopped:
	case <-time.After(time.Second):
		t.Fatal("spinner kept running after cancel")
	}
	s.Stop()
}

func TestSpinnerDone(t *testing.T) {
	var out bytes.Buffer
	old := stdout
	stdout = &out
	t.Cleanup(func() { stdout = old })

	s := newSpinner(context.Background(), "saving")
	s.w = &bytes.Buffer{}
	if err := s.Start().Done("saved", nil); err != nil {
		t.Errorf("Done(nil) = %v", err)
	}

	boom := errors.New("boom")
	s = newSpinner(context.Background(), "saving")
	s.w = &bytes.Buffer{}
	if err := s.Start().Done("save failed", boom); err != boom {
		t.Errorf("Done(err) = %v, want boom", err)
	}
	if !bytes.Contains(out.Bytes(), []byte("saved")) || !bytes.Contains(out.Bytes(), []byte("save failed")) {
		t.Errorf("output = %q", out.String())
	}
}
