package source

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestKindValid(t *testing.T) {
	tests := []struct {
		kind Kind
		want bool
	}{
		{KindFile, true},
		{KindDecode, true},
		{KindFollow, true},
		{"", false},
		{"microphone", false},
	}

	for _, tt := range tests {
		if got := tt.kind.Valid(); got != tt.want {
			t.Errorf("Kind(%q).Valid() = %v, want %v", tt.kind, got, tt.want)
		}
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audio.wav")
	if err := os.WriteFile(path, []byte("RIFFdata"), 0644); err != nil {
		t.Fatal(err)
	}

	src, err := Open(context.Background(), Options{Kind: KindFile, Input: path, Logger: testLogger()})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(data) != "RIFFdata" {
		t.Errorf("read %q, want RIFFdata", data)
	}
}

func TestOpenFile_Missing(t *testing.T) {
	_, err := OpenFile(filepath.Join(t.TempDir(), "nope.wav"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error = %v, want ErrNotExist", err)
	}
}

func TestOpenFile_Stdin(t *testing.T) {
	for _, path := range []string{"", "-"} {
		src, err := OpenFile(path)
		if err != nil {
			t.Fatalf("OpenFile(%q) error = %v", path, err)
		}
		if _, ok := src.(stdin); !ok {
			t.Errorf("OpenFile(%q) = %T, want stdin", path, src)
		}
		if err := src.Close(); err != nil {
			t.Errorf("stdin Close() error = %v", err)
		}
	}
}

func TestOpen_Errors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want string
	}{
		{name: "unknown kind", opts: Options{Kind: "mic"}, want: "unknown source kind"},
		{name: "follow stdin", opts: Options{Kind: KindFollow, Input: "-"}, want: "needs a file path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(context.Background(), tt.opts)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Open() error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestOpener_Defers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "late.wav")
	open := Options{Kind: KindFile, Input: path}.Opener()

	// the file only needs to exist once the opener runs
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	src, err := open(context.Background())
	if err != nil {
		t.Fatalf("opener error = %v", err)
	}
	src.Close()
}

func TestDecoderArgs(t *testing.T) {
	got := strings.Join(DecoderArgs("https://radio.example/live"), " ")
	want := "-loglevel panic -i https://radio.example/live -ac 1 -acodec pcm_s16le -ar 16000 -f wav -"
	if got != want {
		t.Errorf("DecoderArgs() = %q, want %q", got, want)
	}
}

// fakeFFmpeg writes an executable shell script standing in for ffmpeg.
func fakeFFmpeg(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported")
	}
	path := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDecoder_StreamsOutput(t *testing.T) {
	bin := fakeFFmpeg(t, `printf 'RIFFpcm'; echo "warning: guessed layout" >&2`)

	dec, err := StartDecoder(context.Background(), "in.mp3", DecoderOptions{Binary: bin, Logger: testLogger()})
	if err != nil {
		t.Fatalf("StartDecoder() error = %v", err)
	}

	data, err := io.ReadAll(dec)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(data) != "RIFFpcm" {
		t.Errorf("read %q, want RIFFpcm", data)
	}
	if err := dec.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := dec.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestDecoder_ReportsExitFailure(t *testing.T) {
	bin := fakeFFmpeg(t, `printf 'half'; exit 3`)

	dec, err := StartDecoder(context.Background(), "in.mp3", DecoderOptions{Binary: bin, Logger: testLogger()})
	if err != nil {
		t.Fatalf("StartDecoder() error = %v", err)
	}
	defer dec.Close()

	_, err = io.ReadAll(dec)
	if err == nil || !strings.Contains(err.Error(), "decoder exited") {
		t.Errorf("ReadAll() error = %v, want decoder exit error", err)
	}
}

func TestDecoder_CloseInterrupts(t *testing.T) {
	bin := fakeFFmpeg(t, `exec sleep 30`)

	dec, err := StartDecoder(context.Background(), "in.mp3", DecoderOptions{
		Binary:    bin,
		WaitDelay: 500 * time.Millisecond,
		Logger:    testLogger(),
	})
	if err != nil {
		t.Fatalf("StartDecoder() error = %v", err)
	}

	readErr := make(chan error, 1)
	go func() {
		_, err := dec.Read(make([]byte, 64))
		readErr <- err
	}()

	time.Sleep(50 * time.Millisecond)
	start := time.Now()
	if err := dec.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Close() took %v", elapsed)
	}

	select {
	case err := <-readErr:
		if err == nil {
			t.Error("blocked Read should fail after Close")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Read still blocked after Close")
	}
}

func TestDecoder_MissingBinary(t *testing.T) {
	_, err := StartDecoder(context.Background(), "in.mp3", DecoderOptions{
		Binary: filepath.Join(t.TempDir(), "no-ffmpeg"),
		Logger: testLogger(),
	})
	if err == nil {
		t.Error("expected error for missing binary")
	}
}

func TestLineLogger(t *testing.T) {
	var out strings.Builder
	l := &lineLogger{logger: slog.New(slog.NewTextHandler(&out, nil))}

	l.Write([]byte("first li"))
	l.Write([]byte("ne\nsecond"))
	if strings.Contains(out.String(), "second") {
		t.Error("partial line logged before newline")
	}
	l.flush()

	got := out.String()
	if !strings.Contains(got, `line="first line"`) || !strings.Contains(got, "line=second") {
		t.Errorf("log output = %q", got)
	}
}

func TestCheckFFmpeg_NotInstalled(t *testing.T) {
	status := CheckFFmpeg(context.Background(), filepath.Join(t.TempDir(), "no-ffmpeg"))
	if status.Installed {
		t.Error("expected Installed=false for missing binary")
	}
	if status.Path != "" {
		t.Error("expected empty path when not installed")
	}
}

func TestCheckFFmpeg_Version(t *testing.T) {
	bin := fakeFFmpeg(t, `echo "ffmpeg version 7.1 Copyright (c)"; echo "built with gcc"`)

	status := CheckFFmpeg(context.Background(), bin)
	if !status.Installed || status.Path == "" {
		t.Fatalf("status = %+v, want installed", status)
	}
	if status.Version != "ffmpeg version 7.1 Copyright (c)" {
		t.Errorf("Version = %q", status.Version)
	}
}
