package converter

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dskvich/chatgpt-line-bot/pkg/domain"
)

type fakeDownloader struct {
	data   string
	err    error
	closed bool
}

func (f *fakeDownloader) DownloadAudio(_ context.Context, id string) (io.ReadCloser, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	return f, id + ".m4a", nil
}

func (f *fakeDownloader) Read(p []byte) (int, error) {
	n := copy(p, f.data)
	f.data = f.data[n:]
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

func (f *fakeDownloader) Close() error {
	f.closed = true
	return nil
}

type fakeTranscriber struct {
	gotName string
	gotData string
	err     error
}

func (f *fakeTranscriber) TranscribeAudio(_ context.Context, name string, audio io.Reader) (string, error) {
	b, _ := io.ReadAll(audio)
	f.gotName, f.gotData = name, string(b)
	return strings.ToUpper(f.gotData), f.err
}

func TestTranscribeUsesChannelDownloader(t *testing.T) {
	downloader := &fakeDownloader{data: "hello"}
	transcriber := &fakeTranscriber{}

	v := NewVoiceToText(transcriber)
	v.Register("line", downloader)

	text, err := v.Transcribe(context.Background(), domain.AudioRef{Channel: "line", ID: "42"})
	require.NoError(t, err)
	assert.Equal(t, "HELLO", text)
	assert.Equal(t, "42.m4a", transcriber.gotName)
	assert.True(t, downloader.closed)
}

func TestTranscribeUnknownChannel(t *testing.T) {
	v := NewVoiceToText(&fakeTranscriber{})

	_, err := v.Transcribe(context.Background(), domain.AudioRef{Channel: "irc", ID: "1"})
	assert.ErrorIs(t, err, domain.ErrNoContent)
}

func TestTranscribeDownloadFailure(t *testing.T) {
	v := NewVoiceToText(&fakeTranscriber{})
	v.Register("line", &fakeDownloader{err: domain.ErrNoContent})

	_, err := v.Transcribe(context.Background(), domain.AudioRef{Channel: "line", ID: "1"})
	assert.ErrorIs(t, err, domain.ErrNoContent)
}

func TestTranscribeBackendFailure(t *testing.T) {
	boom := errors.New("boom")
	v := NewVoiceToText(&fakeTranscriber{err: boom})
	v.Register("line", &fakeDownloader{data: "x"})

	_, err := v.Transcribe(context.Background(), domain.AudioRef{Channel: "line", ID: "1"})
	assert.ErrorIs(t, err, boom)
}
