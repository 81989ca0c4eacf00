package converter

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/dskvich/chatgpt-line-bot/pkg/domain"
	"github.com/dskvich/chatgpt-line-bot/pkg/logger"
)

// AudioDownloader fetches audio content owned by one channel. It returns
// domain.ErrNoContent when nothing can be retrieved.
type AudioDownloader interface {
	DownloadAudio(ctx context.Context, id string) (io.ReadCloser, string, error)
}

type SpeechTranscriber interface {
	TranscribeAudio(ctx context.Context, name string, audio io.Reader) (string, error)
}

type VoiceToText struct {
	transcriber SpeechTranscriber
	downloaders map[string]AudioDownloader
}

func NewVoiceToText(transcriber SpeechTranscriber) *VoiceToText {
	return &VoiceToText{
		transcriber: transcriber,
		downloaders: make(map[string]AudioDownloader),
	}
}

// Register binds a channel name to the downloader that serves its audio references.
func (v *VoiceToText) Register(channel string, downloader AudioDownloader) {
	v.downloaders[channel] = downloader
}

func (v *VoiceToText) Transcribe(ctx context.Context, ref domain.AudioRef) (string, error) {
	downloader, ok := v.downloaders[ref.Channel]
	if !ok {
		return "", fmt.Errorf("%w: no downloader for channel %q", domain.ErrNoContent, ref.Channel)
	}

	audio, name, err := downloader.DownloadAudio(ctx, ref.ID)
	if err != nil {
		return "", fmt.Errorf("downloading audio: %w", err)
	}
	defer func() {
		if closeErr := audio.Close(); closeErr != nil {
			slog.ErrorContext(ctx, "closing audio", logger.Err(closeErr))
		}
	}()

	text, err := v.transcriber.TranscribeAudio(ctx, name, audio)
	if err != nil {
		return "", fmt.Errorf("transcribing audio file: %w", err)
	}

	return text, nil
}
