package dto

import "github.com/SscSPs/usage_billing_app/internal/core/domain"

// IdempotencyKeyHeader lets clients retry a paid request without being charged twice.
const IdempotencyKeyHeader = "Idempotency-Key"

type TranslateRequest struct {
	Text           string `json:"text" binding:"required"`
	SourceLanguage string `json:"sourceLanguage"`
	TargetLanguage string `json:"targetLanguage" binding:"required"`
}

func (r TranslateRequest) ToDomain() domain.TranslateInput {
	return domain.TranslateInput{Text: r.Text, SourceLanguage: r.SourceLanguage, TargetLanguage: r.TargetLanguage}
}

// AudioSegmentRequest carries base64 audio in JSON.
type AudioSegmentRequest struct {
	Audio    []byte  `json:"audio" binding:"required"`
	MimeType string  `json:"mimeType" binding:"required"`
	Seconds  float64 `json:"seconds" binding:"gte=0"`
}

type TranscribeRequest struct {
	Language string                `json:"language"`
	Segments []AudioSegmentRequest `json:"segments" binding:"required,min=1,max=64,dive"`
}

func (r TranscribeRequest) ToDomain() domain.TranscribeInput {
	segments := make([]domain.AudioSegment, len(r.Segments))
	for i, s := range r.Segments {
		segments[i] = domain.AudioSegment{Index: i, Audio: s.Audio, MimeType: s.MimeType, Seconds: s.Seconds}
	}
	return domain.TranscribeInput{Language: r.Language, Segments: segments}
}

type SpeechRequest struct {
	Text   string `json:"text" binding:"required,max=5000"`
	Voice  string `json:"voice"`
	Format string `json:"format"`
}

func (r SpeechRequest) ToDomain() domain.SpeechInput {
	return domain.SpeechInput{Text: r.Text, Voice: r.Voice, Format: r.Format}
}
