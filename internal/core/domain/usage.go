package domain

// UsageKind selects which quantity of a Usage is billable.
type UsageKind string

const (
	UsageTranslate  UsageKind = "translate"
	UsageTranscribe UsageKind = "transcribe"
	UsageSpeech     UsageKind = "speech"
)

// Reason maps a usage kind to the ledger reason used when charging for it.
func (k UsageKind) Reason() LedgerReason {
	switch k {
	case UsageTranscribe:
		return ReasonChargeTranscribe
	case UsageSpeech:
		return ReasonChargeSpeech
	default:
		return ReasonChargeTranslate
	}
}

// Usage is the provider-reported usage signal a charge is computed from.
type Usage struct {
	Kind         UsageKind `json:"kind"`
	Provider     string    `json:"provider"`
	Model        string    `json:"model,omitempty"`
	InputTokens  int64     `json:"inputTokens,omitempty"`
	OutputTokens int64     `json:"outputTokens,omitempty"`
	Seconds      float64   `json:"seconds,omitempty"`
	Characters   int64     `json:"characters,omitempty"`
}

// Metadata renders the usage for storage alongside a ledger entry.
func (u Usage) Metadata() Metadata {
	m := Metadata{"provider": u.Provider, "kind": string(u.Kind)}
	if u.Model != "" {
		m["model"] = u.Model
	}
	if u.InputTokens > 0 || u.OutputTokens > 0 {
		m["input_tokens"] = u.InputTokens
		m["output_tokens"] = u.OutputTokens
	}
	if u.Seconds > 0 {
		m["seconds"] = u.Seconds
	}
	if u.Characters > 0 {
		m["characters"] = u.Characters
	}
	return m
}

// TranslateInput is one translation request.
type TranslateInput struct {
	Text           string `json:"text"`
	SourceLanguage string `json:"sourceLanguage,omitempty"`
	TargetLanguage string `json:"targetLanguage"`
}

// TranslateOutput is a translation tagged with the provider that produced it.
type TranslateOutput struct {
	Text     string `json:"text"`
	Provider string `json:"provider"`
	Usage    Usage  `json:"-"`
}

// AudioSegment is one independently transcribable slice of audio.
type AudioSegment struct {
	Index    int     `json:"index"`
	Audio    []byte  `json:"audio"`
	MimeType string  `json:"mimeType"`
	Seconds  float64 `json:"seconds"`
}

// TranscribeInput is a batch of segments sharing one language hint.
type TranscribeInput struct {
	Language string
	Segments []AudioSegment
}

// TranscriptSegment is the text for one AudioSegment.
type TranscriptSegment struct {
	Index    int    `json:"index"`
	Text     string `json:"text"`
	Provider string `json:"provider"`
	Usage    Usage  `json:"-"`
}

// Transcript is the ordered transcription of a batch.
type Transcript struct {
	Text     string              `json:"text"`
	Segments []TranscriptSegment `json:"segments"`
}

// SpeechInput is one text-to-speech request.
type SpeechInput struct {
	Text   string `json:"text"`
	Voice  string `json:"voice,omitempty"`
	Format string `json:"format,omitempty"`
}

// SpeechOutput is synthesized audio tagged with the provider that produced it.
type SpeechOutput struct {
	Audio    []byte `json:"audio"`
	MimeType string `json:"mimeType"`
	Provider string `json:"provider"`
	Usage    Usage  `json:"-"`
}

// RelayRequest dispatches a stored upload to the relay for long-running transcription.
type RelayRequest struct {
	JobID       string `json:"jobID"`
	InputRef    string `json:"inputRef"`
	Language    string `json:"language,omitempty"`
	CallbackURL string `json:"callbackURL"`
}
