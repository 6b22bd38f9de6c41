package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/iamvkosarev/ai-baby-bot/config"
	"github.com/iamvkosarev/ai-baby-bot/internal/avatar"
	"github.com/iamvkosarev/ai-baby-bot/internal/model"
	openai_tools "github.com/iamvkosarev/ai-baby-bot/pkg/openai-tools"
	"github.com/iamvkosarev/ai-baby-bot/pkg/local"
	"github.com/iamvkosarev/ai-baby-bot/pkg/pcm"
	"github.com/mudler/xlog"
	"github.com/sashabaranov/go-openai"
)

const (
	OpenAIRoleSystem    = "system"
	OpenAIRoleUser      = "user"
	OpenAIRoleAssistant = "assistant"
	OpenAIRoleUnknown   = "unknown"

	minTeachScore = 1
	maxTeachScore = 5
	xpPerScore    = 10

	careReactionMaxTokens = 60
	speechFormatPCM       = openai.SpeechResponseFormat("pcm")
	speechMimeType        = "audio/wav"
)

var (
	ErrEmptySpeech = errors.New("speech synthesis returned no audio")
)

type OpenAIClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	CreateImage(ctx context.Context, req openai.ImageRequest) (openai.ImageResponse, error)
	CreateSpeech(ctx context.Context, req openai.CreateSpeechRequest) (openai.RawResponse, error)
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

type TokenCounter func(messages []openai.ChatCompletionMessage, model string) (int, error)

type TeachEvaluation struct {
	Reply    string
	Score    int
	XPGained int
	Memory   string
}

type OpenAIUsecase struct {
	client      OpenAIClient
	cfg         config.OpenAI
	language    local.Language
	countTokens TokenCounter
	now         func() time.Time
}

func NewOpenAIClient(cfg config.OpenAI) *openai.Client {
	clientConfig := openai.DefaultConfig(cfg.OpenAIAPIKey)
	clientConfig.BaseURL = cfg.OpenAIBaseURL
	clientConfig.HTTPClient = &http.Client{
		Timeout: cfg.RequestTimeout,
	}
	return openai.NewClientWithConfig(clientConfig)
}

func NewOpenAIUsecase(client OpenAIClient, cfg config.OpenAI, language local.Language) *OpenAIUsecase {
	return &OpenAIUsecase{
		client:      client,
		cfg:         cfg,
		language:    language,
		countTokens: openai_tools.CountToken,
		now:         time.Now,
	}
}

// WithTokenCounter replaces the tiktoken based counter.
func (o *OpenAIUsecase) WithTokenCounter(counter TokenCounter) *OpenAIUsecase {
	o.countTokens = counter
	return o
}

func (o *OpenAIUsecase) ChatReply(
	ctx context.Context,
	baby model.Baby,
	history []model.ChatMessage,
	msg string,
) string {
	messageHistory := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messageHistory = append(
		messageHistory, openai.ChatCompletionMessage{
			Role:    OpenAIRoleSystem,
			Content: o.babyPersona(baby),
		},
	)
	for _, message := range history {
		messageHistory = append(
			messageHistory, openai.ChatCompletionMessage{
				Role:    parseMessageSourceToRole(message.Source),
				Content: message.Body,
			},
		)
	}
	messageHistory = append(
		messageHistory, openai.ChatCompletionMessage{
			Role:    OpenAIRoleUser,
			Content: msg,
		},
	)
	messageHistory = o.trimHistory(messageHistory)

	req := openai.ChatCompletionRequest{
		Model:       o.cfg.ChatModel,
		Temperature: o.cfg.ModelTemperature,
		MaxTokens:   o.cfg.MaxReplyTokens,
		N:           1,
		Messages:    messageHistory,
	}
	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		xlog.Error("Chat completion failed", "baby", baby.Name, "error", err)
		return textChatErrorReply.Text(o.language)
	}
	reply := firstChoice(resp)
	if reply == "" {
		return textChatDefaultReply.Text(o.language)
	}
	return reply
}

// trimHistory drops the oldest turns, never the persona, until the prompt fits the token limit.
func (o *OpenAIUsecase) trimHistory(messages []openai.ChatCompletionMessage) []openai.ChatCompletionMessage {
	for len(messages) > 2 {
		tokenCount, err := o.countTokens(messages, o.cfg.ChatModel)
		if err != nil {
			xlog.Warn("Failed to count tokens, sending history untrimmed", "error", err)
			return messages
		}
		if tokenCount < o.cfg.HistoryTokenLimit {
			return messages
		}
		messages = append(messages[:1], messages[2:]...)
		xlog.Debug("History trimmed due to token limit", "tokens", tokenCount)
	}
	return messages
}

func (o *OpenAIUsecase) babyPersona(baby model.Baby) string {
	var memoryContext string
	if len(baby.Memory) > 0 {
		memoryContext = fmt.Sprintf("Things you have already learned and know: %s.", strings.Join(baby.Memory, "; "))
	}
	return fmt.Sprintf(
		`You are %s, a virtual AI baby.
Age: %d days.
Intelligence level: %s.
Personality: cute, curious and playful.
%s

Instructions:
- Answer briefly and engagingly, always in %s.
- Use emojis.
- If your level is low ("%s"), talk in a simpler way (e.g. "Goo goo", "I want to learn!").
- If your level is high ("%s" or above), speak more clearly but stay cute.
- If asked about something you have learned (listed above), answer proudly.
- You love learning new things.
- Never break character.`,
		baby.Name,
		baby.AgeInDays(o.now()),
		baby.Level,
		memoryContext,
		languageName(o.language),
		model.Levels[0].Title,
		model.Levels[2].Title,
	)
}

// GenerateAvatar returns a data URI for the baby portrait. It never fails: when the
// image endpoint is unavailable the vector fallback is returned.
func (o *OpenAIUsecase) GenerateAvatar(ctx context.Context, name string, gender model.Gender) string {
	prompt := fmt.Sprintf(
		"A cute, adorable 3D cartoon render of a newborn %s, circular frame portrait, soft lighting, "+
			"Pixar style, high quality, expressive face, pastel colors, white background.",
		genderNoun(gender),
	)
	resp, err := o.client.CreateImage(
		ctx, openai.ImageRequest{
			Prompt:         prompt,
			Model:          o.cfg.ImageModel,
			N:              1,
			Size:           o.cfg.ImageSize,
			ResponseFormat: openai.CreateImageResponseFormatB64JSON,
		},
	)
	if err != nil {
		if isQuotaExceeded(err) {
			xlog.Warn("Image quota exhausted, using fallback avatar", "baby", name)
		} else {
			xlog.Error("Avatar generation failed, using fallback avatar", "baby", name, "error", err)
		}
		return avatar.SVGDataURI(name, gender)
	}
	for _, data := range resp.Data {
		if data.B64JSON != "" {
			return fmt.Sprintf("data:%s;base64,%s", avatar.MimePNG, data.B64JSON)
		}
		if data.URL != "" {
			return data.URL
		}
	}
	xlog.Warn("Image response had no data, using fallback avatar", "baby", name)
	return avatar.SVGDataURI(name, gender)
}

type teachReply struct {
	Reply  string     `json:"reply"`
	Score  teachScore `json:"score"`
	Memory string     `json:"memory"`
}

// teachScore accepts the rating as a JSON number or a numeric string.
// Anything else decodes to zero, which ranks as the lowest score.
type teachScore float64

func (t *teachScore) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		*t = 0
		return nil
	}
	*t = teachScore(value)
	return nil
}

func (t teachScore) clamp() int {
	score := math.Round(float64(t))
	switch {
	case math.IsNaN(score) || score < minTeachScore:
		return minTeachScore
	case score > maxTeachScore:
		return maxTeachScore
	}
	return int(score)
}

func (o *OpenAIUsecase) EvaluateTeaching(ctx context.Context, topic, content string) TeachEvaluation {
	prompt := fmt.Sprintf(
		`The user is teaching you about: %q.
Content: %q.

Act as an AI baby learning this. Write every text field in %s.
1. Reply thanking them and commenting on what you learned in a cute way.
2. Rate the quality of the teaching from 1 to 5.
3. Write a short (one sentence) summary of the learned fact to keep in memory.

Return ONLY a JSON object:
{"reply": "your answer here", "score": number_from_1_to_5, "memory": "summary of the learned fact"}`,
		topic, content, languageName(o.language),
	)
	fallback := TeachEvaluation{Reply: textTeachErrorReply.Text(o.language)}

	resp, err := o.client.CreateChatCompletion(
		ctx, openai.ChatCompletionRequest{
			Model: o.cfg.ChatModel,
			Messages: []openai.ChatCompletionMessage{
				{Role: OpenAIRoleUser, Content: prompt},
			},
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		},
	)
	if err != nil {
		xlog.Error("Teach evaluation failed", "topic", topic, "error", err)
		return fallback
	}

	var result teachReply
	if err = json.Unmarshal([]byte(extractJSON(firstChoice(resp))), &result); err != nil {
		xlog.Error("Teach evaluation returned invalid JSON", "topic", topic, "error", err)
		return fallback
	}

	score := result.Score.clamp()
	reply := strings.TrimSpace(result.Reply)
	if reply == "" {
		reply = textTeachDefaultReply.Text(o.language)
	}
	return TeachEvaluation{
		Reply:    reply,
		Score:    score,
		XPGained: score * xpPerScore,
		Memory:   strings.TrimSpace(result.Memory),
	}
}

func (o *OpenAIUsecase) CareReaction(ctx context.Context, baby model.Baby, action model.CareAction) string {
	fallback := textCareDefaultReaction[action].Text(o.language)
	prompt := fmt.Sprintf(
		"Your caretaker %s. You now feel %s (hunger %d/100, energy %d/100). "+
			"React in one short, cute sentence with emojis.",
		textCareActionPrompt[action], baby.Mood, baby.Hunger, baby.Energy,
	)
	resp, err := o.client.CreateChatCompletion(
		ctx, openai.ChatCompletionRequest{
			Model:       o.cfg.ChatModel,
			Temperature: o.cfg.ModelTemperature,
			MaxTokens:   careReactionMaxTokens,
			Messages: []openai.ChatCompletionMessage{
				{Role: OpenAIRoleSystem, Content: o.babyPersona(baby)},
				{Role: OpenAIRoleUser, Content: prompt},
			},
		},
	)
	if err != nil {
		xlog.Error("Care reaction failed", "action", action, "error", err)
		return fallback
	}
	if reaction := firstChoice(resp); reaction != "" {
		return reaction
	}
	return fallback
}

// Synthesize asks for raw 24kHz PCM and wraps it as WAV.
func (o *OpenAIUsecase) Synthesize(ctx context.Context, text string, gender model.Gender) (model.Speech, error) {
	res, err := o.client.CreateSpeech(
		ctx, openai.CreateSpeechRequest{
			Model:          openai.SpeechModel(o.cfg.SpeechModel),
			Input:          text,
			Voice:          voiceFor(gender),
			ResponseFormat: speechFormatPCM,
		},
	)
	if err != nil {
		return model.Speech{}, fmt.Errorf("failed to create speech: %w", err)
	}
	defer res.Close()

	raw, err := io.ReadAll(res)
	if err != nil {
		return model.Speech{}, fmt.Errorf("failed to read speech: %w", err)
	}
	buf := pcm.Decode(raw, pcm.DefaultSampleRate, pcm.DefaultChannels)
	if len(buf.Samples) == 0 {
		return model.Speech{}, ErrEmptySpeech
	}
	return model.Speech{
		MimeType: speechMimeType,
		Audio:    buf.WAV(),
		Duration: buf.Duration(),
	}, nil
}

func (o *OpenAIUsecase) Transcribe(ctx context.Context, audio []byte, fileName string) (string, error) {
	resp, err := o.client.CreateTranscription(
		ctx, openai.AudioRequest{
			Model:    o.cfg.TranscriptionModel,
			FilePath: fileName,
			Reader:   bytes.NewReader(audio),
			Language: string(o.language),
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to transcribe audio: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}

func firstChoice(resp openai.ChatCompletionResponse) string {
	if len(resp.Choices) == 0 {
		return ""
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content)
}

// extractJSON strips markdown fences some models wrap around JSON answers.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func isQuotaExceeded(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	return false
}

func genderNoun(gender model.Gender) string {
	switch gender {
	case model.GenderBoy:
		return "baby boy"
	case model.GenderGirl:
		return "baby girl"
	default:
		return "baby"
	}
}

func voiceFor(gender model.Gender) openai.SpeechVoice {
	switch gender {
	case model.GenderBoy:
		return openai.VoiceFable
	case model.GenderGirl:
		return openai.VoiceShimmer
	default:
		return openai.VoiceNova
	}
}

func parseMessageSourceToRole(source model.MessageSource) string {
	switch source {
	case model.MessageSourceUser:
		return OpenAIRoleUser
	case model.MessageSourceAssistant:
		return OpenAIRoleAssistant
	default:
		return OpenAIRoleUnknown
	}
}
