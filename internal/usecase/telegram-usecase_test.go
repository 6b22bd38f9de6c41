package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/iamvkosarev/ai-baby-bot/config"
	"github.com/iamvkosarev/ai-baby-bot/internal/model"
	"github.com/iamvkosarev/ai-baby-bot/internal/usecase"
	"github.com/iamvkosarev/ai-baby-bot/pkg/local"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sashabaranov/go-openai"
)

// fakeBot records everything the usecase sends instead of calling Telegram.
type fakeBot struct {
	mu       sync.Mutex
	sent     []api.Chattable
	requests []api.Chattable
	fileURL  string
	sendErr  func(c api.Chattable) error
}

func (b *fakeBot) Send(c api.Chattable) (api.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sendErr != nil {
		if err := b.sendErr(c); err != nil {
			return api.Message{}, err
		}
	}
	b.sent = append(b.sent, c)
	return api.Message{}, nil
}

func (b *fakeBot) Request(c api.Chattable) (*api.APIResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.requests = append(b.requests, c)
	return &api.APIResponse{Ok: true}, nil
}

func (b *fakeBot) GetFileDirectURL(string) (string, error) {
	if b.fileURL == "" {
		return "", errOffline
	}
	return b.fileURL, nil
}

func (b *fakeBot) GetUpdatesChan(api.UpdateConfig) api.UpdatesChannel {
	return make(chan api.Update)
}

func (b *fakeBot) StopReceivingUpdates() {}

func (b *fakeBot) texts() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	texts := make([]string, 0, len(b.sent))
	for _, c := range b.sent {
		if msg, ok := c.(api.MessageConfig); ok {
			texts = append(texts, msg.Text)
		}
	}
	return texts
}

func (b *fakeBot) lastText() string {
	texts := b.texts()
	Expect(texts).NotTo(BeEmpty())
	return texts[len(texts)-1]
}

func (b *fakeBot) lastMessage() api.MessageConfig {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := len(b.sent) - 1; i >= 0; i-- {
		if msg, ok := b.sent[i].(api.MessageConfig); ok {
			return msg
		}
	}
	Fail("no message was sent")
	return api.MessageConfig{}
}

func (b *fakeBot) photos() []api.PhotoConfig {
	b.mu.Lock()
	defer b.mu.Unlock()

	var photos []api.PhotoConfig
	for _, c := range b.sent {
		if photo, ok := c.(api.PhotoConfig); ok {
			photos = append(photos, photo)
		}
	}
	return photos
}

func (b *fakeBot) audios() []api.AudioConfig {
	b.mu.Lock()
	defer b.mu.Unlock()

	var audios []api.AudioConfig
	for _, c := range b.sent {
		if audio, ok := c.(api.AudioConfig); ok {
			audios = append(audios, audio)
		}
	}
	return audios
}

func toUpdate(raw map[string]any) api.Update {
	data, err := json.Marshal(raw)
	Expect(err).NotTo(HaveOccurred())
	var update api.Update
	Expect(json.Unmarshal(data, &update)).To(Succeed())
	return update
}

func chatJSON(chatID int64) map[string]any {
	return map[string]any{"id": chatID, "type": "private"}
}

func textUpdate(chatID int64, text string) api.Update {
	message := map[string]any{
		"message_id": 1,
		"date":       1767225600,
		"chat":       chatJSON(chatID),
		"text":       text,
	}
	if strings.HasPrefix(text, "/") {
		message["entities"] = []map[string]any{{"type": "bot_command", "offset": 0, "length": len(text)}}
	}
	return toUpdate(map[string]any{"update_id": 1, "message": message})
}

func voiceUpdate(chatID int64, fileID string) api.Update {
	return toUpdate(
		map[string]any{
			"update_id": 1,
			"message": map[string]any{
				"message_id": 1,
				"date":       1767225600,
				"chat":       chatJSON(chatID),
				"voice":      map[string]any{"file_id": fileID, "file_unique_id": fileID, "duration": 2},
			},
		},
	)
}

func callbackUpdate(chatID int64, data string) api.Update {
	return toUpdate(
		map[string]any{
			"update_id": 2,
			"callback_query": map[string]any{
				"id":   "q1",
				"from": map[string]any{"id": chatID, "is_bot": false, "first_name": "Ana"},
				"data": data,
				"message": map[string]any{
					"message_id": 2,
					"date":       1767225600,
					"chat":       chatJSON(chatID),
				},
			},
		},
	)
}

var _ = Describe("TelegramUsecase", func() {
	const chatID = int64(42)

	var (
		ctx context.Context
		f   *fixture
		bot *fakeBot
		tg  *usecase.TelegramUsecase
		key string
	)

	newTelegram := func(cfg config.Telegram) *usecase.TelegramUsecase {
		t, err := usecase.NewTelegramUsecase(
			cfg, local.Por, usecase.TelegramUsecaseDeps{
				Sessions: f.sessions,
				Baby:     f.baby,
				Bot:      bot,
			},
		)
		Expect(err).NotTo(HaveOccurred())
		return t
	}

	send := func(text string) {
		tg.HandleUpdate(ctx, textUpdate(chatID, text))
	}
	choose := func(data string) {
		tg.HandleUpdate(ctx, callbackUpdate(chatID, data))
	}

	BeforeEach(func() {
		ctx = context.Background()
		f = newFixture()
		bot = &fakeBot{}
		tg = newTelegram(config.Telegram{Enabled: true})
		key = usecase.TelegramSessionKey(chatID)
	})

	It("registers the bot commands", func() {
		Expect(bot.requests).To(HaveLen(1))
	})

	It("walks through signup and the gender buttons", func() {
		send("/signup")
		Expect(bot.texts()).To(Equal([]string{"Qual é o seu nome de usuário?"}))
		send("Ana")
		Expect(bot.lastText()).To(Equal("Agora a senha:"))
		send("123")
		Expect(bot.lastText()).To(Equal("Qual vai ser o nome do bebê?"))
		send("Leo")
		keyboard := bot.lastMessage()
		Expect(keyboard.Text).To(Equal("Menino, menina ou neutro?"))
		Expect(keyboard.ReplyMarkup).To(BeAssignableToTypeOf(api.InlineKeyboardMarkup{}))

		choose("gender:boy")
		Expect(bot.texts()).To(ContainElement("Leo nasceu! 🎉"))
		Expect(bot.photos()).To(HaveLen(1))
		Expect(bot.photos()[0].Caption).To(Equal("Leo"))

		session := f.sessions.Session(key)
		Expect(session.View).To(Equal(model.ViewDashboard))
		Expect(session.Username).To(Equal("Ana"))
		Expect(session.Baby.Gender).To(Equal(model.GenderBoy))
	})

	It("restarts signup when the username is taken", func() {
		_, err := f.baby.Signup(ctx, "Ana", "123", "Leo", model.GenderBoy)
		Expect(err).NotTo(HaveOccurred())

		for _, text := range []string{"/signup", "ana", "x", "Bia"} {
			send(text)
		}
		choose("gender:girl")
		texts := bot.texts()
		Expect(texts[len(texts)-2:]).To(Equal([]string{"Esse usuário já existe!", "Qual é o seu nome de usuário?"}))

		session := f.sessions.Session(key)
		Expect(session.View).To(Equal(model.ViewSignup))
		Expect(session.Step).To(Equal(model.StepUsername))
		Expect(session.Form).To(Equal(model.Form{}))

		send("Bruna")
		Expect(bot.lastText()).To(Equal("Agora a senha:"))
	})

	It("logs in and shows the status", func() {
		_, err := f.baby.Signup(ctx, "Ana", "123", "Leo", model.GenderBoy)
		Expect(err).NotTo(HaveOccurred())

		for _, text := range []string{"/login", "Ana", "123"} {
			send(text)
		}
		texts := bot.texts()
		Expect(texts[len(texts)-2]).To(HavePrefix("👶 Leo"))
		Expect(f.sessions.Session(key).View).To(Equal(model.ViewDashboard))
	})

	It("asks again after wrong credentials", func() {
		_, err := f.baby.Signup(ctx, "Ana", "123", "Leo", model.GenderBoy)
		Expect(err).NotTo(HaveOccurred())

		for _, text := range []string{"/login", "Ana", "bad"} {
			send(text)
		}
		texts := bot.texts()
		Expect(texts[len(texts)-2:]).To(Equal([]string{"Usuário ou senha incorretos!", "Qual é o seu nome de usuário?"}))
		session := f.sessions.Session(key)
		Expect(session.LoggedIn()).To(BeFalse())
		Expect(session.Step).To(Equal(model.StepUsername))
	})

	It("sends a user without a baby through rebirth", func() {
		_, err := f.users.Register(ctx, "Bob", "abc")
		Expect(err).NotTo(HaveOccurred())

		for _, text := range []string{"/login", "Bob", "abc"} {
			send(text)
		}
		texts := bot.texts()
		Expect(texts[len(texts)-2:]).To(Equal([]string{
			"Você ainda não tem um bebê. Vamos criar um! 🍼",
			"Qual vai ser o nome do bebê?",
		}))
		Expect(f.sessions.Session(key).View).To(Equal(model.ViewRebirth))

		send("Nina")
		Expect(bot.lastText()).To(Equal("Menino, menina ou neutro?"))
		choose("gender:girl")
		Expect(bot.texts()).To(ContainElement("Nina nasceu! 🎉"))

		session := f.sessions.Session(key)
		Expect(session.View).To(Equal(model.ViewDashboard))
		Expect(session.Baby.Name).To(Equal("Nina"))
		Expect(session.Baby.UserOwner).To(Equal("Bob"))
	})

	It("ignores gender buttons outside the wizard", func() {
		choose("gender:boy")
		Expect(bot.texts()).To(BeEmpty())
		Expect(f.sessions.Session(key).View).To(Equal(model.ViewLogin))
	})

	It("refuses chats outside the allow list", func() {
		tg = newTelegram(config.Telegram{Enabled: true, IsNotPublic: true, AllowedTelegramID: []int64{7}})
		send("/start")
		Expect(bot.texts()).To(Equal([]string{"Você não tem permissão para usar este bot"}))
	})

	Context("logged in", func() {
		BeforeEach(func() {
			_, err := f.sessions.Signup(ctx, key, "Ana", "123", "Leo", model.GenderBoy)
			Expect(err).NotTo(HaveOccurred())
		})

		It("teaches with a topic and then the content", func() {
			f.client.CreateChatCompletionFunc = reply(`{"reply": "Aprendi!", "score": 3, "memory": "O sol é uma estrela."}`)

			send("/teach")
			Expect(bot.lastText()).To(Equal("Sobre o que você vai me ensinar? 📚"))
			send("Sol")
			Expect(bot.lastText()).To(Equal("Me conta tudo sobre Sol!"))
			send("É uma estrela")
			texts := bot.texts()
			Expect(texts[len(texts)-2:]).To(Equal([]string{"Aprendi!", "+30 XP ✨"}))

			session := f.sessions.Session(key)
			Expect(session.View).To(Equal(model.ViewDashboard))
			Expect(session.Baby.Memory).To(Equal([]string{"O sol é uma estrela."}))
		})

		It("chats from a voice note and answers with text and audio", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("ogg-bytes"))
			}))
			DeferCleanup(server.Close)
			bot.fileURL = server.URL + "/voice.ogg"

			var uploaded string
			f.client.CreateTranscriptionFunc = func(_ context.Context, req openai.AudioRequest) (openai.AudioResponse, error) {
				uploaded = req.FilePath
				return openai.AudioResponse{Text: " oi bebê "}, nil
			}
			f.client.CreateChatCompletionFunc = reply("Gugu!")
			f.client.CreateSpeechFunc = func(context.Context, openai.CreateSpeechRequest) (openai.RawResponse, error) {
				return rawAudio([]byte{0, 1, 0, 2}), nil
			}

			send("/chat")
			Expect(bot.lastText()).To(Equal("Pode falar comigo! Use /back para voltar. 💬"))
			tg.HandleUpdate(ctx, voiceUpdate(chatID, "v1"))

			Expect(uploaded).To(Equal("voice.ogg"))
			Expect(bot.lastText()).To(Equal("Gugu!"))
			Expect(bot.audios()).To(HaveLen(1))
			history := f.sessions.Session(key).ChatHistory
			Expect(history).To(HaveLen(2))
			Expect(history[0].Body).To(Equal("oi bebê"))
		})

		It("says so when a voice note cannot be downloaded", func() {
			server := httptest.NewServer(http.NotFoundHandler())
			DeferCleanup(server.Close)
			bot.fileURL = server.URL + "/voice.ogg"

			send("/chat")
			tg.HandleUpdate(ctx, voiceUpdate(chatID, "v1"))
			Expect(bot.lastText()).To(Equal("Não consegui ouvir direito 🙉"))
			Expect(f.sessions.Session(key).ChatHistory).To(BeEmpty())
		})

		It("uploads the drawn portrait for generated fallbacks", func() {
			send("/avatar")
			photos := bot.photos()
			Expect(photos).To(HaveLen(1))
			Expect(photos[0].File).To(BeAssignableToTypeOf(api.FileBytes{}))
		})
	})

	Context("with a hosted avatar", func() {
		const avatarURL = "https://cdn.example.com/leo.png"

		BeforeEach(func() {
			f.client.CreateImageFunc = func(context.Context, openai.ImageRequest) (openai.ImageResponse, error) {
				return openai.ImageResponse{Data: []openai.ImageResponseDataInner{{URL: avatarURL}}}, nil
			}
			_, err := f.sessions.Signup(ctx, key, "Ana", "123", "Leo", model.GenderBoy)
			Expect(err).NotTo(HaveOccurred())
		})

		It("lets Telegram fetch the link", func() {
			send("/avatar")
			photos := bot.photos()
			Expect(photos).To(HaveLen(1))
			Expect(photos[0].File).To(Equal(api.FileURL(avatarURL)))
			Expect(photos[0].Caption).To(Equal("Leo"))
		})

		It("uploads the drawn portrait when the link cannot be fetched", func() {
			bot.sendErr = func(c api.Chattable) error {
				if photo, ok := c.(api.PhotoConfig); ok {
					if _, remote := photo.File.(api.FileURL); remote {
						return errors.New("wrong file identifier/HTTP URL specified")
					}
				}
				return nil
			}
			send("/avatar")
			photos := bot.photos()
			Expect(photos).To(HaveLen(1))
			Expect(photos[0].File).To(BeAssignableToTypeOf(api.FileBytes{}))
		})
	})
})
