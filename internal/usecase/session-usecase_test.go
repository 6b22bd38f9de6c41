package usecase_test

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/iamvkosarev/ai-baby-bot/internal/model"
	"github.com/iamvkosarev/ai-baby-bot/internal/usecase"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sashabaranov/go-openai"
)

var _ = Describe("SessionUsecase", func() {
	const key = "tg:42"

	var (
		ctx context.Context
		f   *fixture
	)

	BeforeEach(func() {
		ctx = context.Background()
		f = newFixture()
	})

	It("builds session keys per transport", func() {
		Expect(usecase.TelegramSessionKey(42)).To(Equal("tg:42"))
		Expect(usecase.WebSessionKey(" Ana ")).To(Equal("web:ana"))
	})

	It("starts new sessions at login", func() {
		session := f.sessions.Session(key)
		Expect(session.View).To(Equal(model.ViewLogin))
		Expect(session.Step).To(Equal(model.StepUsername))
		Expect(session.LoggedIn()).To(BeFalse())
	})

	It("refuses the dashboard before login", func() {
		_, err := f.sessions.Navigate(ctx, key, model.ViewDashboard)
		Expect(err).To(MatchError(model.ErrViewTransitionNotAllowed))
	})

	It("moves to the dashboard after signup", func() {
		session, err := f.sessions.Signup(ctx, key, "Ana", "123", "Leo", model.GenderBoy)
		Expect(err).NotTo(HaveOccurred())
		Expect(session.View).To(Equal(model.ViewDashboard))
		Expect(session.Username).To(Equal("Ana"))
		Expect(session.Baby.Name).To(Equal("Leo"))
	})

	It("stays put when signup fails", func() {
		_, err := f.sessions.Navigate(ctx, key, model.ViewSignup)
		Expect(err).NotTo(HaveOccurred())

		session, err := f.sessions.Signup(ctx, key, "Ana", "", "Leo", model.GenderBoy)
		Expect(err).To(MatchError(usecase.ErrMissingFields))
		Expect(session.View).To(Equal(model.ViewSignup))
		Expect(session.LoggedIn()).To(BeFalse())
	})

	It("leaves the session logged out on wrong credentials", func() {
		_, err := f.baby.Signup(ctx, "Ana", "123", "Leo", model.GenderBoy)
		Expect(err).NotTo(HaveOccurred())

		session, err := f.sessions.Login(ctx, key, "Ana", "bad")
		Expect(err).To(MatchError(usecase.ErrInvalidCredentials))
		Expect(session.View).To(Equal(model.ViewLogin))
		Expect(session.LoggedIn()).To(BeFalse())
	})

	It("sends a user without a baby to rebirth and creates one for them", func() {
		_, err := f.users.Register(ctx, "Bob", "abc")
		Expect(err).NotTo(HaveOccurred())

		session, err := f.sessions.Login(ctx, key, "Bob", "abc")
		Expect(err).To(MatchError(usecase.ErrBabyNotFound))
		Expect(session.View).To(Equal(model.ViewRebirth))
		Expect(session.Username).To(Equal("Bob"))
		Expect(session.Baby).To(BeNil())

		session, err = f.sessions.Rebirth(ctx, key, "Nina", model.GenderNeutral)
		Expect(err).NotTo(HaveOccurred())
		Expect(session.View).To(Equal(model.ViewDashboard))
		Expect(session.Baby.UserOwner).To(Equal("Bob"))
	})

	Context("logged in", func() {
		BeforeEach(func() {
			_, err := f.sessions.Signup(ctx, key, "Ana", "123", "Leo", model.GenderBoy)
			Expect(err).NotTo(HaveOccurred())
		})

		It("keeps chat messages in arrival order", func() {
			var n atomic.Int32
			f.client.CreateChatCompletionFunc = func(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
				return reply(fmt.Sprintf("resposta %d", n.Add(1)))(ctx, req)
			}
			_, err := f.sessions.Navigate(ctx, key, model.ViewChat)
			Expect(err).NotTo(HaveOccurred())

			for _, msg := range []string{"um", "dois"} {
				_, _, err = f.sessions.SendChatMessage(ctx, key, msg)
				Expect(err).NotTo(HaveOccurred())
			}

			session := f.sessions.Session(key)
			bodies := make([]string, 0, len(session.ChatHistory))
			for _, m := range session.ChatHistory {
				bodies = append(bodies, m.Body)
			}
			Expect(bodies).To(Equal([]string{"um", "resposta 1", "dois", "resposta 2"}))
			Expect(session.ChatHistory[0].Source).To(Equal(model.MessageSourceUser))
			Expect(session.ChatHistory[1].Source).To(Equal(model.MessageSourceAssistant))
			Expect(session.Baby.XP).To(Equal(4))
		})

		It("passes the previous history to the model", func() {
			var lastLen int
			f.client.CreateChatCompletionFunc = func(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
				lastLen = len(req.Messages)
				return reply("ok")(ctx, req)
			}
			_, _, err := f.sessions.SendChatMessage(ctx, key, "um")
			Expect(err).NotTo(HaveOccurred())
			Expect(lastLen).To(Equal(2))

			_, _, err = f.sessions.SendChatMessage(ctx, key, "dois")
			Expect(err).NotTo(HaveOccurred())
			Expect(lastLen).To(Equal(4))
		})

		It("stores the trimmed message in the history", func() {
			var sent string
			f.client.CreateChatCompletionFunc = func(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
				sent = req.Messages[len(req.Messages)-1].Content
				return reply("oi!")(ctx, req)
			}
			_, session, err := f.sessions.SendChatMessage(ctx, key, "  oi, bebê \n")
			Expect(err).NotTo(HaveOccurred())
			Expect(sent).To(Equal("oi, bebê"))
			Expect(session.ChatHistory[0].Body).To(Equal("oi, bebê"))

			_, _, err = f.sessions.SendChatMessage(ctx, key, "tudo bem?")
			Expect(err).NotTo(HaveOccurred())
			Expect(sent).To(Equal("tudo bem?"))
			Expect(f.sessions.Session(key).ChatHistory[0].Body).To(Equal("oi, bebê"))
		})

		It("caps the chat history", func() {
			f.client.CreateChatCompletionFunc = reply("ok")
			for i := 0; i < 30; i++ {
				_, _, err := f.sessions.SendChatMessage(ctx, key, fmt.Sprint(i))
				Expect(err).NotTo(HaveOccurred())
			}
			session := f.sessions.Session(key)
			Expect(session.ChatHistory).To(HaveLen(50))
			Expect(session.ChatHistory[0].Body).To(Equal("5"))
		})

		It("clears the chat", func() {
			f.client.CreateChatCompletionFunc = reply("ok")
			_, _, err := f.sessions.SendChatMessage(ctx, key, "oi")
			Expect(err).NotTo(HaveOccurred())

			Expect(f.sessions.ClearChat(key).ChatHistory).To(BeEmpty())
		})

		It("returns to the dashboard after teaching", func() {
			f.client.CreateChatCompletionFunc = reply(`{"reply": "Aprendi!", "score": 2, "memory": "fato"}`)
			_, err := f.sessions.Navigate(ctx, key, model.ViewTeach)
			Expect(err).NotTo(HaveOccurred())

			evaluation, session, err := f.sessions.Teach(ctx, key, "Cores", "O céu é azul")
			Expect(err).NotTo(HaveOccurred())
			Expect(evaluation.XPGained).To(Equal(20))
			Expect(session.View).To(Equal(model.ViewDashboard))
			Expect(session.Baby.Memory).To(Equal([]string{"fato"}))
		})

		It("refuses teach from chat", func() {
			_, err := f.sessions.Navigate(ctx, key, model.ViewChat)
			Expect(err).NotTo(HaveOccurred())
			_, err = f.sessions.Navigate(ctx, key, model.ViewTeach)
			Expect(err).To(MatchError(model.ErrViewTransitionNotAllowed))
		})

		It("updates the session baby on care", func() {
			_, session, err := f.sessions.Care(ctx, key, model.CareSleep)
			Expect(err).NotTo(HaveOccurred())
			Expect(session.Baby.Energy).To(Equal(100))
		})

		It("drops the history on rebirth", func() {
			f.client.CreateChatCompletionFunc = reply("ok")
			_, _, err := f.sessions.SendChatMessage(ctx, key, "oi")
			Expect(err).NotTo(HaveOccurred())
			_, err = f.sessions.Navigate(ctx, key, model.ViewChat)
			Expect(err).NotTo(HaveOccurred())

			session, err := f.sessions.Rebirth(ctx, key, "Bia", model.GenderGirl)
			Expect(err).NotTo(HaveOccurred())
			Expect(session.ChatHistory).To(BeEmpty())
			Expect(session.Baby.Name).To(Equal("Bia"))
			Expect(session.View).To(Equal(model.ViewDashboard))
		})

		It("resets everything on logout", func() {
			session := f.sessions.Logout(key)
			Expect(session.View).To(Equal(model.ViewLogin))
			Expect(session.LoggedIn()).To(BeFalse())
			Expect(session.Baby).To(BeNil())

			_, _, err := f.sessions.SendChatMessage(ctx, key, "oi")
			Expect(err).To(MatchError(usecase.ErrNotLoggedIn))
		})

		It("returns snapshots that callers cannot mutate", func() {
			session := f.sessions.Session(key)
			session.Baby.Name = "Outro"
			Expect(f.sessions.Session(key).Baby.Name).To(Equal("Leo"))
		})
	})

	Describe("Authenticate", func() {
		It("logs a stateless client in and validates later requests", func() {
			_, err := f.baby.Signup(ctx, "Ana", "123", "Leo", model.GenderBoy)
			Expect(err).NotTo(HaveOccurred())
			webKey := usecase.WebSessionKey("Ana")

			session, err := f.sessions.Authenticate(ctx, webKey, "Ana", "123")
			Expect(err).NotTo(HaveOccurred())
			Expect(session.Baby.Name).To(Equal("Leo"))

			_, err = f.sessions.Authenticate(ctx, webKey, "Ana", "wrong")
			Expect(err).To(MatchError(usecase.ErrInvalidCredentials))
		})

		It("accepts users without a baby", func() {
			_, err := f.users.Register(ctx, "Bob", "abc")
			Expect(err).NotTo(HaveOccurred())

			session, err := f.sessions.Authenticate(ctx, usecase.WebSessionKey("Bob"), "Bob", "abc")
			Expect(err).NotTo(HaveOccurred())
			Expect(session.LoggedIn()).To(BeTrue())
			Expect(session.Baby).To(BeNil())
		})
	})
})
