package usecase_test

import (
	"context"

	"github.com/iamvkosarev/ai-baby-bot/internal/avatar"
	"github.com/iamvkosarev/ai-baby-bot/internal/model"
	"github.com/iamvkosarev/ai-baby-bot/internal/usecase"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sashabaranov/go-openai"
)

var _ = Describe("BabyUsecase", func() {
	var (
		ctx context.Context
		f   *fixture
	)

	BeforeEach(func() {
		ctx = context.Background()
		f = newFixture()
	})

	Describe("Signup", func() {
		It("creates the user and a newborn with the fallback avatar", func() {
			baby, err := f.baby.Signup(ctx, "Ana", "123", "Leo", model.GenderBoy)
			Expect(err).NotTo(HaveOccurred())
			Expect(baby.Name).To(Equal("Leo"))
			Expect(baby.UserOwner).To(Equal("Ana"))
			Expect(baby.XP).To(BeZero())
			Expect(baby.Level).To(Equal("Recém-nascido"))
			Expect(baby.Mood).To(Equal(model.MoodCurious))
			Expect(baby.Memory).To(BeEmpty())
			Expect(baby.AvatarImage).To(Equal(avatar.SVGDataURI("Leo", model.GenderBoy)))

			stored, err := f.baby.GetBaby(ctx, "ana")
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.ID).To(Equal(baby.ID))
		})

		It("requires every field", func() {
			_, err := f.baby.Signup(ctx, "Ana", "", "Leo", model.GenderBoy)
			Expect(err).To(MatchError(usecase.ErrMissingFields))
			_, err = f.baby.Signup(ctx, "Ana", "123", " ", model.GenderBoy)
			Expect(err).To(MatchError(usecase.ErrMissingFields))
			_, err = f.baby.Signup(ctx, "Ana", "123", "Leo", "")
			Expect(err).To(MatchError(usecase.ErrMissingFields))
		})

		It("rejects unknown genders", func() {
			_, err := f.baby.Signup(ctx, "Ana", "123", "Leo", model.Gender("robot"))
			Expect(err).To(MatchError(usecase.ErrInvalidGender))
		})

		It("rejects duplicate usernames without touching the existing baby", func() {
			first, err := f.baby.Signup(ctx, "Ana", "123", "Leo", model.GenderBoy)
			Expect(err).NotTo(HaveOccurred())

			_, err = f.baby.Signup(ctx, "ANA", "456", "Bia", model.GenderGirl)
			Expect(err).To(MatchError(model.ErrUserAlreadyExists))

			stored, err := f.baby.GetBaby(ctx, "Ana")
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.ID).To(Equal(first.ID))
		})
	})

	Describe("Login", func() {
		BeforeEach(func() {
			_, err := f.baby.Signup(ctx, "Ana", "123", "Leo", model.GenderBoy)
			Expect(err).NotTo(HaveOccurred())
		})

		It("loads the baby", func() {
			user, baby, err := f.baby.Login(ctx, "ana", "123")
			Expect(err).NotTo(HaveOccurred())
			Expect(user.Username).To(Equal("Ana"))
			Expect(baby.Name).To(Equal("Leo"))
		})

		It("rejects a wrong password", func() {
			_, _, err := f.baby.Login(ctx, "Ana", "nope")
			Expect(err).To(MatchError(usecase.ErrInvalidCredentials))
		})

		It("rejects an unknown user", func() {
			_, _, err := f.baby.Login(ctx, "Bob", "123")
			Expect(err).To(MatchError(usecase.ErrInvalidCredentials))
		})

		It("requires both fields", func() {
			_, _, err := f.baby.Login(ctx, "Ana", "")
			Expect(err).To(MatchError(usecase.ErrMissingFields))
		})

		It("reports a user without a baby", func() {
			_, err := f.users.Register(ctx, "Bob", "abc")
			Expect(err).NotTo(HaveOccurred())

			user, _, err := f.baby.Login(ctx, "Bob", "abc")
			Expect(err).To(MatchError(usecase.ErrBabyNotFound))
			Expect(user.Username).To(Equal("Bob"))
		})
	})

	Context("with a baby", func() {
		BeforeEach(func() {
			_, err := f.baby.Signup(ctx, "Ana", "123", "Leo", model.GenderBoy)
			Expect(err).NotTo(HaveOccurred())
		})

		It("grants two xp per chat and makes the baby curious", func() {
			f.client.CreateChatCompletionFunc = reply("Gugu!")

			text, baby, err := f.baby.Chat(ctx, "Ana", nil, "oi")
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("Gugu!"))
			Expect(baby.XP).To(Equal(2))
			Expect(baby.Mood).To(Equal(model.MoodCurious))
		})

		It("rejects empty chat messages", func() {
			_, _, err := f.baby.Chat(ctx, "Ana", nil, "  ")
			Expect(err).To(MatchError(usecase.ErrMissingFields))
		})

		It("learns from teaching", func() {
			f.client.CreateChatCompletionFunc = reply(`{"reply": "Aprendi!", "score": 5, "memory": "Água ferve a 100 graus."}`)

			evaluation, baby, err := f.baby.Teach(ctx, "Ana", "Água", "Ferve a 100 graus")
			Expect(err).NotTo(HaveOccurred())
			Expect(evaluation.XPGained).To(Equal(50))
			Expect(baby.XP).To(Equal(50))
			Expect(baby.Mood).To(Equal(model.MoodHappy))
			Expect(baby.Memory).To(Equal([]string{"Água ferve a 100 graus."}))
		})

		It("levels up across thresholds", func() {
			f.client.CreateChatCompletionFunc = reply(`{"reply": "Aprendi!", "score": 5, "memory": "fato"}`)
			for i := 0; i < 2; i++ {
				_, _, err := f.baby.Teach(ctx, "Ana", "t", "c")
				Expect(err).NotTo(HaveOccurred())
			}
			baby, err := f.baby.GetBaby(ctx, "Ana")
			Expect(err).NotTo(HaveOccurred())
			Expect(baby.XP).To(Equal(100))
			Expect(baby.Level).To(Equal("Curioso"))
			Expect(baby.Memory).To(HaveLen(2))
		})

		It("keeps xp when the teaching evaluation fails", func() {
			evaluation, baby, err := f.baby.Teach(ctx, "Ana", "Água", "Ferve")
			Expect(err).NotTo(HaveOccurred())
			Expect(evaluation.XPGained).To(BeZero())
			Expect(baby.XP).To(BeZero())
			Expect(baby.Memory).To(BeEmpty())
			Expect(baby.Mood).To(Equal(model.MoodHappy))
		})

		It("requires topic and content", func() {
			_, _, err := f.baby.Teach(ctx, "Ana", "Água", "")
			Expect(err).To(MatchError(usecase.ErrMissingFields))
		})

		It("applies care effects and clamps stats", func() {
			_, baby, err := f.baby.Care(ctx, "Ana", model.CareFeed)
			Expect(err).NotTo(HaveOccurred())
			Expect(baby.Hunger).To(Equal(0))
			Expect(baby.Energy).To(Equal(85))
			Expect(baby.XP).To(Equal(1))

			for i := 0; i < 4; i++ {
				_, baby, err = f.baby.Care(ctx, "Ana", model.CarePlay)
				Expect(err).NotTo(HaveOccurred())
			}
			Expect(baby.Energy).To(Equal(5))
			Expect(baby.Hunger).To(Equal(60))
			Expect(baby.Mood).To(Equal(model.MoodSleepy))
		})

		It("answers care with the default reaction when the model is down", func() {
			reaction, _, err := f.baby.Care(ctx, "Ana", model.CarePlay)
			Expect(err).NotTo(HaveOccurred())
			Expect(reaction).To(Equal("Hihihi! De novo, de novo! 🧸"))
		})

		It("rejects unknown care actions", func() {
			_, _, err := f.baby.Care(ctx, "Ana", model.CareAction("dance"))
			Expect(err).To(MatchError(usecase.ErrInvalidCareAction))
		})

		It("resets everything on rebirth", func() {
			f.client.CreateChatCompletionFunc = reply(`{"reply": "Aprendi!", "score": 3, "memory": "fato"}`)
			old, _, err := f.baby.Teach(ctx, "Ana", "t", "c")
			Expect(err).NotTo(HaveOccurred())
			Expect(old.XPGained).To(Equal(30))

			baby, err := f.baby.Rebirth(ctx, "Ana", "Bia", model.GenderGirl)
			Expect(err).NotTo(HaveOccurred())
			Expect(baby.Name).To(Equal("Bia"))
			Expect(baby.Gender).To(Equal(model.GenderGirl))
			Expect(baby.XP).To(BeZero())
			Expect(baby.Memory).To(BeEmpty())
			Expect(baby.Hunger).To(Equal(model.InitialHunger))
			Expect(baby.UserOwner).To(Equal("Ana"))

			stored, err := f.baby.GetBaby(ctx, "Ana")
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Name).To(Equal("Bia"))
		})
	})

	Describe("Speak", func() {
		It("returns synthesized audio", func() {
			f.client.CreateSpeechFunc = func(context.Context, openai.CreateSpeechRequest) (openai.RawResponse, error) {
				return rawAudio([]byte{1, 0, 2, 0}), nil
			}
			speech := f.baby.Speak(ctx, "oi", model.GenderBoy)
			Expect(speech.Fallback).To(BeNil())
			Expect(speech.Audio).NotTo(BeEmpty())
		})

		It("describes a local utterance when synthesis fails", func() {
			speech := f.baby.Speak(ctx, "oi", model.GenderBoy)
			Expect(speech.Audio).To(BeEmpty())
			Expect(speech.Fallback).To(Equal(&model.LocalUtterance{Text: "oi", Lang: "pt-BR", Pitch: 1.2, Rate: 1.1}))
		})
	})

	Describe("Transcribe", func() {
		It("requires audio", func() {
			_, err := f.baby.Transcribe(ctx, nil, "a.webm")
			Expect(err).To(MatchError(usecase.ErrMissingFields))
		})
	})
})
