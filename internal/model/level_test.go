package model_test

import (
	"time"

	"github.com/iamvkosarev/ai-baby-bot/internal/model"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Level", func() {
	DescribeTable("title derived from xp thresholds",
		func(xp int, title string) {
			Expect(model.LevelTitle(xp)).To(Equal(title))
		},
		Entry("zero", 0, "Recém-nascido"),
		Entry("just below curious", 99, "Recém-nascido"),
		Entry("curious", 100, "Curioso"),
		Entry("mini genius", 300, "Mini Gênio"),
		Entry("know-it-all", 999, "Sabichão"),
		Entry("master", 1000, "Mestre do Saber"),
		Entry("far beyond", 50000, "Mestre do Saber"),
		Entry("negative falls back to first", -5, "Recém-nascido"),
	)

	It("starts counting age at day one", func() {
		birth := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
		Expect(model.AgeInDays(birth, birth.Add(3*time.Hour))).To(Equal(1))
		Expect(model.AgeInDays(birth, birth.Add(49*time.Hour))).To(Equal(2))
	})
})
