package config_test

import (
	"os"
	"path/filepath"

	"github.com/iamvkosarev/ai-baby-bot/config"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// unsetEnv removes variables for one spec and restores them afterwards.
func unsetEnv(keys ...string) {
	for _, key := range keys {
		GinkgoT().Setenv(key, "")
		Expect(os.Unsetenv(key)).To(Succeed())
	}
}

var _ = Describe("LoadConfig", func() {
	BeforeEach(func() {
		unsetEnv("TELEGRAM_ENABLED", "TELEGRAM_APITOKEN", "HTTP_ENABLED", "STORAGE_BACKEND", "OPENAI_API_KEY")
		GinkgoT().Setenv("OPENAI_API_KEY", "sk-test")
	})

	It("requires a bot token while telegram is enabled", func() {
		_, err := config.LoadConfig("")
		Expect(err).To(MatchError(config.ErrTelegramTokenRequired))

		GinkgoT().Setenv("TELEGRAM_APITOKEN", "   ")
		_, err = config.LoadConfig("")
		Expect(err).To(MatchError(config.ErrTelegramTokenRequired))
	})

	It("loads with a bot token", func() {
		GinkgoT().Setenv("TELEGRAM_APITOKEN", "123:abc")
		cfg, err := config.LoadConfig("")
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Telegram.Enabled).To(BeTrue())
		Expect(cfg.Telegram.TelegramAPIToken).To(Equal("123:abc"))
		Expect(cfg.Storage.Backend).To(Equal(config.StorageBackendRedis))
		Expect(cfg.OpenAI.ChatModel).To(Equal("gpt-4o-mini"))
	})

	It("runs web-only without a bot token", func() {
		GinkgoT().Setenv("TELEGRAM_ENABLED", "false")
		cfg, err := config.LoadConfig("")
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Telegram.Enabled).To(BeFalse())
		Expect(cfg.HTTP.Enabled).To(BeTrue())
	})

	It("checks the file the same way", func() {
		path := filepath.Join(GinkgoT().TempDir(), "config.yaml")
		Expect(os.WriteFile(path, []byte("telegram:\n  enabled: true\nstorage:\n  backend: memory\n"), 0o600)).To(Succeed())
		_, err := config.LoadConfig(path)
		Expect(err).To(MatchError(config.ErrTelegramTokenRequired))

		Expect(os.WriteFile(path, []byte("telegram:\n  enabled: true\n  api_token: \"123:abc\"\nstorage:\n  backend: memory\n"), 0o600)).To(Succeed())
		cfg, err := config.LoadConfig(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Storage.Backend).To(Equal(config.StorageBackendMemory))
	})

	It("rejects unknown storage backends", func() {
		GinkgoT().Setenv("TELEGRAM_ENABLED", "false")
		GinkgoT().Setenv("STORAGE_BACKEND", "postgres")
		_, err := config.LoadConfig("")
		Expect(err).To(MatchError(config.ErrUnknownStorageBackend))
	})
})
