package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/iamvkosarev/ai-baby-bot/config"
	"github.com/iamvkosarev/ai-baby-bot/internal/avatar"
	"github.com/iamvkosarev/ai-baby-bot/internal/model"
	"github.com/iamvkosarev/ai-baby-bot/internal/voice"
	"github.com/iamvkosarev/ai-baby-bot/pkg/local"
	"github.com/mudler/xlog"
	"github.com/sourcegraph/conc"
)

const (
	CommandStart   = "start"
	CommandSignup  = "signup"
	CommandLogin   = "login"
	CommandChat    = "chat"
	CommandClear   = "clear"
	CommandTeach   = "teach"
	CommandRebirth = "rebirth"
	CommandStatus  = "status"
	CommandAvatar  = "avatar"
	CommandBack    = "back"
	CommandLogout  = "logout"

	genderCallbackPrefix = "gender:"
	voiceFileName        = "voice.ogg"
	speechFileName       = "baby.wav"
	avatarFileName       = "avatar.png"
)

// TelegramBot is the part of the Bot API client the usecase talks to.
type TelegramBot interface {
	Send(c api.Chattable) (api.Message, error)
	Request(c api.Chattable) (*api.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
	GetUpdatesChan(config api.UpdateConfig) api.UpdatesChannel
	StopReceivingUpdates()
}

type TelegramUsecaseDeps struct {
	Sessions *SessionUsecase
	Baby     *BabyUsecase
	Bot      TelegramBot
}

type TelegramUsecase struct {
	TelegramUsecaseDeps
	cfg          config.Telegram
	language     local.Language
	allowedUsers map[int64]struct{}
	httpClient   *http.Client
}

func NewTelegramUsecase(cfg config.Telegram, language local.Language, deps TelegramUsecaseDeps) (*TelegramUsecase, error) {
	allowedUsers := make(map[int64]struct{})
	for _, userID := range cfg.AllowedTelegramID {
		allowedUsers[userID] = struct{}{}
	}

	commands := []api.BotCommand{
		{Command: CommandStart, Description: "Start"},
		{Command: CommandSignup, Description: "Create an account and a baby"},
		{Command: CommandLogin, Description: "Log in"},
		{Command: CommandChat, Description: "Talk to the baby"},
		{Command: CommandClear, Description: "Clear the conversation"},
		{Command: CommandTeach, Description: "Teach the baby something"},
		{Command: string(model.CareFeed), Description: "Feed the baby"},
		{Command: string(model.CareBathe), Description: "Bathe the baby"},
		{Command: string(model.CareSleep), Description: "Put the baby to sleep"},
		{Command: string(model.CarePlay), Description: "Play with the baby"},
		{Command: CommandStatus, Description: "Show the baby status"},
		{Command: CommandAvatar, Description: "Show the baby avatar"},
		{Command: CommandRebirth, Description: "Start over with a new baby"},
		{Command: CommandBack, Description: "Back to the dashboard"},
		{Command: CommandLogout, Description: "Log out"},
	}
	if _, err := deps.Bot.Request(api.NewSetMyCommands(commands...)); err != nil {
		return nil, fmt.Errorf("failed to set bot commands: %w", err)
	}

	return &TelegramUsecase{
		TelegramUsecaseDeps: deps,
		cfg:                 cfg,
		language:            language,
		allowedUsers:        allowedUsers,
		httpClient:          &http.Client{},
	}, nil
}

// Run polls updates until ctx is cancelled. Updates are handled one by one so
// replies keep the order in which messages arrived.
func (t *TelegramUsecase) Run(ctx context.Context) error {
	u := api.NewUpdate(0)
	u.Timeout = 60

	updates := t.Bot.GetUpdatesChan(u)
	defer t.Bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			t.HandleUpdate(ctx, update)
		}
	}
}

func (t *TelegramUsecase) HandleUpdate(ctx context.Context, update api.Update) {
	if update.Message != nil {
		if err := t.handleMessage(ctx, update.Message); err != nil {
			xlog.Error("Error handling message", "chat", update.Message.Chat.ID, "error", err)
		}
	}
	if update.CallbackQuery != nil {
		if err := t.handleCallbackQuery(ctx, update.CallbackQuery); err != nil {
			xlog.Error("Error handling callback query", "error", err)
		}
	}
}

func (t *TelegramUsecase) allowed(chatID int64) bool {
	if !t.cfg.IsNotPublic {
		return true
	}
	_, ok := t.allowedUsers[chatID]
	return ok
}

func (t *TelegramUsecase) handleCallbackQuery(ctx context.Context, query *api.CallbackQuery) error {
	if _, err := t.Bot.Request(api.NewCallback(query.ID, query.Data)); err != nil {
		return fmt.Errorf("failed to request callback: %w", err)
	}
	if query.Message == nil {
		return nil
	}
	chatID := query.Message.Chat.ID
	if !t.allowed(chatID) {
		t.sendMessageAndHandleErr(chatID, textUserNoAccess.Text(t.language))
		return nil
	}

	rawGender, ok := strings.CutPrefix(query.Data, genderCallbackPrefix)
	if !ok {
		return nil
	}
	gender, ok := model.ParseGender(rawGender)
	if !ok {
		return fmt.Errorf("%s: %w", rawGender, ErrInvalidGender)
	}
	return t.submitGender(ctx, chatID, gender)
}

func (t *TelegramUsecase) submitGender(ctx context.Context, chatID int64, gender model.Gender) error {
	key := TelegramSessionKey(chatID)
	session := t.Sessions.Session(key)
	if session.Step != model.StepGender {
		return nil
	}

	var err error
	switch session.View {
	case model.ViewSignup:
		session, err = t.Sessions.Signup(
			ctx, key, session.Form.Username, session.Form.Password, session.Form.BabyName, gender,
		)
	case model.ViewRebirth:
		session, err = t.Sessions.Rebirth(ctx, key, session.Form.BabyName, gender)
	default:
		return nil
	}
	if err != nil {
		t.restartForm(key, session.View)
		t.replyError(chatID, err)
		if session.View == model.ViewSignup {
			t.sendMessageAndHandleErr(chatID, textAskUsername.Text(t.language))
		} else {
			t.sendMessageAndHandleErr(chatID, textAskBabyName.Text(t.language))
		}
		if isUserError(err) {
			return nil
		}
		return err
	}

	t.sendMessageAndHandleErr(chatID, textBabyBorn.Format(t.language, session.Baby.Name))
	t.sendAvatar(chatID, *session.Baby)
	t.sendMessageAndHandleErr(chatID, textDashboardHint.Text(t.language))
	return nil
}

func (t *TelegramUsecase) handleMessage(ctx context.Context, message *api.Message) error {
	chatID := message.Chat.ID
	if !t.allowed(chatID) {
		t.sendMessageAndHandleErr(chatID, textUserNoAccess.Text(t.language))
		return nil
	}

	if message.IsCommand() {
		return t.handleCommand(ctx, chatID, message.Command())
	}

	if message.Voice != nil {
		transcript, err := t.transcribeVoice(ctx, message.Voice.FileID)
		if err != nil {
			t.sendMessageAndHandleErr(chatID, textVoiceNotRecognized.Text(t.language))
			return fmt.Errorf("failed to transcribe voice: %w", err)
		}
		return t.handleInput(ctx, chatID, transcript, true)
	}

	return t.handleInput(ctx, chatID, message.Text, false)
}

func (t *TelegramUsecase) handleCommand(ctx context.Context, chatID int64, command string) error {
	key := TelegramSessionKey(chatID)

	if action, ok := model.ParseCareAction(command); ok {
		reaction, session, err := t.Sessions.Care(ctx, key, action)
		if err != nil {
			t.replyError(chatID, err)
			return nil
		}
		t.sendMessageAndHandleErr(chatID, reaction)
		t.sendMessageAndHandleErr(chatID, t.status(*session.Baby))
		return nil
	}

	switch command {
	case CommandStart:
		session := t.Sessions.Session(key)
		if session.Baby != nil {
			t.sendMessageAndHandleErr(chatID, t.status(*session.Baby))
			t.sendMessageAndHandleErr(chatID, textDashboardHint.Text(t.language))
			return nil
		}
		t.sendMessageAndHandleErr(chatID, textWelcome.Text(t.language))
	case CommandLogin:
		t.Sessions.Logout(key)
		t.sendMessageAndHandleErr(chatID, textAskUsername.Text(t.language))
	case CommandSignup:
		t.Sessions.Logout(key)
		if _, err := t.Sessions.Navigate(ctx, key, model.ViewSignup); err != nil {
			return fmt.Errorf("failed to open signup: %w", err)
		}
		t.sendMessageAndHandleErr(chatID, textAskUsername.Text(t.language))
	case CommandLogout:
		t.Sessions.Logout(key)
		t.sendMessageAndHandleErr(chatID, textLoggedOut.Text(t.language))
	case CommandChat:
		if t.navigate(ctx, chatID, model.ViewChat) {
			t.sendMessageAndHandleErr(chatID, textChatStarted.Text(t.language))
		}
	case CommandClear:
		t.Sessions.ClearChat(key)
		t.sendMessageAndHandleErr(chatID, textChatCleared.Text(t.language))
	case CommandTeach:
		if t.navigate(ctx, chatID, model.ViewTeach) {
			t.sendMessageAndHandleErr(chatID, textAskTopic.Text(t.language))
		}
	case CommandRebirth:
		if t.navigate(ctx, chatID, model.ViewRebirth) {
			t.sendMessageAndHandleErr(chatID, textAskBabyName.Text(t.language))
		}
	case CommandBack:
		if t.navigate(ctx, chatID, model.ViewDashboard) {
			t.sendMessageAndHandleErr(chatID, textDashboardHint.Text(t.language))
		}
	case CommandStatus:
		session := t.Sessions.Session(key)
		if session.Baby == nil {
			t.replyError(chatID, ErrNotLoggedIn)
			return nil
		}
		t.sendMessageAndHandleErr(chatID, t.status(*session.Baby))
	case CommandAvatar:
		session := t.Sessions.Session(key)
		if session.Baby == nil {
			t.replyError(chatID, ErrNotLoggedIn)
			return nil
		}
		t.sendAvatar(chatID, *session.Baby)
	default:
		t.sendMessageAndHandleErr(chatID, textCommandUnknown.Text(t.language))
	}
	return nil
}

// navigate reports whether the session moved; failures are answered in chat.
func (t *TelegramUsecase) navigate(ctx context.Context, chatID int64, view model.View) bool {
	key := TelegramSessionKey(chatID)
	session := t.Sessions.Session(key)
	if view != model.ViewDashboard && session.View != model.ViewDashboard && session.View != view {
		if _, err := t.Sessions.Navigate(ctx, key, model.ViewDashboard); err != nil {
			t.replyError(chatID, err)
			return false
		}
	}
	if _, err := t.Sessions.Navigate(ctx, key, view); err != nil {
		t.replyError(chatID, err)
		return false
	}
	return true
}

// handleInput feeds free text into whatever the session is currently waiting for.
func (t *TelegramUsecase) handleInput(ctx context.Context, chatID int64, text string, fromVoice bool) error {
	key := TelegramSessionKey(chatID)
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var prompt string
	session, err := t.Sessions.Update(
		key, func(session *model.Session) error {
			switch session.Step {
			case model.StepUsername:
				session.Form.Username = text
				session.Step = model.StepPassword
				prompt = textAskPassword.Text(t.language)
			case model.StepBabyName:
				session.Form.BabyName = mergeInput(session.Form.BabyName, text, fromVoice)
				session.Step = model.StepGender
			case model.StepTopic:
				session.Form.Topic = mergeInput(session.Form.Topic, text, fromVoice)
				session.Step = model.StepContent
				prompt = textAskContent.Format(t.language, session.Form.Topic)
			case model.StepContent:
				session.Form.Content = mergeInput(session.Form.Content, text, fromVoice)
			case model.StepPassword:
				session.Form.Password = text
			}
			return nil
		},
	)
	if err != nil {
		return err
	}

	switch session.Step {
	case model.StepPassword:
		if session.Form.Password == "" {
			t.sendMessageAndHandleErr(chatID, prompt)
			return nil
		}
		return t.submitPassword(ctx, chatID, session)
	case model.StepGender:
		return t.sendGenderKeyboard(chatID)
	case model.StepContent:
		if session.Form.Content == "" {
			t.sendMessageAndHandleErr(chatID, prompt)
			return nil
		}
		return t.submitTeaching(ctx, chatID, session)
	case model.StepChatInput:
		return t.submitChat(ctx, chatID, text)
	}

	if session.Baby == nil {
		t.sendMessageAndHandleErr(chatID, textWelcome.Text(t.language))
		return nil
	}
	t.sendMessageAndHandleErr(chatID, textDashboardHint.Text(t.language))
	return nil
}

func mergeInput(current, text string, fromVoice bool) string {
	if fromVoice {
		return voice.AppendVoiceText(current, text)
	}
	return text
}

func (t *TelegramUsecase) submitPassword(ctx context.Context, chatID int64, session model.Session) error {
	key := TelegramSessionKey(chatID)
	if session.View == model.ViewSignup {
		_, err := t.Sessions.Update(
			key, func(session *model.Session) error {
				session.Step = model.StepBabyName
				return nil
			},
		)
		if err != nil {
			return err
		}
		t.sendMessageAndHandleErr(chatID, textAskBabyName.Text(t.language))
		return nil
	}

	session, err := t.Sessions.Login(ctx, key, session.Form.Username, session.Form.Password)
	switch {
	case errors.Is(err, ErrBabyNotFound):
		t.sendMessageAndHandleErr(chatID, textNoBaby.Text(t.language))
		t.sendMessageAndHandleErr(chatID, textAskBabyName.Text(t.language))
		return nil
	case err != nil:
		t.restartForm(key, model.ViewLogin)
		t.replyError(chatID, err)
		t.sendMessageAndHandleErr(chatID, textAskUsername.Text(t.language))
		if isUserError(err) {
			return nil
		}
		return err
	}
	t.sendMessageAndHandleErr(chatID, t.status(*session.Baby))
	t.sendMessageAndHandleErr(chatID, textDashboardHint.Text(t.language))
	return nil
}

func (t *TelegramUsecase) submitTeaching(ctx context.Context, chatID int64, session model.Session) error {
	t.sendTyping(chatID)
	evaluation, session, err := t.Sessions.Teach(
		ctx, TelegramSessionKey(chatID), session.Form.Topic, session.Form.Content,
	)
	if err != nil {
		t.replyError(chatID, err)
		return err
	}
	t.sendMessageAndHandleErr(chatID, evaluation.Reply)
	if evaluation.XPGained > 0 {
		t.sendMessageAndHandleErr(chatID, textXPGained.Format(t.language, evaluation.XPGained))
	}
	return nil
}

// submitChat sends the text reply and the synthesized voice concurrently.
func (t *TelegramUsecase) submitChat(ctx context.Context, chatID int64, text string) error {
	t.sendTyping(chatID)
	reply, session, err := t.Sessions.SendChatMessage(ctx, TelegramSessionKey(chatID), text)
	if err != nil {
		t.replyError(chatID, err)
		return err
	}

	wg := conc.NewWaitGroup()
	wg.Go(
		func() {
			t.sendMessageAndHandleErr(chatID, reply)
		},
	)
	wg.Go(
		func() {
			speech := t.Baby.Speak(ctx, reply, session.Baby.Gender)
			if speech.Fallback != nil {
				return
			}
			audio := api.NewAudio(chatID, api.FileBytes{Name: speechFileName, Bytes: speech.Audio})
			if _, err := t.Bot.Send(audio); err != nil {
				xlog.Warn("Failed to send speech", "chat", chatID, "error", err)
			}
		},
	)
	wg.Wait()
	return nil
}

func (t *TelegramUsecase) transcribeVoice(ctx context.Context, fileID string) (string, error) {
	fileURL, err := t.Bot.GetFileDirectURL(fileID)
	if err != nil {
		return "", fmt.Errorf("failed to get file url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create download request: %w", err)
	}
	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download voice: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download voice: status %d", resp.StatusCode)
	}
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read voice: %w", err)
	}
	return t.Baby.Transcribe(ctx, audio, voiceFileName)
}

func (t *TelegramUsecase) restartForm(key string, view model.View) {
	_, err := t.Sessions.Update(
		key, func(session *model.Session) error {
			session.Form = model.Form{}
			switch view {
			case model.ViewLogin, model.ViewSignup:
				session.Step = model.StepUsername
			case model.ViewRebirth:
				session.Step = model.StepBabyName
			}
			return nil
		},
	)
	if err != nil {
		xlog.Warn("Failed to restart form", "session", key, "error", err)
	}
}

func (t *TelegramUsecase) sendGenderKeyboard(chatID int64) error {
	buttons := make([]api.InlineKeyboardButton, 0, len(model.Genders()))
	for _, gender := range model.Genders() {
		buttons = append(
			buttons,
			api.NewInlineKeyboardButtonData(
				textGenderLabel[gender].Text(t.language), genderCallbackPrefix+string(gender),
			),
		)
	}
	msg := api.NewMessage(chatID, textAskGender.Text(t.language))
	msg.ReplyMarkup = api.NewInlineKeyboardMarkup(buttons)
	if _, err := t.Bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send message to bot: %w", err)
	}
	return nil
}

// sendAvatar lets Telegram fetch hosted avatars itself and uploads a drawn
// portrait for everything else, including links Telegram could not fetch.
func (t *TelegramUsecase) sendAvatar(chatID int64, baby model.Baby) {
	if remote, ok := avatar.RemoteURL(baby.AvatarImage); ok {
		photo := api.NewPhoto(chatID, api.FileURL(remote))
		photo.Caption = baby.Name
		_, err := t.Bot.Send(photo)
		if err == nil {
			return
		}
		xlog.Warn("Failed to send hosted avatar", "chat", chatID, "error", err)
	}

	_, data, err := avatar.Raster(baby.AvatarImage, baby.Name, baby.Gender)
	if err != nil {
		xlog.Warn("Failed to render avatar", "baby", baby.Name, "error", err)
		return
	}
	photo := api.NewPhoto(chatID, api.FileBytes{Name: avatarFileName, Bytes: data})
	photo.Caption = baby.Name
	if _, err = t.Bot.Send(photo); err != nil {
		xlog.Warn("Failed to send avatar", "chat", chatID, "error", err)
	}
}

func (t *TelegramUsecase) status(baby model.Baby) string {
	return textStatus.Format(
		t.language,
		baby.Name,
		baby.AgeInDays(t.Sessions.now()),
		baby.Level,
		baby.XP,
		textMoodLabel[baby.Mood].Text(t.language),
		baby.Hunger,
		baby.Energy,
		len(baby.Memory),
	)
}

func (t *TelegramUsecase) replyError(chatID int64, err error) {
	var text string
	switch {
	case errors.Is(err, ErrMissingFields), errors.Is(err, ErrInvalidGender):
		text = textMissingFields.Text(t.language)
	case errors.Is(err, model.ErrUserAlreadyExists):
		text = textUserExists.Text(t.language)
	case errors.Is(err, ErrInvalidCredentials):
		text = textInvalidCredentials.Text(t.language)
	case errors.Is(err, ErrBabyNotFound):
		text = textNoBaby.Text(t.language)
	case errors.Is(err, ErrNotLoggedIn), errors.Is(err, ErrNoBaby):
		text = textNotLoggedIn.Text(t.language)
	case errors.Is(err, model.ErrViewTransitionNotAllowed):
		text = textNotAllowedHere.Text(t.language)
	default:
		text = textServerError.Text(t.language)
	}
	t.sendMessageAndHandleErr(chatID, text)
}

func isUserError(err error) bool {
	return errors.Is(err, ErrMissingFields) ||
		errors.Is(err, ErrInvalidGender) ||
		errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, model.ErrUserAlreadyExists)
}

func (t *TelegramUsecase) sendTyping(chatID int64) {
	if _, err := t.Bot.Request(api.NewChatAction(chatID, api.ChatTyping)); err != nil {
		xlog.Debug("Failed to send chat action", "chat", chatID, "error", err)
	}
}

func (t *TelegramUsecase) sendMessageAndHandleErr(chatID int64, message string) api.Message {
	msg, err := t.sendMessage(chatID, message)
	if err != nil {
		xlog.Error("Failed to send new message to bot", "chat", chatID, "error", err)
	}
	return msg
}

func (t *TelegramUsecase) sendMessage(chatID int64, message string) (api.Message, error) {
	return t.Bot.Send(api.NewMessage(chatID, message))
}
