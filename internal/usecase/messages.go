package usecase

import (
	"github.com/iamvkosarev/ai-baby-bot/internal/model"
	"github.com/iamvkosarev/ai-baby-bot/pkg/local"
)

var (
	textChatDefaultReply = local.NewSet(
		"Gugu? Não entendi... 🍼",
		local.NewTrans(local.Eng, "Goo goo? I didn't get it... 🍼"),
	)
	textChatErrorReply = local.NewSet(
		"Estou com soninho... (Erro na conexão)",
		local.NewTrans(local.Eng, "I'm sleepy... (connection error)"),
	)
	textTeachDefaultReply = local.NewSet(
		"Obrigado por ensinar! 🧠",
		local.NewTrans(local.Eng, "Thanks for teaching me! 🧠"),
	)
	textTeachErrorReply = local.NewSet(
		"Não entendi direito, pode explicar de novo? 🤔",
		local.NewTrans(local.Eng, "I didn't quite get it, can you explain again? 🤔"),
	)

	textCareDefaultReaction = map[model.CareAction]local.TextSet{
		model.CareFeed: local.NewSet(
			"Nham nham! Que delícia! 🍼",
			local.NewTrans(local.Eng, "Yum yum! So tasty! 🍼"),
		),
		model.CareBathe: local.NewSet(
			"Splash splash! Tô cheirosinho! 🛁",
			local.NewTrans(local.Eng, "Splish splash! I smell so nice! 🛁"),
		),
		model.CareSleep: local.NewSet(
			"Zzz... 😴",
			local.NewTrans(local.Eng, "Zzz... 😴"),
		),
		model.CarePlay: local.NewSet(
			"Hihihi! De novo, de novo! 🧸",
			local.NewTrans(local.Eng, "Hehehe! Again, again! 🧸"),
		),
	}

	textCareActionPrompt = map[model.CareAction]string{
		model.CareFeed:  "just fed you",
		model.CareBathe: "just gave you a bath",
		model.CareSleep: "just put you to sleep and you woke up rested",
		model.CarePlay:  "just played with you",
	}
)

func languageName(language local.Language) string {
	switch language {
	case local.Eng:
		return "English"
	default:
		return "Brazilian Portuguese"
	}
}

var (
	textServerError = local.NewSet(
		"Algo deu errado comigo. Tente mais tarde 😢",
		local.NewTrans(local.Eng, "Something is wrong with me. Try later 😢"),
	)
	textUserNoAccess = local.NewSet(
		"Você não tem permissão para usar este bot",
		local.NewTrans(local.Eng, "You are not allowed to use this bot"),
	)
	textCommandUnknown = local.NewSet(
		"Não conheço esse comando",
		local.NewTrans(local.Eng, "I don't know that command"),
	)
	textWelcome = local.NewSet(
		"Bem-vindo ao AI Baby! 👶\nEntre com /login ou crie um bebê com /signup.",
		local.NewTrans(local.Eng, "Welcome to AI Baby! 👶\nLog in with /login or create a baby with /signup."),
	)
	textAskUsername = local.NewSet(
		"Qual é o seu nome de usuário?",
		local.NewTrans(local.Eng, "What is your username?"),
	)
	textAskPassword = local.NewSet(
		"Agora a senha:",
		local.NewTrans(local.Eng, "Now the password:"),
	)
	textAskBabyName = local.NewSet(
		"Qual vai ser o nome do bebê?",
		local.NewTrans(local.Eng, "What will the baby's name be?"),
	)
	textAskGender = local.NewSet(
		"Menino, menina ou neutro?",
		local.NewTrans(local.Eng, "Boy, girl or neutral?"),
	)
	textAskTopic = local.NewSet(
		"Sobre o que você vai me ensinar? 📚",
		local.NewTrans(local.Eng, "What are you going to teach me about? 📚"),
	)
	textAskContent = local.NewSet(
		"Me conta tudo sobre %s!",
		local.NewTrans(local.Eng, "Tell me everything about %s!"),
	)
	textChatStarted = local.NewSet(
		"Pode falar comigo! Use /back para voltar. 💬",
		local.NewTrans(local.Eng, "Talk to me! Use /back to go back. 💬"),
	)
	textChatCleared = local.NewSet(
		"Conversa apagada 🧹",
		local.NewTrans(local.Eng, "Conversation cleared 🧹"),
	)
	textMissingFields = local.NewSet(
		"Preencha todos os campos!",
		local.NewTrans(local.Eng, "Please fill in all fields!"),
	)
	textUserExists = local.NewSet(
		"Esse usuário já existe!",
		local.NewTrans(local.Eng, "This user already exists!"),
	)
	textInvalidCredentials = local.NewSet(
		"Usuário ou senha incorretos!",
		local.NewTrans(local.Eng, "Wrong username or password!"),
	)
	textNoBaby = local.NewSet(
		"Você ainda não tem um bebê. Vamos criar um! 🍼",
		local.NewTrans(local.Eng, "You don't have a baby yet. Let's create one! 🍼"),
	)
	textNotLoggedIn = local.NewSet(
		"Entre primeiro com /login ou /signup.",
		local.NewTrans(local.Eng, "Log in first with /login or /signup."),
	)
	textNotAllowedHere = local.NewSet(
		"Não dá para fazer isso agora. Use /back.",
		local.NewTrans(local.Eng, "You can't do that now. Use /back."),
	)
	textDashboardHint = local.NewSet(
		"Use /chat, /teach, /feed, /bathe, /sleep, /play, /status ou /rebirth.",
		local.NewTrans(local.Eng, "Use /chat, /teach, /feed, /bathe, /sleep, /play, /status or /rebirth."),
	)
	textLoggedOut = local.NewSet(
		"Até logo! 👋",
		local.NewTrans(local.Eng, "See you! 👋"),
	)
	textBabyBorn = local.NewSet(
		"%s nasceu! 🎉",
		local.NewTrans(local.Eng, "%s was born! 🎉"),
	)
	textXPGained = local.NewSet(
		"+%d XP ✨",
		local.NewTrans(local.Eng, "+%d XP ✨"),
	)
	textVoiceNotRecognized = local.NewSet(
		"Não consegui ouvir direito 🙉",
		local.NewTrans(local.Eng, "I couldn't hear that well 🙉"),
	)
	textStatus = local.NewSet(
		"👶 %s\nIdade: %d dias\nNível: %s (%d XP)\nHumor: %s\nFome: %d/100\nEnergia: %d/100\nMemórias: %d",
		local.NewTrans(
			local.Eng,
			"👶 %s\nAge: %d days\nLevel: %s (%d XP)\nMood: %s\nHunger: %d/100\nEnergy: %d/100\nMemories: %d",
		),
	)

	textGenderLabel = map[model.Gender]local.TextSet{
		model.GenderBoy:     local.NewSet("Menino 👦", local.NewTrans(local.Eng, "Boy 👦")),
		model.GenderGirl:    local.NewSet("Menina 👧", local.NewTrans(local.Eng, "Girl 👧")),
		model.GenderNeutral: local.NewSet("Neutro 🧒", local.NewTrans(local.Eng, "Neutral 🧒")),
	}
	textMoodLabel = map[model.Mood]local.TextSet{
		model.MoodHappy:   local.NewSet("Feliz 😊", local.NewTrans(local.Eng, "Happy 😊")),
		model.MoodSad:     local.NewSet("Triste 😢", local.NewTrans(local.Eng, "Sad 😢")),
		model.MoodHungry:  local.NewSet("Com fome 😋", local.NewTrans(local.Eng, "Hungry 😋")),
		model.MoodSleepy:  local.NewSet("Sonolento 😴", local.NewTrans(local.Eng, "Sleepy 😴")),
		model.MoodCurious: local.NewSet("Curioso 🤔", local.NewTrans(local.Eng, "Curious 🤔")),
	}
)
