package handlers

// Ограничения на ввод
const (
	NameMaxLength     = 100
	QuestionMaxLength = 1000
	PhoneMaxLength    = 64
)

// Раскладка клавиатур
const (
	datesPerRow      = 2
	timesPerRow      = 3
	messengersPerRow = 2
)

// MessengerOption - вариант месенджера для связи
type MessengerOption struct {
	Key   string
	Label string
}

var MessengerOptions = []MessengerOption{
	{Key: "viber", Label: "Viber"},
	{Key: "telegram", Label: "Telegram"},
	{Key: "whatsapp", Label: "WhatsApp"},
	{Key: "zoom", Label: "Zoom"},
	{Key: "teams", Label: "Teams"},
}

func messengerLabel(key string) (string, bool) {
	for _, m := range MessengerOptions {
		if m.Key == key {
			return m.Label, true
		}
	}
	return "", false
}

// Общие тексты
const (
	msgRestart         = "Будь ласка, почніть знову з команди /start."
	msgUnknown         = "Не розумію вас. Будь ласка, почніть з команди /start, щоб обрати послугу."
	msgUseButtons      = "Будь ласка, скористайтеся кнопками в повідомленні вище 👆"
	msgStaleButton     = "Ця кнопка вже неактуальна. Скористайтеся кнопками з останнього повідомлення або надішліть /start."
	msgSlotsError      = "Вибачте, не вдалося отримати розклад. Спробуйте трохи пізніше."
	msgSaveError       = "Вибачте, під час збереження ваших даних сталася помилка."
	msgStateError      = "Вибачте, сталася помилка стану діалогу."
	msgBookingsError   = "Вибачте, не вдалося отримати ваші записи."
	msgAskName         = "Будь ласка, введіть ваше ім'я:"
	msgEmptyName       = "Ім'я не може бути порожнім. Будь ласка, введіть ваше ім'я:"
	msgNameTooLong     = "Ім'я занадто довге. Будь ласка, введіть коротше ім'я:"
	msgAskQuestion     = "Будь ласка, коротко опишіть ваше питання:"
	msgEmptyQuestion   = "Питання не може бути порожнім. Будь ласка, опишіть ваше питання:"
	msgQuestionTooLong = "Опис питання занадто довгий. Будь ласка, скоротіть його:"
	msgEmptyPhone      = "Будь ласка, поділіться номером кнопкою нижче або введіть його вручну:"
	msgChooseDate      = "Оберіть зручну дату для консультації:"
	msgChooseMessenger = "Оберіть бажаний месенджер для зв'язку:"
	msgBackToMenu      = "Бажаєте повернутися до головного меню?"
)
