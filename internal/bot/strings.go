package bot

// UI texts. The bot speaks Russian, commands stay latin.
const (
	msgStart = "Привет! Я помогу вести список задач.\n/create — создать задачу\n/tasks — список задач\n/help — справка"
	msgHelp  = "Команды:\n/create — создать новую задачу\n/tasks — все мои задачи\n/help — справка по командам\n\nВ любом шаге диалога можно нажать «Отменить» или отправить /cancel."

	msgDefault = "Я вас не понял. Посмотрите список команд: /help"

	msgInputTitle       = "Введите название задачи:"
	msgInputDescription = "Введите описание задачи или нажмите «Пропустить»:"
	msgInputMention     = "Отметьте коллегу, которому предназначена задача, или нажмите «Пропустить»:"
	msgInputAttachment  = "Прикрепите файл к задаче или нажмите «Пропустить»:"

	msgTitleRequired       = "Название задачи должно быть текстом. Введите название:"
	msgDescriptionRequired = "Описание задачи должно быть текстом. Введите описание или нажмите «Пропустить»:"
	msgMentionValidation   = "Нужно отметить ровно одного коллегу. Попробуйте ещё раз:"
	msgFileRequired        = "Пришлите файл или нажмите «Пропустить»:"
	msgFileNotSupported    = "Файл такого типа не поддерживается. Пришлите другой файл или нажмите «Пропустить»:"

	msgCheckingData   = "Проверьте данные задачи:"
	msgReCheckingData = "Ответьте «Да» или «Нет». Проверьте данные ещё раз:"

	msgTaskCreated        = "Задача успешно создана! 🎉"
	msgCreationCancelled  = "Создание задачи отменено."
	msgDialogCancelled    = "Действие отменено."
	msgTaskDeleted        = "Задача удалена."
	msgTaskGone           = "Такой задачи больше нет."
	msgSomethingWentWrong = "Что-то пошло не так. Обратитесь к администратору."

	msgForwardDecision = "Создать задачу из пересланного сообщения?"
	msgForwardTarget   = "Сохранить текст сообщения как название или как описание задачи?"
	msgAnswerWithBtns  = "Ответьте с помощью кнопок под сообщением."

	msgEmptyTaskList  = "У вас нет созданных задач.\nЧтобы создать задачу, нажмите на кнопку:"
	msgTaskListCount  = "Всего задач: %d"
	msgListEnd        = "Конец списка."
	msgEmptyListSlot  = "—"
	msgUploadingFile  = "Загружаю вложение…"
	msgAttachmentLost = "Вложение недоступно."

	msgEditMenu               = "Что необходимо изменить?"
	msgEditTitle              = "Введите новое название задачи:"
	msgEditDescription        = "Введите новое описание задачи:"
	msgEditMention            = "Отметьте коллегу, которому предназначена задача:"
	msgEditAttachment         = "Прикрепите файл к задаче:"
	msgTitleEdited            = "Название успешно изменено."
	msgDescriptionEdited      = "Описание успешно изменено."
	msgMentionAdded           = "Отметка коллеги добавлена."
	msgMentionDeleted         = "Отметка коллеги удалена."
	msgAttachmentAdded        = "Вложение добавлено."
	msgAttachmentDeleted      = "Вложение удалено."

	noContactPlaceholder    = "Без контакта"
	noAttachmentPlaceholder = "Без вложения"
)

// Button labels.
const (
	labelYes    = "Да"
	labelNo     = "Нет"
	labelSkip   = "Пропустить"
	labelCancel = "Отменить"

	labelCreateTask = "Создать задачу"
	labelExpand     = "Раскрыть задачу полностью"
	labelEdit       = "Изменить"
	labelDelete     = "Удалить"

	labelEditTitle        = "Название задачи"
	labelEditDescription  = "Описание задачи"
	labelAddMention       = "Добавить отметку коллеги"
	labelDeleteMention    = "Удалить отметку коллеги"
	labelAddAttachment    = "Добавить вложение"
	labelDeleteAttachment = "Удалить вложение"

	labelAsTitle       = "Как название"
	labelAsDescription = "Как описание"

	labelPagePrev = "⬅ %d–%d"
	labelPageNext = "%d–%d ➡"
)

// Callback payloads for dialog buttons. Task and pagination buttons carry
// their arguments after the prefix: "task:<action>:<id>", "pg:<start>:<ids>".
const (
	dataSkip          = "fsm:skip"
	dataYes           = "fsm:yes"
	dataNo            = "fsm:no"
	dataCancel        = "fsm:cancel"
	dataAsTitle       = "fsm:as_title"
	dataAsDescription = "fsm:as_description"

	dataCreateTask = "menu:create"
)

// Extensions accepted for task attachments.
var supportedExtensions = []string{
	".doc", ".docx", ".gif", ".jpeg", ".jpg", ".mp3", ".mp4",
	".pdf", ".png", ".ppt", ".pptx", ".rar", ".txt", ".xls", ".xlsx", ".zip",
}
