package controller

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

type BotController struct {
	bot    *bot.Bot
	router *UpdateRouter
	logger *zap.Logger
}

func NewBotController(botInstance *bot.Bot, router *UpdateRouter, logger *zap.Logger) *BotController {
	return &BotController{
		bot:    botInstance,
		router: router,
		logger: logger,
	}
}

// RegisterHandlers регистрирует обработчики команд и кнопок
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	// Команды
	for name := range commandKinds {
		c.bot.RegisterHandler(bot.HandlerTypeMessageText, name, bot.MatchTypeExact, c.router.HandleUpdate)
	}

	// Обработчик нажатий на inline кнопки
	c.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, c.router.HandleUpdate)

	// Текст, контакты и всё остальное приходит в default handler

	// Устанавливаем меню команд
	return c.setCommands(ctx)
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Обрати послугу"},
		{Command: "rename", Description: "✏️ Змінити ім'я"},
		{Command: "cancel", Description: "❌ Перервати поточну дію"},
		{Command: "help", Description: "❓ Довідка"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})

	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("✅ Bot commands menu set")
	return nil
}

// Start запускает бота и блокируется до отмены ctx
func (c *BotController) Start(ctx context.Context) error {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
	return nil
}
