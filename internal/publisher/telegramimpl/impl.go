package telegramimpl

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/reelcraft/newsreel/internal/publisher"
	"github.com/reelcraft/newsreel/pkg/config"
	"github.com/reelcraft/newsreel/pkg/logger"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In

	Config *config.Config
	Logger logger.Logger
}

type TelegramImpl struct {
	TgBot  *tgbotapi.BotAPI
	Logger logger.Logger
	Config *config.Config
}

// NewClient returns the Telegram publisher when a bot token is configured
// and a no-op publisher otherwise, so the rest of the service runs the same
// way with publishing switched off.
func NewClient(opts Opts) (publisher.Client, error) {
	if opts.Config.Telegram.Token == "" {
		opts.Logger.Warn("TELEGRAM_TOKEN is not set, publishing disabled")
		return &NoopImpl{Logger: opts.Logger.WithComponent("Publisher")}, nil
	}

	tgBot, err := tgbotapi.NewBotAPI(opts.Config.Telegram.Token)
	if err != nil {
		opts.Logger.Error("Error creating bot", "Error", err)
		return nil, err
	}

	return &TelegramImpl{
		TgBot:  tgBot,
		Logger: opts.Logger.WithComponent("Publisher"),
		Config: opts.Config,
	}, nil
}

var _ publisher.Client = (*TelegramImpl)(nil)

// PublishVideo uploads a finished video to the configured Telegram channel.
func (tg *TelegramImpl) PublishVideo(path, caption string) error {
	channelName := "@" + tg.Config.Telegram.Channel
	tg.Logger.Info("Publishing video to channel", "channel", channelName, "path", path)

	video := tgbotapi.NewVideo(0, tgbotapi.FilePath(path))
	video.ChannelUsername = channelName
	video.Caption = caption
	video.ParseMode = tgbotapi.ModeMarkdownV2

	if _, err := tg.TgBot.Send(video); err != nil {
		tg.Logger.Error("Error publishing video to channel",
			"channel", channelName,
			"error", err)
		return fmt.Errorf("failed to send video to channel: %w", err)
	}

	tg.Logger.Info("Video published to channel", "channel", channelName)
	return nil
}

// NotifyError sends a text message to the configured user.
func (tg *TelegramImpl) NotifyError(message string) {
	msg := tgbotapi.NewMessage(tg.Config.Telegram.User, message)
	if _, err := tg.TgBot.Send(msg); err != nil {
		tg.Logger.Error("Error sending message to user",
			"userID", tg.Config.Telegram.User,
			"error", err)
		return
	}

	tg.Logger.Info("Message sent to user", "userID", tg.Config.Telegram.User)
}
