package telegramimpl

import (
	"github.com/reelcraft/newsreel/internal/publisher"
	"github.com/reelcraft/newsreel/pkg/logger"
)

// NoopImpl satisfies publisher.Client when no bot token is configured.
type NoopImpl struct {
	Logger logger.Logger
}

var _ publisher.Client = (*NoopImpl)(nil)

func (n *NoopImpl) PublishVideo(path, caption string) error {
	n.Logger.Info("Publishing disabled, skipping video", "path", path)
	return nil
}

func (n *NoopImpl) NotifyError(message string) {
	n.Logger.Warn("Publishing disabled, dropping notification", "message", message)
}
