package notifier

import (
	"context"

	"jobmatch/internal/logger"
	"jobmatch/internal/model"

	"go.uber.org/zap"
)

// LogMailer 只记录日志不发邮件，未配置 SMTP 时使用。
type LogMailer struct {
	logger *zap.Logger
}

func NewLogMailer(log *zap.Logger) *LogMailer {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogMailer{logger: log}
}

// SendBatch 逐个记录收件人（邮箱脱敏），全部计为已发送。
func (m LogMailer) SendBatch(ctx context.Context, job model.Job, emails []string) (BatchResult, error) {
	valid, invalid := cleanRecipients(emails)
	for _, addr := range valid {
		m.logger.Info("job alert",
			zap.String("job_id", job.ID),
			zap.String("title", job.Title),
			zap.String("to", logger.MaskEmail(addr)),
		)
	}
	return BatchResult{SentCount: len(valid), TotalCount: len(valid) + len(invalid), FailedEmails: invalid}, ctx.Err()
}
