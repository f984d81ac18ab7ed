package notifier

import (
	"context"
	"fmt"
	"net/mail"
	"net/smtp"
	"strings"

	"jobmatch/internal/model"

	"go.uber.org/zap"
)

// EmailConfig 邮件配置。
type EmailConfig struct {
	Host      string `yaml:"host" json:"host"`
	Port      int    `yaml:"port" json:"port"`
	Username  string `yaml:"username" json:"username"`
	Password  string `yaml:"password" json:"password"`
	From      string `yaml:"from" json:"from"`
	Subject   string `yaml:"subject" json:"subject"`
	BatchSize int    `yaml:"batch_size" json:"batch_size"`
	JobURL    string `yaml:"job_url" json:"job_url"`
}

// Enabled 是否具备发送 SMTP 邮件的最少配置。
func (c EmailConfig) Enabled() bool {
	return c.Host != "" && c.Port != 0 && c.From != ""
}

// EmailMessage 表示一封邮件；Bcc 只出现在信封中。
type EmailMessage struct {
	From    string
	To      []string
	Bcc     []string
	Subject string
	Body    string
}

// EmailSender 抽象发送接口，便于测试替换。
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// SMTPClient 封装 SMTP 发送。
type SMTPClient struct {
	addr string
	auth smtp.Auth
}

func NewSMTPClient(cfg EmailConfig) *SMTPClient {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	var auth smtp.Auth
	if cfg.Username != "" && cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPClient{addr: addr, auth: auth}
}

func (c *SMTPClient) Send(ctx context.Context, msg EmailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rcpt := append(append([]string{}, msg.To...), msg.Bcc...)
	return smtp.SendMail(c.addr, c.auth, msg.From, rcpt, []byte(buildEmailData(msg)))
}

// BatchResult 一次职位提醒的发送统计。
type BatchResult struct {
	SentCount    int      `json:"sent_count"`
	TotalCount   int      `json:"total_count"`
	FailedEmails []string `json:"failed_emails"`
}

// MailDispatcher 按批次发送职位提醒邮件，收件人放在密送中。
type MailDispatcher struct {
	cfg    EmailConfig
	sender EmailSender
	logger *zap.Logger
}

// NewMailDispatcher 创建 MailDispatcher，默认每批 500 个收件人。
func NewMailDispatcher(cfg EmailConfig, sender EmailSender, logger *zap.Logger) *MailDispatcher {
	if sender == nil {
		sender = NewSMTPClient(cfg)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Subject == "" {
		cfg.Subject = "New job match: %s"
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	return &MailDispatcher{cfg: cfg, sender: sender, logger: logger}
}

// SendBatch 发送职位提醒。单个批次失败只记录该批收件人，不影响其他批次；
// 上下文取消时剩余收件人计为失败并返回错误。
func (d *MailDispatcher) SendBatch(ctx context.Context, job model.Job, emails []string) (BatchResult, error) {
	valid, invalid := cleanRecipients(emails)
	res := BatchResult{TotalCount: len(valid) + len(invalid), FailedEmails: invalid}
	if len(valid) == 0 {
		return res, nil
	}

	body := buildBody(job, d.cfg.JobURL)
	subject := d.subject(job)
	for start := 0; start < len(valid); start += d.cfg.BatchSize {
		end := min(start+d.cfg.BatchSize, len(valid))
		batch := valid[start:end]

		if err := ctx.Err(); err != nil {
			res.FailedEmails = append(res.FailedEmails, valid[start:]...)
			return res, fmt.Errorf("send job alert: %w", err)
		}

		msg := EmailMessage{
			From:    d.cfg.From,
			To:      []string{d.cfg.From},
			Bcc:     batch,
			Subject: subject,
			Body:    body,
		}
		if err := d.sender.Send(ctx, msg); err != nil {
			d.logger.Warn("email batch failed",
				zap.String("job_id", job.ID),
				zap.Int("batch_size", len(batch)),
				zap.Error(err),
			)
			res.FailedEmails = append(res.FailedEmails, batch...)
			continue
		}
		res.SentCount += len(batch)
	}

	d.logger.Info("job alert emails sent",
		zap.String("job_id", job.ID),
		zap.Int("sent", res.SentCount),
		zap.Int("total", res.TotalCount),
		zap.Int("failed", len(res.FailedEmails)),
	)
	return res, nil
}

func (d *MailDispatcher) subject(job model.Job) string {
	if strings.Contains(d.cfg.Subject, "%s") {
		return fmt.Sprintf(d.cfg.Subject, job.Title)
	}
	return d.cfg.Subject
}

// cleanRecipients 去掉空白与重复地址，无法解析的地址单独返回。
func cleanRecipients(emails []string) (valid, invalid []string) {
	seen := make(map[string]struct{}, len(emails))
	invalid = []string{}
	for _, e := range emails {
		addr := strings.TrimSpace(e)
		if addr == "" {
			continue
		}
		key := strings.ToLower(addr)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		if _, err := mail.ParseAddress(addr); err != nil {
			invalid = append(invalid, addr)
			continue
		}
		valid = append(valid, addr)
	}
	return valid, invalid
}

func buildBody(job model.Job, jobURL string) string {
	var b strings.Builder
	b.WriteString("A new job matches your profile:\n\n")
	b.WriteString(fmt.Sprintf("%s\n", job.Title))
	if job.Location != "" {
		b.WriteString(fmt.Sprintf("Location: %s\n", job.Location))
	}
	if job.WorkType != "" || job.WorkspaceOption != "" {
		b.WriteString(fmt.Sprintf("Type: %s %s\n", job.WorkType, job.WorkspaceOption))
	}
	if len(job.Skills) > 0 {
		b.WriteString(fmt.Sprintf("Skills: %s\n", strings.Join(job.Skills, ", ")))
	}
	if job.SalaryFrom > 0 || job.SalaryTo > 0 {
		b.WriteString(fmt.Sprintf("Salary: %.0f - %.0f %s\n", job.SalaryFrom, job.SalaryTo, job.Currency))
	}
	if jobURL != "" {
		b.WriteString(fmt.Sprintf("\n%s\n", strings.ReplaceAll(jobURL, "{id}", job.ID)))
	}
	return b.String()
}

func buildEmailData(msg EmailMessage) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("From: %s\r\n", msg.From))
	b.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(msg.To, ",")))
	b.WriteString(fmt.Sprintf("Subject: %s\r\n", msg.Subject))
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(msg.Body)
	return b.String()
}
